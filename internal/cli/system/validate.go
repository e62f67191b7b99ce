package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/validation"
)

// ValidateCmd reports conflicts in stored appointments without changing them.
type ValidateCmd struct {
	Doctor int  `help:"Doctor ID; all doctors with a schedule when omitted."`
	JSON   bool `name:"json" help:"Print conflicts as JSON."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	ids := []int{c.Doctor}
	if c.Doctor == 0 {
		doctors, err := ctx.Store.GetAllDoctors()
		if err != nil {
			return fmt.Errorf("failed to get doctors: %w", err)
		}
		ids = ids[:0]
		for _, d := range doctors {
			if d.ScheduleID != 0 {
				ids = append(ids, d.ID)
			}
		}
	}

	results := make(map[int]validation.ValidationResult, len(ids))
	conflicts := 0
	for _, id := range ids {
		res, err := ctx.Service.Validate(id)
		if err != nil {
			return err
		}
		results[id] = res
		conflicts += len(res.Conflicts)
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, id := range ids {
			res := results[id]
			fmt.Printf("Doctor %d:\n%s\n", id, res.FormatReport())
		}
	}

	if conflicts > 0 {
		return errors.New("validation found conflicts")
	}
	return nil
}
