package optimize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/clinic"
	"github.com/julianstephens/clinicsched/internal/optimizer"
	"github.com/julianstephens/clinicsched/internal/storage"
)

type OptimizeCmd struct {
	Doctor      int  `help:"Doctor whose appointments to rebalance." xor:"target"`
	All         bool `help:"Rebalance every doctor with a schedule." xor:"target"`
	DryRun      bool `help:"Show the resulting placements without writing them."`
	Interactive bool `help:"Review the placements and confirm before writing them."`
	Precision   int  `help:"Shift grid step in seconds. Defaults to the stored setting."`
	MaxWeeks    int  `help:"How many weeks an appointment may be pushed. Defaults to the stored setting." name:"max-weeks"`
	JSON        bool `help:"Print the run report as JSON." name:"json"`
}

func (c *OptimizeCmd) Run(ctx *cli.Context) error {
	if c.Doctor == 0 && !c.All {
		return errors.New("either --doctor or --all is required")
	}
	if c.DryRun && c.Interactive {
		return errors.New("--dry-run and --interactive cannot be combined")
	}

	opts := clinic.RunOptions{
		DryRun:    c.DryRun,
		Precision: c.Precision,
		MaxWeeks:  c.MaxWeeks,
	}
	if c.Interactive {
		opts.Confirm = review
	}
	bg := context.Background()

	var results []clinic.Result
	if c.All {
		var err error
		results, err = ctx.Service.OptimizeAll(bg, opts)
		if results == nil && err != nil {
			return err
		}
	} else {
		res, err := ctx.Service.Optimize(bg, c.Doctor, opts)
		res.Err = err
		results = []clinic.Result{res}
	}

	if c.JSON && !c.Interactive {
		return printJSON(results)
	}

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
		// Runs with changes were already shown by review.
		if c.Interactive && res.Err == nil && len(res.Changes) > 0 {
			if res.Applied {
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("  ✓ Applied %d change(s)", len(res.Changes))))
			}
			continue
		}
		display(res)
	}

	if c.DryRun {
		fmt.Println("\n💡 This was a dry run. Re-run without --dry-run to apply.")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d run(s) failed", failed, len(results))
	}
	return nil
}

// confirmFunc asks whether to apply a run. Swapped out in tests.
var confirmFunc = confirm

// review shows a staged run and asks whether to write it. The service calls
// it while the doctor lock is held, so the approved changes are the ones
// written.
func review(res clinic.Result) (bool, error) {
	display(res)
	apply, err := confirmFunc(res)
	if err != nil {
		return false, fmt.Errorf("interactive form error: %w", err)
	}
	if !apply {
		fmt.Println("  ⏭️  Skipped")
	}
	return apply, nil
}

func confirm(res clinic.Result) (bool, error) {
	apply := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Apply %d change(s) for doctor %d?", len(res.Changes), res.DoctorID)).
				Affirmative("Apply").
				Negative("Skip").
				Value(&apply),
		),
	).WithTheme(huh.ThemeBase())
	if err := form.Run(); err != nil {
		return false, err
	}
	return apply, nil
}

func display(res clinic.Result) {
	fmt.Printf("\nDoctor %d", res.DoctorID)
	if res.Report.RunID != uuid.Nil {
		fmt.Printf("  (run %s)", res.Report.RunID)
	}
	fmt.Println()

	if res.Err != nil {
		fmt.Printf("  ❌ %s\n", describe(res.Err))
		return
	}
	if len(res.Changes) == 0 {
		fmt.Println("  ✅ Already optimal, nothing to change.")
		return
	}

	fmt.Println(cli.Table([]string{"ID", "Before", "After", "Shift"}, ChangeRows(res.Changes)))
	fmt.Printf("  Total weighted shift: %ds, %d appointment(s) moved to a later day\n",
		res.Report.Cost, len(res.Report.Moves))
	if res.Applied {
		fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("  ✓ Applied %d change(s)", len(res.Changes))))
	}
}

// ChangeRows renders staged changes as table rows.
func ChangeRows(changes []storage.Change) [][]string {
	rows := make([][]string, 0, len(changes))
	for _, ch := range changes {
		b, a := ch.Before, ch.After
		shift := cli.FormatShift(a.Shift())
		if a.Moved() {
			shift = fmt.Sprintf("moved %+dd", a.Date.DaysUntil(a.RealDate))
		}
		rows = append(rows, []string{
			strconv.Itoa(a.ID),
			fmt.Sprintf("%s %s-%s", b.RealDate, b.RealStart.Short(), b.RealEnd.Short()),
			fmt.Sprintf("%s %s-%s", a.RealDate, a.RealStart.Short(), a.RealEnd.Short()),
			shift,
		})
	}
	return rows
}

func describe(err error) string {
	var unsched *optimizer.UnschedulableError
	switch {
	case errors.As(err, &unsched):
		return fmt.Sprintf("appointment %d (requested %s) cannot be placed within %d week(s); try --max-weeks or a wider schedule",
			unsched.AppointmentID, unsched.Requested, unsched.Weeks)
	case errors.Is(err, optimizer.ErrMalformedSchedule):
		return fmt.Sprintf("%v; fix it with 'schedule set'", err)
	case errors.Is(err, clinic.ErrNoSchedule):
		return "no schedule assigned; set one with 'schedule set'"
	case errors.Is(err, optimizer.ErrCanceled):
		return fmt.Sprintf("%v; the search ran out of time, try a coarser --precision", err)
	}
	return err.Error()
}

type jsonResult struct {
	clinic.Result
	Error string `json:"error,omitempty"`
}

func printJSON(results []clinic.Result) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{Result: r}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
