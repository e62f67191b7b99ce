package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/constants"
)

type BackupCreateCmd struct {
	Label string `help:"Short tag stored in the backup file name." default:"manual"`
}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	path, err := mgr.Create(c.Label)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render("✓ Backup created: " + filepath.Base(path)))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{
			b.Timestamp.Format("2006-01-02 15:04:05"),
			filepath.Base(b.Path),
			b.Label,
			fmt.Sprintf("%.1f KB", float64(b.Size)/1024.0),
		})
	}
	fmt.Printf("Available backups (%d total, keeping most recent %d):\n", len(list), constants.MaxBackups)
	fmt.Println(cli.Table([]string{"Created", "File", "Label", "Size"}, rows))
	fmt.Printf("Backup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `help:"Skip the confirmation prompt." short:"y"`
}

// Resolve finds the backup file: an absolute path, a path relative to the
// working directory, or a file name inside the backup directory.
func (c *BackupRestoreCmd) Resolve(backupDir string) (string, error) {
	if filepath.IsAbs(c.BackupFile) {
		if _, err := os.Stat(c.BackupFile); err != nil {
			return "", fmt.Errorf("backup file not found: %s", c.BackupFile)
		}
		return c.BackupFile, nil
	}
	if _, err := os.Stat(c.BackupFile); err == nil {
		return filepath.Abs(c.BackupFile)
	}
	candidate := filepath.Join(backupDir, c.BackupFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	path, err := c.Resolve(mgr.Dir())
	if err != nil {
		return err
	}

	fmt.Println(cli.WarnStyle.Render("⚠️  This will replace the current database with the backup."))
	fmt.Println(cli.WarnStyle.Render("⚠️  Stop any running 'serve' process first."))
	fmt.Printf("Restore from: %s\n", path)

	if !c.Yes {
		proceed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Continue with restore?").
				Value(&proceed),
		)).WithTheme(huh.ThemeBase())
		if err := form.Run(); err != nil {
			return err
		}
		if !proceed {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}
	if err := mgr.Restore(path); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render("✓ Database restored successfully!"))
	return nil
}
