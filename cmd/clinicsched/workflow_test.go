package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const workflowTimeout = 30 * time.Second

// TestEndToEndWorkflow drives a built binary through booking, validation,
// optimization and audit. Set CLINICSCHED_BIN to the binary path to run it.
func TestEndToEndWorkflow(t *testing.T) {
	bin := os.Getenv("CLINICSCHED_BIN")
	if bin == "" {
		t.Skip("CLINICSCHED_BIN not set")
	}
	bin, err := filepath.Abs(bin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(bin); err != nil {
		t.Fatalf("binary not found at %s: %v", bin, err)
	}

	home := t.TempDir()
	dbPath := filepath.Join(home, "clinic", "clinicsched.db")

	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HOME=") && !strings.HasPrefix(e, "CLINICSCHED_") {
			env = append(env, e)
		}
	}
	env = append(env, "HOME="+home)

	run := func(wantOK bool, args ...string) string {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), workflowTimeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, bin, append([]string{"--db", dbPath}, args...)...)
		cmd.Env = env
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		err := cmd.Run()
		if wantOK && err != nil {
			t.Fatalf("%v failed: %v\n%s", args, err, out.String())
		}
		if !wantOK && err == nil {
			t.Fatalf("%v should have failed\n%s", args, out.String())
		}
		return out.String()
	}

	run(true, "init")
	run(true, "doctor", "add", "Dr. Ada", "--avg-min", "30")
	run(true, "schedule", "set", "--doctor", "1", "--start", "09:00", "--end", "10:00")
	run(true, "patient", "add", "Grace Hopper")

	// Three half-hour requests at 09:00 on a Friday with a one-hour window.
	for i := 0; i < 3; i++ {
		run(true, "appointment", "book", "--doctor", "1", "--patient", "1", "--date", "2026-10-23", "--start", "09:00")
	}

	out := run(false, "validate", "--doctor", "1")
	if !strings.Contains(out, "Conflicts detected") {
		t.Errorf("validate should report overlaps:\n%s", out)
	}

	out = run(true, "optimize", "--all", "--dry-run", "--precision", "300")
	if !strings.Contains(out, "2026-10-26") {
		t.Errorf("dry run should move an appointment to Monday:\n%s", out)
	}
	run(false, "validate", "--doctor", "1")

	run(true, "optimize", "--doctor", "1", "--precision", "300")
	run(true, "validate", "--doctor", "1")

	out = run(true, "history", "--appointment", "3")
	if !strings.Contains(out, "2026-10-26") {
		t.Errorf("history should record the move:\n%s", out)
	}

	out = run(true, "backup", "list")
	if !strings.Contains(out, "pre-optimize") {
		t.Errorf("optimize should leave a pre-optimize backup:\n%s", out)
	}

	run(true, "check")
}
