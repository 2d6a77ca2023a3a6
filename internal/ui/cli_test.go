package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/daybook/internal/config"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/task"
)

func TestMain(m *testing.M) {
	DisableColor()
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.LLM.Provider = "none"
	cfg.Log.Level = "error"
	return cfg
}

// run executes one command line on a fresh App sharing cfg's database.
// A fresh App per call keeps cobra flag state from leaking between runs.
func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := NewApp(cfg)
	a.out = &out
	a.root.SetArgs(args)
	a.root.SetOut(&out)
	a.root.SetErr(&out)
	err := a.Execute()
	if cerr := a.Close(); cerr != nil {
		t.Fatalf("closing app: %v", cerr)
	}
	return out.String(), err
}

func mustRun(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestVersion(t *testing.T) {
	out := mustRun(t, testConfig(t), "version")
	if out != "daybook dev (commit: none)\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestAddListDone(t *testing.T) {
	cfg := testConfig(t)

	out := mustRun(t, cfg, "add", "Write report", "-p", "high", "-d", "2h", "-c", "work")
	if out != "Created task #1: Write report [high, 2h, work]\n" {
		t.Errorf("add output = %q", out)
	}
	mustRun(t, cfg, "add", "Water plants", "--duration", "15m", "--deadline", "2099-01-01")

	out = mustRun(t, cfg, "list")
	for _, want := range []string{"#1", "[H]", "Write report", "#2", "[M]", "due 2099-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Write report") > strings.Index(out, "Water plants") {
		t.Errorf("high priority task should be listed first:\n%s", out)
	}

	if out := mustRun(t, cfg, "done", "1"); out != "Completed task #1\n" {
		t.Errorf("done output = %q", out)
	}

	out = mustRun(t, cfg, "list")
	if strings.Contains(out, "Write report") {
		t.Errorf("completed task listed without --all:\n%s", out)
	}
	out = mustRun(t, cfg, "list", "--all")
	if !strings.Contains(out, "✓ #1") {
		t.Errorf("list --all should show the completed task:\n%s", out)
	}
	out = mustRun(t, cfg, "list", "--status", "completed")
	if strings.Contains(out, "Water plants") {
		t.Errorf("--status=completed listed a pending task:\n%s", out)
	}

	if out := mustRun(t, cfg, "rm", "2"); out != "Deleted task #2\n" {
		t.Errorf("rm output = %q", out)
	}
	if out := mustRun(t, cfg, "list"); out != "No tasks found.\n" {
		t.Errorf("list after rm = %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"unknown priority", []string{"add", "x", "--priority", "urgent"}, task.ErrInvalidPriority},
		{"bad duration", []string{"add", "x", "--duration", "soon"}, task.ErrInvalidDuration},
		{"bad category", []string{"add", "x", "--category", "chores"}, task.ErrInvalidCategory},
		{"done missing task", []string{"done", "42"}, task.ErrTaskNotFound},
		{"rm missing task", []string{"rm", "42"}, task.ErrTaskNotFound},
		{"rm missing fixed", []string{"fixed", "rm", "42"}, task.ErrFixedNotFound},
		{"bad status", []string{"list", "--status", "done"}, task.ErrInvalidStatus},
		{"optimize without llm", []string{"optimize"}, planner.ErrNoLLM},
		{"chat without llm", []string{"chat", "hello"}, planner.ErrNoLLM},
		{"insight without llm", []string{"summary", "--insight"}, planner.ErrNoLLM},
		{"bad id", []string{"done", "abc"}, nil},
		{"bad greeting", []string{"greet", "evening"}, nil},
		{"bad weekday", []string{"fixed", "add", "Gym", "someday", "07:00", "08:00"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cfg, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestFixedAndSchedule(t *testing.T) {
	cfg := testConfig(t)

	out := mustRun(t, cfg, "fixed", "add", "Standup", "monday", "09:00", "10:00", "-l", "Room 4")
	if out != "Created fixed schedule #1: Standup every Monday 09:00-10:00\n" {
		t.Errorf("fixed add output = %q", out)
	}
	out = mustRun(t, cfg, "fixed", "list")
	if !strings.Contains(out, "Standup @ Room 4") || !strings.Contains(out, "manual") {
		t.Errorf("fixed list output:\n%s", out)
	}

	mustRun(t, cfg, "add", "Deep work", "-p", "high", "-d", "2h")
	mustRun(t, cfg, "add", "Too long", "-d", "10h")

	// 2025-03-17 is a Monday.
	out = mustRun(t, cfg, "schedule", "--date", "2025-03-17")
	for _, want := range []string{
		"Monday, March 17, 2025",
		"window 09:00-18:00",
		"10:00-12:00  [H] #1 Deep work",
		"Did not fit:",
		"#2 Too long",
		"Scheduled 1 task(s), 1 left over",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("schedule output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, cfg, "list", "--date", "2025-03-17")
	if !strings.Contains(out, "10:00-12:00") {
		t.Errorf("scheduled task not listed on its day:\n%s", out)
	}

	mustRun(t, cfg, "fixed", "rm", "1")
	if out := mustRun(t, cfg, "fixed", "list"); out != "No fixed schedules.\n" {
		t.Errorf("fixed list after rm = %q", out)
	}
}

func TestParseWithoutLLM(t *testing.T) {
	cfg := testConfig(t)

	out := mustRun(t, cfg, "parse", "call", "the", "bank")
	if !strings.HasPrefix(out, "Created task #1:\n") || !strings.Contains(out, "call the bank") {
		t.Errorf("parse output:\n%s", out)
	}
}

func TestGreetAndSummary(t *testing.T) {
	cfg := testConfig(t)
	mustRun(t, cfg, "add", "Ship release", "-p", "high")

	out := mustRun(t, cfg, "greet", "morning")
	if !strings.Contains(out, "You have 1 pending tasks") || !strings.Contains(out, "Ship release") {
		t.Errorf("morning greeting:\n%s", out)
	}

	mustRun(t, cfg, "done", "1")
	out = mustRun(t, cfg, "greet", "sleep")
	if !strings.Contains(out, "You completed 1 tasks today") {
		t.Errorf("sleep review:\n%s", out)
	}

	out = mustRun(t, cfg, "summary")
	for _, want := range []string{"Tasks: 1", "Completed: 1", "(100% done)", "Ship release"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}

	mustRun(t, cfg, "prefs", "--main-chat=false")
	if out := mustRun(t, cfg, "greet", "morning"); out != "Proactive messages are disabled.\n" {
		t.Errorf("greeting with main chat off = %q", out)
	}
}

func TestPrefs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.DayStart = "08:00"
	cfg.Schedule.DayEnd = "16:00"

	out := mustRun(t, cfg, "prefs")
	if strings.Contains(out, "saved") {
		t.Errorf("prefs without flags should not save:\n%s", out)
	}
	if !strings.Contains(out, "work window      = 08:00-16:00") {
		t.Errorf("fresh database should take the config window:\n%s", out)
	}

	out = mustRun(t, cfg, "prefs", "--work-end", "17:30", "--break", "10m", "--auto-reschedule")
	for _, want := range []string{
		"Preferences saved.",
		"work window      = 08:00-17:30",
		"break            = 10m",
		"auto reschedule  = true",
		"main chat        = true",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prefs output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, cfg, "prefs", "--work-start", "18:00"); err == nil {
		t.Error("start after end should be rejected")
	}
	if _, err := run(t, cfg, "prefs", "--sleep-reminder", "late"); err == nil {
		t.Error("bad sleep reminder time should be rejected")
	}
}

func TestServeShutsDown(t *testing.T) {
	cfg := testConfig(t)
	a := NewApp(cfg)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestConfigInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daybook", "config.toml")

	answers := strings.Join([]string{
		"y",           // edit
		"07:30",       // day start
		"",            // day end
		"none",        // provider
		"",            // model
		"",            // base url
		"many",        // retries, rejected
		"5",           // retries
		"",            // db path
		":9000",       // addr
		"-",           // morning, disabled
		"",            // sleep
		"0 8 * * * *", // reminders, rejected
		"*/10 * * * *",
		"0 7 * * 1-5", // auto schedule
		"purple",      // theme, rejected
		"light",
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := runConfigInteractive(path, strings.NewReader(answers), &out); err != nil {
		t.Fatalf("runConfigInteractive: %v\n%s", err, out.String())
	}
	for _, want := range []string{"Created " + path, "not a non-negative number", "cron spec must have 5 fields", `Invalid theme "purple"`, "Configuration saved!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Schedule.DayStart != "07:30" || cfg.Schedule.DayEnd != "18:00" {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.LLM.Provider != "none" || cfg.LLM.MaxRetries != 5 {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Jobs.Morning != "" || cfg.Jobs.Sleep != "0 22 * * *" || cfg.Jobs.Reminders != "*/10 * * * *" || cfg.Jobs.AutoSchedule != "0 7 * * 1-5" {
		t.Errorf("jobs = %+v", cfg.Jobs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

func TestConfigInteractive_NoEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	var out bytes.Buffer
	if err := runConfigInteractive(path, strings.NewReader("n\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "[jobs]") {
		t.Errorf("current config not printed:\n%s", out.String())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not created: %v", err)
	}
}
