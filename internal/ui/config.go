package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/config"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.`,
		Example: `  daybook config`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInteractive(config.DefaultConfigPath(), os.Stdin, a.out)
		},
	}
}

func runConfigInteractive(configPath string, in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintf(out, "Config file: %s\n\n", configPath)

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		_, _ = fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Created %s\n\n", configPath)
	}

	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	p := prompter{reader: reader, out: out}
	if !p.yesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Schedule.DayStart = p.value("Day start", cfg.Schedule.DayStart)
	cfg.Schedule.DayEnd = p.value("Day end", cfg.Schedule.DayEnd)
	cfg.LLM.Provider = p.provider(cfg.LLM.Provider)
	cfg.LLM.Model = p.value("LLM model", cfg.LLM.Model)
	cfg.LLM.BaseURL = p.value("LLM base URL (empty for provider default)", cfg.LLM.BaseURL)
	cfg.LLM.MaxRetries = p.int("Optimizer retries", cfg.LLM.MaxRetries)
	cfg.Storage.DBPath = p.value("Database path", cfg.Storage.DBPath)
	cfg.Server.Addr = p.value("API listen address", cfg.Server.Addr)
	cfg.Jobs.Morning = p.cron("Morning greeting (cron, - to disable)", cfg.Jobs.Morning)
	cfg.Jobs.Sleep = p.cron("Bedtime review (cron, - to follow preferences)", cfg.Jobs.Sleep)
	cfg.Jobs.Reminders = p.cron("Task reminders (cron, - to disable)", cfg.Jobs.Reminders)
	cfg.Jobs.AutoSchedule = p.cron("Daily auto-schedule (cron, - to disable)", cfg.Jobs.AutoSchedule)
	cfg.UI.Theme = p.theme(cfg.UI.Theme)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format, args...) }
	p("Current configuration:\n")
	p("──────────────────────\n")
	p("[schedule]\n")
	p("  day_start     = %s\n", cfg.Schedule.DayStart)
	p("  day_end       = %s\n", cfg.Schedule.DayEnd)
	p("\n[llm]\n")
	p("  provider      = %s\n", cfg.LLM.Provider)
	p("  model         = %s\n", cfg.LLM.Model)
	p("  base_url      = %s\n", cfg.LLM.BaseURL)
	p("  max_retries   = %d\n", cfg.LLM.MaxRetries)
	p("\n[storage]\n")
	p("  db_path       = %s\n", cfg.Storage.DBPath)
	p("\n[server]\n")
	p("  addr          = %s\n", cfg.Server.Addr)
	p("  rate_limit    = %g/s (burst %d)\n", cfg.Server.RateLimit, cfg.Server.RateBurst)
	p("\n[jobs]\n")
	p("  morning       = %q\n", cfg.Jobs.Morning)
	p("  sleep         = %q\n", cfg.Jobs.Sleep)
	p("  reminders     = %q\n", cfg.Jobs.Reminders)
	p("  auto_schedule = %q\n", cfg.Jobs.AutoSchedule)
	p("  reminder_lead = %dm\n", cfg.Jobs.ReminderLead)
	p("\n[ui]\n")
	p("  theme         = %s\n", cfg.UI.Theme)
}

// prompter asks line-based questions with the current value as default.
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func (p prompter) read() string {
	input, _ := p.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func (p prompter) yesNo(question string) bool {
	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", question)
	input := strings.ToLower(p.read())
	return input == "y" || input == "yes"
}

func (p prompter) value(label, current string) string {
	if current == "" {
		_, _ = fmt.Fprintf(p.out, "  %s: ", label)
	} else {
		_, _ = fmt.Fprintf(p.out, "  %s [%s]: ", label, current)
	}
	input := p.read()
	if input == "" {
		return current
	}
	return input
}

// cron keeps the current spec on empty input; "-" clears it.
func (p prompter) cron(label, current string) string {
	for {
		value := p.value(label, current)
		if value == "-" {
			return ""
		}
		if err := config.ValidateCron(value); err != nil {
			_, _ = fmt.Fprintf(p.out, "  %v\n", err)
			continue
		}
		return value
	}
}

func (p prompter) int(label string, current int) int {
	for {
		value := p.value(label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil && n >= 0 {
			return n
		}
		_, _ = fmt.Fprintf(p.out, "  %q is not a non-negative number\n", value)
	}
}

func (p prompter) provider(current string) string {
	providers := llm.Providers()
	options := strings.Join(providers, ", ")
	for {
		value := llm.NormalizeProvider(p.value(fmt.Sprintf("LLM provider (%s)", options), current))
		if slices.Contains(providers, value) {
			return value
		}
		_, _ = fmt.Fprintf(p.out, "  Unknown provider %q. Available: %s\n", value, options)
	}
}

func (p prompter) theme(current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(p.value(label, current))
		if theme.IsAvailable(value) {
			return value
		}
		_, _ = fmt.Fprintf(p.out, "  Invalid theme %q. Available: %s\n", value, options)
	}
}
