package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/config"
	"github.com/javiermolinar/daybook/internal/db"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/logging"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/task"
	"github.com/javiermolinar/daybook/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	store  task.Store
	svc    *planner.Service
	bus    *events.Bus
	logger zerolog.Logger
	out    io.Writer
	root   *cobra.Command
	debug  bool // Enable debug logging
}

// NewApp creates a new CLI application with the given config. The store
// and LLM client are opened lazily by the commands that need them.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg, out: os.Stdout, logger: zerolog.Nop()}

	a.root = &cobra.Command{
		Use:   "daybook",
		Short: "A personal task and calendar assistant",
		Long: `Daybook keeps your tasks and weekly fixed schedule in one place.

It fills the free time of a day with pending tasks, asks an LLM for
a better plan when one is configured, and reminds you when a task starts.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := a.config.Log.Level
			if a.debug {
				level = "debug"
			}
			a.logger = logging.Setup(level, a.config.Log.Format)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := a.ensureService()
			if err != nil {
				return err
			}
			// Log lines would tear the alt screen.
			a.logger = zerolog.Nop()
			return tui.Run(svc, tui.Options{
				Theme:      a.config.UI.Theme,
				MaxRetries: a.config.LLM.MaxRetries,
			})
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.parseCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.doneCmd())
	a.root.AddCommand(a.rmCmd())
	a.root.AddCommand(a.fixedCmd())
	a.root.AddCommand(a.prefsCmd())
	a.root.AddCommand(a.scheduleCmd())
	a.root.AddCommand(a.optimizeCmd())
	a.root.AddCommand(a.chatCmd())
	a.root.AddCommand(a.greetCmd())
	a.root.AddCommand(a.summaryCmd())
	a.root.AddCommand(a.serveCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(a.out, "daybook %s (commit: %s)\n", Version, Commit)
		},
	}
}

// ensureRepo opens the database on first use. A fresh database takes its
// work window from the config.
func (a *App) ensureRepo() error {
	if a.store != nil {
		return nil
	}
	seed := task.DefaultPreferences()
	seed.WorkStart = a.config.Schedule.DayStart
	seed.WorkEnd = a.config.Schedule.DayEnd

	store, err := db.Open(a.config.Storage.DBPath, seed)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.store = store
	return nil
}

// ensureService builds the planner service. A missing or broken LLM
// provider is logged and the service runs without one.
func (a *App) ensureService() (*planner.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	if err := a.ensureRepo(); err != nil {
		return nil, err
	}

	var client llm.Client
	if a.config.HasLLM() {
		c, err := llm.NewClient(a.config.LLM.Provider, a.config.LLM.Model, a.config.LLM.BaseURL)
		switch {
		case err == nil:
			client = c
		case errors.Is(err, llm.ErrDisabled):
		default:
			a.logger.Warn().Err(err).Str("provider", a.config.LLM.Provider).Msg("LLM unavailable, continuing without it")
		}
	}

	a.bus = events.NewBus()
	a.svc = planner.New(a.store, client, a.bus, logging.Component(a.logger, "planner"),
		planner.WithReminderLead(time.Duration(a.config.Jobs.ReminderLead)*time.Minute))
	return a.svc, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}
