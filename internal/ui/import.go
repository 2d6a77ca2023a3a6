package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/task"
)

// fixedFile is the TOML layout accepted by "fixed import".
type fixedFile struct {
	Fixed []fixedEntry `toml:"fixed"`
}

type fixedEntry struct {
	Title    string `toml:"title"`
	Weekday  any    `toml:"weekday"` // 0-6 or a weekday name
	Start    string `toml:"start"`
	End      string `toml:"end"`
	Location string `toml:"location"`
}

func (a *App) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.toml]",
		Short: "Import fixed schedules from a TOML file",
		Long: `Import weekly fixed schedules, for example a class timetable.

The file holds one [[fixed]] table per appointment:

  [[fixed]]
  title = "Algorithms"
  weekday = "monday"   # or 0-6, 0 is Sunday
  start = "09:00"
  end = "10:30"
  location = "Room 101"

Every entry is validated before anything is written.`,
		Example: `  daybook fixed import ~/timetable.toml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}

			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("file does not exist: %s", path)
				}
				return fmt.Errorf("checking file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("path is a directory: %s", path)
			}

			if err := a.ensureRepo(); err != nil {
				return err
			}
			count, err := importFixed(cmd.Context(), a.store, path)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(a.out, "Imported %d fixed schedules from %s\n", count, path)
			return nil
		},
	}
}

// readFixedFile parses and validates every entry of a timetable file.
func readFixedFile(path string) ([]*task.FixedSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file fixedFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make([]*task.FixedSchedule, 0, len(file.Fixed))
	for i, e := range file.Fixed {
		if e.Weekday == nil {
			return nil, fmt.Errorf("entry %d (%q): weekday is required", i+1, e.Title)
		}
		weekday, err := dateutil.ParseWeekday(fmt.Sprint(e.Weekday))
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i+1, e.Title, err)
		}
		f, err := task.NewFixedSchedule(e.Title, weekday, e.Start, e.End, e.Location)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i+1, e.Title, err)
		}
		f.Source = task.SourceImport
		out = append(out, f)
	}
	return out, nil
}

func importFixed(ctx context.Context, dest task.FixedRepository, path string) (int, error) {
	list, err := readFixedFile(path)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, f := range list {
		if err := dest.CreateFixed(ctx, f); err != nil {
			return imported, fmt.Errorf("importing %q: %w", f.Title, err)
		}
		imported++
	}
	return imported, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
