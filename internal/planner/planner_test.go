package planner

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/javiermolinar/daybook/internal/db"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/task"
)

// testNow is a Monday morning, before the default 09:00-18:00 window.
var testNow = time.Date(2025, 3, 17, 7, 30, 0, 0, time.Local)

// fakeLLM replays canned replies. The last reply repeats once exhausted.
type fakeLLM struct {
	replies []string
	json    string
	err     error
	calls   [][]llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, msgs []llm.Message) (string, error) {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.calls) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

func (f *fakeLLM) ChatJSON(_ context.Context, msgs []llm.Message, result any) error {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.json), result)
}

func newTestService(t *testing.T, client llm.Client) (*Service, *db.SQLite, *events.Bus) {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	bus := events.NewBus()
	svc := New(store, client, bus, zerolog.Nop(), WithClock(func() time.Time { return testNow }))
	return svc, store, bus
}

func mustTask(t *testing.T, store task.Store, content, priority, duration string) *task.Task {
	t.Helper()
	tk, err := task.New(content, "work", priority, duration, "")
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	if err := store.CreateTask(context.Background(), tk); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return tk
}

func mustFixed(t *testing.T, store task.Store, title string, weekday time.Weekday, start, end string) {
	t.Helper()
	f, err := task.NewFixedSchedule(title, weekday, start, end, "")
	if err != nil {
		t.Fatalf("NewFixedSchedule: %v", err)
	}
	if err := store.CreateFixed(context.Background(), f); err != nil {
		t.Fatalf("CreateFixed: %v", err)
	}
}

func mustGet(t *testing.T, store task.Store, id int64) *task.Task {
	t.Helper()
	tk, err := store.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask(%d): %v", id, err)
	}
	return tk
}

func receive(t *testing.T, sub events.Subscriber) events.Event {
	t.Helper()
	select {
	case ev := <-sub:
		return ev
	default:
		t.Fatal("expected an event")
		return events.Event{}
	}
}

func drain(sub events.Subscriber) int {
	n := 0
	for {
		select {
		case <-sub:
			n++
		default:
			return n
		}
	}
}
