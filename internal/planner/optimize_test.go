package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/task"
)

func optimizeFixture(t *testing.T, client *fakeLLM) (*Service, task.Store, *task.Task, *task.Task) {
	t.Helper()
	svc, store, _ := newTestService(t, client)
	mustFixed(t, store, "Standup", time.Monday, "10:00", "11:00")
	a := mustTask(t, store, "Design doc", "high", "1h")
	b := mustTask(t, store, "Read paper", "low", "30m")
	return svc, store, a, b
}

func validReply(a, b *task.Task) string {
	return fmt.Sprintf("```json\n[{\"id\": %d, \"scheduled_start\": \"11:00\", \"scheduled_end\": \"11:30\", \"reason\": \"after standup\"},"+
		" {\"id\": %d, \"scheduled_start\": \"09:00\", \"scheduled_end\": \"10:00\", \"reason\": \"focus\"}]\n```", b.ID, a.ID)
}

func overlappingReply(a *task.Task) string {
	return fmt.Sprintf(`[{"id": %d, "scheduled_start": "09:30", "scheduled_end": "10:30", "reason": "x"}]`, a.ID)
}

func TestOptimize_Valid(t *testing.T) {
	client := &fakeLLM{}
	svc, store, a, b := optimizeFixture(t, client)
	client.replies = []string{validReply(a, b)}
	sub := svc.Bus().Subscribe(events.EventScheduleUpdated)

	res, err := svc.Optimize(context.Background(), testNow, 2)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if len(res.Slots) != 2 || res.Slots[0].ID != a.ID {
		t.Fatalf("slots should be ordered by start: %+v", res.Slots)
	}
	if got := mustGet(t, store, a.ID); got.ScheduledStart != "09:00" || got.ScheduledEnd != "10:00" {
		t.Errorf("stored a = %s-%s", got.ScheduledStart, got.ScheduledEnd)
	}
	if got := mustGet(t, store, b.ID); got.ScheduledStart != "11:00" {
		t.Errorf("stored b start = %s", got.ScheduledStart)
	}
	if ev := receive(t, sub); ev.Payload["source"] != "optimize" {
		t.Errorf("unexpected payload: %v", ev.Payload)
	}

	prompt := client.calls[0][1].Content
	if !strings.Contains(prompt, "weekday 1 10:00-11:00 Standup") {
		t.Errorf("prompt missing fixed schedule:\n%s", prompt)
	}
}

func TestOptimize_RetriesWithFeedback(t *testing.T) {
	client := &fakeLLM{}
	svc, store, a, b := optimizeFixture(t, client)
	client.replies = []string{overlappingReply(a), validReply(a, b)}

	res, err := svc.Optimize(context.Background(), testNow, 2)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	if len(client.calls) != 2 {
		t.Fatalf("LLM calls = %d, want 2", len(client.calls))
	}

	retry := client.calls[1]
	if len(retry) != 4 {
		t.Fatalf("retry messages = %d, want 4", len(retry))
	}
	if retry[2].Role != "assistant" || retry[2].Content != overlappingReply(a) {
		t.Errorf("rejected reply not echoed: %+v", retry[2])
	}
	if !strings.Contains(retry[3].Content, "fixed schedule 'Standup'") {
		t.Errorf("feedback missing overlap: %q", retry[3].Content)
	}
	if !mustGet(t, store, a.ID).IsScheduled() {
		t.Error("accepted proposal should be stored")
	}
}

func TestOptimize_MaxRetriesExceeded(t *testing.T) {
	client := &fakeLLM{}
	svc, store, a, _ := optimizeFixture(t, client)
	client.replies = []string{overlappingReply(a)}

	res, err := svc.Optimize(context.Background(), testNow, 1)
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Fatalf("expected ErrMaxRetriesExceeded, got %v", err)
	}
	if res == nil || res.Attempts != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.ValidationErrors) == 0 || res.ValidationErrors[0].Field != "overlap" {
		t.Errorf("unexpected validation errors: %+v", res.ValidationErrors)
	}
	if mustGet(t, store, a.ID).IsScheduled() {
		t.Error("nothing may be stored when every attempt fails")
	}
}

func TestOptimize_RejectsSlotShorterThanEstimate(t *testing.T) {
	client := &fakeLLM{}
	svc, store, a, _ := optimizeFixture(t, client)
	client.replies = []string{
		fmt.Sprintf(`[{"id": %d, "scheduled_start": "09:00", "scheduled_end": "09:05"}]`, a.ID),
	}

	res, err := svc.Optimize(context.Background(), testNow, 0)
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Fatalf("expected ErrMaxRetriesExceeded, got %v", err)
	}
	if len(res.ValidationErrors) == 0 || res.ValidationErrors[0].Field != "scheduled_end" {
		t.Fatalf("unexpected validation errors: %+v", res.ValidationErrors)
	}
	if !strings.Contains(res.ValidationErrors[0].Message, "must be 60 minutes after start") {
		t.Errorf("message = %q", res.ValidationErrors[0].Message)
	}
	if mustGet(t, store, a.ID).IsScheduled() {
		t.Error("a slot that does not match the estimate must not be stored")
	}
}

func TestOptimize_NonJSONReplyIsRetried(t *testing.T) {
	client := &fakeLLM{}
	svc, _, a, b := optimizeFixture(t, client)
	client.replies = []string{"Sure! Here is a lovely plan.", validReply(a, b)}

	res, err := svc.Optimize(context.Background(), testNow, 1)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	if !strings.Contains(client.calls[1][3].Content, "json - reply is not a JSON array") {
		t.Errorf("unexpected feedback: %q", client.calls[1][3].Content)
	}
}

func TestOptimize_LLMError(t *testing.T) {
	client := &fakeLLM{err: errors.New("connection refused")}
	svc, _, _, _ := optimizeFixture(t, client)

	_, err := svc.Optimize(context.Background(), testNow, 3)
	if err == nil || errors.Is(err, ErrMaxRetriesExceeded) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(client.calls) != 1 {
		t.Errorf("transport errors must not be retried, got %d calls", len(client.calls))
	}
}

func TestOptimize_NoLLM(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	if _, err := svc.Optimize(context.Background(), testNow, 1); !errors.Is(err, ErrNoLLM) {
		t.Fatalf("expected ErrNoLLM, got %v", err)
	}
}

func TestOptimize_NothingToPlace(t *testing.T) {
	client := &fakeLLM{replies: []string{"[]"}}
	svc, _, _ := newTestService(t, client)

	res, err := svc.Optimize(context.Background(), testNow, 1)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(res.Slots) != 0 || len(client.calls) != 0 {
		t.Errorf("expected no LLM call, got %d", len(client.calls))
	}
}
