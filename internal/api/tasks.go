package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
)

type taskResponse struct {
	ID                int64      `json:"id"`
	Content           string     `json:"content"`
	Category          string     `json:"category"`
	Priority          string     `json:"priority"`
	EstimatedDuration string     `json:"estimated_duration"`
	Deadline          *string    `json:"deadline"`
	ScheduledDate     *string    `json:"scheduled_date"`
	ScheduledStart    string     `json:"scheduled_start,omitempty"`
	ScheduledEnd      string     `json:"scheduled_end,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at"`
}

func toTaskResponse(t *task.Task) taskResponse {
	resp := taskResponse{
		ID:                t.ID,
		Content:           t.Content,
		Category:          string(t.Category),
		Priority:          string(t.Priority),
		EstimatedDuration: t.EstimatedDuration,
		ScheduledStart:    t.ScheduledStart,
		ScheduledEnd:      t.ScheduledEnd,
		Status:            string(t.Status),
		CreatedAt:         t.CreatedAt,
		CompletedAt:       t.CompletedAt,
	}
	if t.Deadline != nil {
		d := t.Deadline.Format("2006-01-02T15:04:05")
		resp.Deadline = &d
	}
	if t.ScheduledDate != nil {
		d := dateutil.FormatDate(*t.ScheduledDate)
		resp.ScheduledDate = &d
	}
	return resp
}

func toTaskResponses(tasks []*task.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return out
}

type taskCreateRequest struct {
	Content           string `json:"content"`
	Category          string `json:"category"`
	Priority          string `json:"priority"`
	EstimatedDuration string `json:"estimated_duration"`
	Deadline          string `json:"deadline"`
}

// taskUpdateRequest fields left out of the body keep their value. An empty
// deadline clears it, and an empty scheduled_date unschedules the task.
type taskUpdateRequest struct {
	Content           *string `json:"content"`
	Category          *string `json:"category"`
	Priority          *string `json:"priority"`
	EstimatedDuration *string `json:"estimated_duration"`
	Deadline          *string `json:"deadline"`
	ScheduledDate     *string `json:"scheduled_date"`
	ScheduledStart    *string `json:"scheduled_start"`
	ScheduledEnd      *string `json:"scheduled_end"`
	Status            *string `json:"status"`
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return decodeJSON(r, dst)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", errBadRequest)
	}
	return id, nil
}

func (a *API) handleTasksList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f task.Filter

	if s := q.Get("status"); s != "" {
		f.Status = task.Status(s)
		if !f.Status.Valid() {
			a.fail(w, r, task.ErrInvalidStatus)
			return
		}
	}
	if s := q.Get("date"); s != "" {
		d, err := dateutil.ParseDate(s, a.now())
		if err != nil {
			a.fail(w, r, err)
			return
		}
		f.Date = &d
	}
	f.UnscheduledOnly = q.Get("unscheduled") == "true"
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			a.fail(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest))
			return
		}
		f.Limit = n
	}

	tasks, err := a.store.ListTasks(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (a *API) handleTasksCreate(w http.ResponseWriter, r *http.Request) {
	var req taskCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Priority == "" {
		req.Priority = string(task.PriorityMedium)
	}
	if req.EstimatedDuration == "" {
		req.EstimatedDuration = "1h"
	}

	t, err := task.New(req.Content, req.Category, req.Priority, req.EstimatedDuration, req.Deadline)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.CreateTask(r.Context(), t); err != nil {
		a.fail(w, r, err)
		return
	}

	a.svc.Publish(events.EventTaskAdded, events.Payload{"id": t.ID, "content": t.Content})
	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

func (a *API) handleTasksParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	t, err := a.svc.AddFromText(r.Context(), req.Text)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

func (a *API) handleTasksGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.store.GetTask(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

func (a *API) handleTasksUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req taskUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	t, err := a.store.GetTask(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := applyUpdate(t, req, a.now()); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.UpdateTask(r.Context(), t); err != nil {
		a.fail(w, r, err)
		return
	}

	a.svc.Publish(events.EventTaskUpdated, events.Payload{"id": t.ID})
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// applyUpdate validates req and copies it onto t.
func applyUpdate(t *task.Task, req taskUpdateRequest, now time.Time) error {
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return task.ErrEmptyContent
		}
		t.Content = content
	}
	if req.Category != nil {
		c, err := task.ParseCategory(*req.Category)
		if err != nil {
			return err
		}
		t.Category = c
	}
	if req.Priority != nil {
		p, err := scheduler.ParsePriority(*req.Priority)
		if err != nil {
			return err
		}
		t.Priority = p
	}
	if req.EstimatedDuration != nil {
		if _, err := scheduler.ParseDuration(*req.EstimatedDuration); err != nil {
			return err
		}
		t.EstimatedDuration = *req.EstimatedDuration
	}
	if req.Deadline != nil {
		t.Deadline = nil
		if *req.Deadline != "" {
			d, err := dateutil.ParseDeadline(*req.Deadline, now)
			if err != nil {
				return err
			}
			t.Deadline = &d
		}
	}

	if req.ScheduledDate != nil {
		if *req.ScheduledDate == "" {
			t.ScheduledDate, t.ScheduledStart, t.ScheduledEnd = nil, "", ""
		} else {
			d, err := dateutil.ParseDate(*req.ScheduledDate, now)
			if err != nil {
				return err
			}
			t.ScheduledDate = &d
		}
	}
	if req.ScheduledStart != nil {
		t.ScheduledStart = *req.ScheduledStart
	}
	if req.ScheduledEnd != nil {
		t.ScheduledEnd = *req.ScheduledEnd
	}
	if t.ScheduledDate != nil {
		if _, err := t.Interval(); err != nil {
			return err
		}
	} else if t.ScheduledStart != "" || t.ScheduledEnd != "" {
		return fmt.Errorf("%w: scheduled_start and scheduled_end need a scheduled_date", errBadRequest)
	}

	if req.Status != nil {
		switch s := task.Status(*req.Status); s {
		case task.StatusCompleted:
			if !t.IsCompleted() {
				t.Complete(now)
			}
		case task.StatusPending:
			t.Status = task.StatusPending
			t.CompletedAt = nil
		default:
			return task.ErrInvalidStatus
		}
	}
	return nil
}

func (a *API) handleTasksDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.DeleteTask(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.svc.Publish(events.EventTaskDeleted, events.Payload{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleTasksComplete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.CompleteTask(r.Context(), id, a.now()); err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.store.GetTask(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.svc.Publish(events.EventTaskCompleted, events.Payload{"id": id, "content": t.Content})
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}
