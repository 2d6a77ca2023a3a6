package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/events"
	"github.com/javiermolinar/daybook/internal/task"
)

type fixedResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Weekday    int    `json:"weekday"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Recurrence string `json:"recurrence"`
	Location   string `json:"location,omitempty"`
	Source     string `json:"source"`
}

func toFixedResponse(f *task.FixedSchedule) fixedResponse {
	return fixedResponse{
		ID:         f.ID,
		Title:      f.Title,
		Weekday:    int(f.Weekday),
		Start:      f.Start,
		End:        f.End,
		Recurrence: f.Recurrence,
		Location:   f.Location,
		Source:     string(f.Source),
	}
}

type fixedCreateRequest struct {
	Title    string `json:"title"`
	Weekday  int    `json:"weekday"` // 0=Sunday
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
}

func (a *API) handleFixedList(w http.ResponseWriter, r *http.Request) {
	fixed, err := a.store.ListFixed(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]fixedResponse, len(fixed))
	for i, f := range fixed {
		out[i] = toFixedResponse(f)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleFixedCreate(w http.ResponseWriter, r *http.Request) {
	var req fixedCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		a.fail(w, r, fmt.Errorf("%w: got %d", dateutil.ErrInvalidWeekday, req.Weekday))
		return
	}

	f, err := task.NewFixedSchedule(req.Title, time.Weekday(req.Weekday), req.Start, req.End, req.Location)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.CreateFixed(r.Context(), f); err != nil {
		a.fail(w, r, err)
		return
	}

	a.svc.Publish(events.EventScheduleUpdated, events.Payload{"source": "fixed", "fixed_id": f.ID})
	writeJSON(w, http.StatusCreated, toFixedResponse(f))
}

func (a *API) handleFixedDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.DeleteFixed(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	a.svc.Publish(events.EventScheduleUpdated, events.Payload{"source": "fixed", "fixed_id": id})
	w.WriteHeader(http.StatusNoContent)
}
