package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/javiermolinar/daybook/internal/dateutil"
	"github.com/javiermolinar/daybook/internal/llm"
	"github.com/javiermolinar/daybook/internal/planner"
	"github.com/javiermolinar/daybook/internal/scheduler"
	"github.com/javiermolinar/daybook/internal/task"
)

type dateRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, "today" or "tomorrow"; empty means today
}

// parseDay resolves s relative to now. Empty input means today.
func (a *API) parseDay(s string) (time.Time, error) {
	now := a.now()
	if s == "" {
		return dateutil.TruncateToDay(now), nil
	}
	return dateutil.ParseDate(s, now)
}

type placementResponse struct {
	Task  taskResponse `json:"task"`
	Start string       `json:"start"`
	End   string       `json:"end"`
}

type leftoverResponse struct {
	Task   taskResponse `json:"task"`
	Reason string       `json:"reason"`
}

type autoResponse struct {
	Date        string              `json:"date"`
	Window      string              `json:"window"`
	Scheduled   []placementResponse `json:"scheduled"`
	Unscheduled []leftoverResponse  `json:"unscheduled"`
}

func (a *API) handleScheduleAuto(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	date, err := a.parseDay(req.Date)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	report, err := a.svc.AutoSchedule(r.Context(), date)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	resp := autoResponse{
		Date:        dateutil.FormatDate(report.Date),
		Window:      scheduler.Interval{Start: report.Window.Start, End: report.Window.End}.String(),
		Scheduled:   make([]placementResponse, 0, len(report.Scheduled)),
		Unscheduled: make([]leftoverResponse, 0, len(report.Unscheduled)),
	}
	for _, p := range report.Scheduled {
		resp.Scheduled = append(resp.Scheduled, placementResponse{Task: toTaskResponse(p.Task), Start: p.Start, End: p.End})
	}
	for _, l := range report.Unscheduled {
		resp.Unscheduled = append(resp.Unscheduled, leftoverResponse{Task: toTaskResponse(l.Task), Reason: l.Reason})
	}
	writeJSON(w, http.StatusOK, resp)
}

type optimizeResponse struct {
	Date             string             `json:"date"`
	Attempts         int                `json:"attempts"`
	Slots            []llm.ProposedSlot `json:"slots"`
	ValidationErrors []string           `json:"validation_errors,omitempty"`
}

func (a *API) handleScheduleOptimize(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	date, err := a.parseDay(req.Date)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	result, err := a.svc.Optimize(r.Context(), date, a.maxRetries)
	if err != nil && !(errors.Is(err, planner.ErrMaxRetriesExceeded) && result != nil) {
		a.fail(w, r, err)
		return
	}

	resp := optimizeResponse{
		Date:     dateutil.FormatDate(result.Date),
		Attempts: result.Attempts,
		Slots:    result.Slots,
	}
	if resp.Slots == nil {
		resp.Slots = []llm.ProposedSlot{}
	}
	if err != nil {
		for _, v := range result.ValidationErrors {
			resp.ValidationErrors = append(resp.ValidationErrors, v.String())
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	reply, err := a.svc.Chat(r.Context(), req.Message)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (a *API) handleGreetingMorning(w http.ResponseWriter, r *http.Request) {
	msg, err := a.svc.MorningGreeting(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (a *API) handleGreetingSleep(w http.ResponseWriter, r *http.Request) {
	msg, err := a.svc.SleepReview(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type reminderResponse struct {
	Task    taskResponse `json:"task"`
	Message string       `json:"message"`
}

func (a *API) handleReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := a.svc.TaskStartReminders(r.Context(), a.now())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, reminderResponse{Task: toTaskResponse(rem.Task), Message: rem.Message})
	}
	writeJSON(w, http.StatusOK, out)
}

type summaryResponse struct {
	Date             string                `json:"date"`
	Total            int                   `json:"total"`
	Completed        int                   `json:"completed"`
	Pending          int                   `json:"pending"`
	PendingOverall   int                   `json:"pending_overall"`
	ScheduledMinutes int                   `json:"scheduled_minutes"`
	CompletedMinutes int                   `json:"completed_minutes"`
	ByCategory       map[task.Category]int `json:"by_category"`
	ByPriority       map[task.Priority]int `json:"by_priority"`
	Tasks            []taskResponse        `json:"tasks"`
	Insight          string                `json:"insight,omitempty"`
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := a.parseDay(q.Get("date"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	insight := false
	if s := q.Get("insight"); s != "" {
		if insight, err = strconv.ParseBool(s); err != nil {
			a.fail(w, r, errors.Join(errBadRequest, err))
			return
		}
	}

	day, err := a.svc.DaySummary(r.Context(), date, insight)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Date:             dateutil.FormatDate(day.Date),
		Total:            day.Stats.Total,
		Completed:        day.Stats.Completed,
		Pending:          day.Stats.Pending,
		PendingOverall:   day.Stats.PendingOverall,
		ScheduledMinutes: day.Stats.ScheduledMinutes,
		CompletedMinutes: day.Stats.CompletedMinutes,
		ByCategory:       day.Stats.ByCategory,
		ByPriority:       day.Stats.ByPriority,
		Tasks:            toTaskResponses(day.Tasks),
		Insight:          day.Insight,
	})
}
