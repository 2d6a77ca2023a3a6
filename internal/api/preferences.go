package api

import (
	"net/http"

	"github.com/javiermolinar/daybook/internal/task"
)

type preferencesBody struct {
	WorkStart            string `json:"work_start"`
	WorkEnd              string `json:"work_end"`
	BreakDuration        string `json:"break_duration"`
	FocusPreference      string `json:"focus_preference"`
	EnableMainChat       bool   `json:"enable_main_chat"`
	SleepReminderTime    string `json:"sleep_reminder_time"`
	AutoRescheduleOnDrag bool   `json:"auto_reschedule_on_drag"`
}

func toPreferencesBody(p task.Preferences) preferencesBody {
	return preferencesBody(p)
}

func (a *API) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetPreferences(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesBody(p))
}

// handlePreferencesUpdate decodes the body over the stored preferences, so
// a partial document only changes the fields it names.
func (a *API) handlePreferencesUpdate(w http.ResponseWriter, r *http.Request) {
	current, err := a.store.GetPreferences(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	body := toPreferencesBody(current)
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}

	p := task.Preferences(body)
	if err := a.store.UpdatePreferences(r.Context(), p); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesBody(p))
}
