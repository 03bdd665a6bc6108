package handler

import (
	"net/http"

	"github.com/Dan9191/balancify/internal/models"
)

type sessionResponse struct {
	Session *models.Session `json:"session"`
	Token   string          `json:"token,omitempty"`
}

// CreateSession starts a questionnaire session and returns its token
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"userName"`
	}
	if err := decode(r, &req); err != nil && err != errEmptyBody {
		h.writeError(w, err)
		return
	}
	sess := h.store.Create(req.UserName)
	token, err := h.tokens.Issue(sess)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Infof("Session started: %s", sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{Session: sess, Token: token})
}

// CurrentSession returns the session of the bearer token
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(currentSession(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

// SaveProgress merges partial form data into the session
func (h *Handler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FormData    map[string]any `json:"formData"`
		CurrentStep int            `json:"currentStep"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	sess, err := h.store.SaveProgress(currentSession(r), req.FormData, req.CurrentStep)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

// CompleteSession submits the collected form data as a questionnaire and
// closes the session.
func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FormData map[string]any `json:"formData"`
	}
	if err := decode(r, &req); err != nil && err != errEmptyBody {
		h.writeError(w, err)
		return
	}
	id := currentSession(r)
	sess, err := h.store.BeginCompletion(id, req.FormData)
	if err != nil {
		h.writeError(w, err)
		return
	}

	userName := sess.UserName
	resp, err := h.svc.SubmitQuestionnaire(r.Context(), sess.FormData, &userName)
	if err != nil {
		if rerr := h.store.Reopen(id); rerr != nil {
			h.log.Warnf("Failed to reopen session %s: %v", id, rerr)
		}
		h.writeError(w, err)
		return
	}
	sess, err = h.store.Complete(id, resp.QuestionnaireID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "analysis": resp})
}

// EndSession discards the session
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.End(currentSession(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
