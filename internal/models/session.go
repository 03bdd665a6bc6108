package models

import "time"

// SessionStatus is the lifecycle state of a questionnaire session.
type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionCompleting SessionStatus = "completing"
	SessionCompleted  SessionStatus = "completed"
)

// Session tracks questionnaire progress between steps.
type Session struct {
	ID              string         `json:"sessionId"`
	UserName        string         `json:"userName"`
	Status          SessionStatus  `json:"status"`
	StartedAt       time.Time      `json:"startTime"`
	LastUpdated     time.Time      `json:"lastUpdated"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	CurrentStep     int            `json:"currentStep"`
	FormData        map[string]any `json:"formData,omitempty"`
	QuestionnaireID string         `json:"questionnaireId,omitempty"`
}

// IsActive reports whether the session still accepts progress updates.
func (s *Session) IsActive(now time.Time) bool {
	return s.Status == SessionActive && now.Before(s.ExpiresAt)
}
