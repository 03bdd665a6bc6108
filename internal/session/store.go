// Package session keeps questionnaire progress between steps. Sessions live
// in memory for a fixed TTL and are addressed by signed tokens.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a session survives without completion.
const DefaultTTL = 24 * time.Hour

var (
	ErrNotFound = errors.New("session not found")
	ErrInactive = errors.New("session is no longer active")
)

// Store is an in-memory session store with expiry.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
	// mu guards the stored session values.
	mu sync.Mutex
}

// NewStore creates a store whose sessions expire after ttl.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache: cache.New(ttl, ttl/2),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create starts a new active session.
func (s *Store) Create(userName string) *models.Session {
	now := s.now()
	name := strings.TrimSpace(userName)
	if name == "" {
		name = "Guest"
	}
	sess := &models.Session{
		ID:          uuid.NewString(),
		UserName:    name,
		Status:      models.SessionActive,
		StartedAt:   now,
		LastUpdated: now,
		ExpiresAt:   now.Add(s.ttl),
		CurrentStep: 1,
		FormData:    map[string]any{},
	}
	s.cache.Set(sess.ID, sess, s.ttl)
	return copySession(sess)
}

// Get returns a copy of the session, active or completed.
func (s *Store) Get(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return copySession(sess), nil
}

// SaveProgress merges formData into the session and moves it to step.
func (s *Store) SaveProgress(id string, formData map[string]any, step int) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadActive(id)
	if err != nil {
		return nil, err
	}
	for k, v := range formData {
		sess.FormData[k] = v
	}
	if step > 0 {
		sess.CurrentStep = step
	}
	sess.LastUpdated = s.now()
	return copySession(sess), nil
}

// BeginCompletion merges formData and claims the session for submission.
// Only one caller can claim a session; later callers get ErrInactive until
// the claim is released by Complete or Reopen.
func (s *Store) BeginCompletion(id string, formData map[string]any) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadActive(id)
	if err != nil {
		return nil, err
	}
	for k, v := range formData {
		sess.FormData[k] = v
	}
	sess.Status = models.SessionCompleting
	sess.LastUpdated = s.now()
	return copySession(sess), nil
}

// Complete links a claimed session to the questionnaire it produced and
// closes it.
func (s *Store) Complete(id, questionnaireID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadCompleting(id)
	if err != nil {
		return nil, err
	}
	sess.Status = models.SessionCompleted
	sess.QuestionnaireID = questionnaireID
	sess.LastUpdated = s.now()
	return copySession(sess), nil
}

// Reopen releases a claim after a failed submission so the session accepts
// progress again.
func (s *Store) Reopen(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadCompleting(id)
	if err != nil {
		return err
	}
	sess.Status = models.SessionActive
	sess.LastUpdated = s.now()
	return nil
}

// End removes the session.
func (s *Store) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(id); err != nil {
		return err
	}
	s.cache.Delete(id)
	return nil
}

// Count reports the number of live sessions.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}

func (s *Store) load(id string) (*models.Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	sess := v.(*models.Session)
	if !s.now().Before(sess.ExpiresAt) {
		s.cache.Delete(id)
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

func (s *Store) loadActive(id string) (*models.Session, error) {
	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive(s.now()) {
		return nil, fmt.Errorf("session %s: %w", id, ErrInactive)
	}
	return sess, nil
}

func (s *Store) loadCompleting(id string) (*models.Session, error) {
	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionCompleting {
		return nil, fmt.Errorf("session %s: %w", id, ErrInactive)
	}
	return sess, nil
}

func copySession(sess *models.Session) *models.Session {
	c := *sess
	c.FormData = make(map[string]any, len(sess.FormData))
	for k, v := range sess.FormData {
		c.FormData[k] = v
	}
	return &c
}
