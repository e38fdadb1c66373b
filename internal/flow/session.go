package flow

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/cvbuilder/internal/cv"
)

// ErrSessionNotFound is returned by a Store when the user has no session.
var ErrSessionNotFound = errors.New("session not found")

// Session is the persisted per-user conversation state.
type Session struct {
	UserID string `json:"user_id"`
	State  State  `json:"state"`
	// Cursor indexes the section catalog; catalog.Len() means collection is complete.
	Cursor    int        `json:"cursor"`
	Record    *cv.Record `json:"cv_record,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store persists sessions keyed by user id.
type Store interface {
	Load(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
}
