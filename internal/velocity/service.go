package velocity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/sentinel"
	"rangelog/pkg/requestcontext"
)

// Service orchestrates session capture. All operations are owner-scoped;
// ownership is checked at every read/write boundary.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens a new empty session for the owner.
func (s *Service) CreateSession(ctx context.Context, owner id.OwnerID, label string, bulletMassGrams *float64) (*Session, error) {
	session, err := NewSession(id.NewSessionID(), owner, label, bulletMassGrams, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "velocity session created",
			"session_id", session.ID, "owner_id", owner)
	}
	return session, nil
}

// NewReading carries the capture-time fields of a reading.
type NewReading struct {
	Shot      int
	Timestamp time.Time
	Speed     float64
	CleanBore bool
	ColdBore  bool
	Note      string
}

// AddReading appends a reading and recomputes cached statistics in one
// atomic session write.
func (s *Service) AddReading(ctx context.Context, owner id.OwnerID, sessionID id.SessionID, in NewReading) (*Session, error) {
	if in.Speed <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "speed must be positive")
	}
	if in.Timestamp.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "timestamp is required")
	}

	session, err := s.ownedSession(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}

	session.AppendReading(Reading{
		ID:        id.NewReadingID(),
		SessionID: session.ID,
		Shot:      in.Shot,
		Timestamp: in.Timestamp,
		Speed:     in.Speed,
		CleanBore: in.CleanBore,
		ColdBore:  in.ColdBore,
		Note:      in.Note,
	})
	session.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store reading")
	}
	return session, nil
}

// ReadingUpdate carries the only mutable reading fields.
type ReadingUpdate struct {
	CleanBore *bool
	ColdBore  *bool
	Note      *string
}

// UpdateReading changes flags or note on a captured reading. Speed, shot
// number and timestamp are immutable; there is no path that writes them.
func (s *Service) UpdateReading(ctx context.Context, owner id.OwnerID, sessionID id.SessionID, readingID id.ReadingID, update ReadingUpdate) (*Session, error) {
	session, err := s.ownedSession(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range session.Readings {
		if session.Readings[i].ID != readingID {
			continue
		}
		found = true
		if update.CleanBore != nil {
			session.Readings[i].CleanBore = *update.CleanBore
		}
		if update.ColdBore != nil {
			session.Readings[i].ColdBore = *update.ColdBore
		}
		if update.Note != nil {
			session.Readings[i].Note = *update.Note
		}
	}
	if !found {
		return nil, dErrors.New(dErrors.CodeNotFound, "reading not found")
	}

	session.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update reading")
	}
	return session, nil
}

// Get returns an owner's session, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, owner id.OwnerID, sessionID id.SessionID) (*Session, error) {
	session, err := s.ownedSession(ctx, owner, sessionID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// List returns all of an owner's sessions, newest first.
func (s *Service) List(ctx context.Context, owner id.OwnerID) ([]*Session, error) {
	sessions, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	return sessions, nil
}

func (s *Service) ownedSession(ctx context.Context, owner id.OwnerID, sessionID id.SessionID) (*Session, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.OwnerID != owner {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "session belongs to another owner")
	}
	return session, nil
}
