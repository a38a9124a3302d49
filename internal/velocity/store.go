package velocity

import (
	"context"

	id "rangelog/pkg/domain"
)

// Store is the persistence contract for velocity sessions. Implementations
// return sentinel errors for infrastructure facts.
type Store interface {
	Create(ctx context.Context, session *Session) error
	// Update rewrites a session's readings and cached stats as one atomic write.
	Update(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*Session, error)
	ListByOwner(ctx context.Context, owner id.OwnerID) ([]*Session, error)
}
