// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
)

const revokedKeyPrefix = "auth:revoked:"

// RevocationStore keeps logged out access tokens until they would have
// expired anyway. Only token hashes are stored.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type Marker interface {
	MarkUntil(ctx context.Context, key string, until time.Time) error
	IsMarked(ctx context.Context, key string) (bool, error)
}

type revocationStore struct {
	marks Marker
}

func NewRevocationStore(marks Marker) RevocationStore {
	return &revocationStore{marks: marks}
}

func (s *revocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if err := s.marks.MarkUntil(ctx, revocationKey(token), expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *revocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := s.marks.IsMarked(ctx, revocationKey(token))
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return revoked, nil
}

func revocationKey(token string) string {
	return revokedKeyPrefix + core.HashToken(token)
}
