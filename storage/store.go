// Package storage persists respondent links and score results. Every lookup
// is keyed by tenant as well as id, so cross-tenant reads are impossible by
// construction rather than by policy.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bakerhealth/baker-api/models"
)

var (
	// ErrNotFound means no record exists under that tenant and id
	ErrNotFound = errors.New("record not found")
	// ErrNotRedeemable means the conditional redemption update matched no row:
	// the link is inactive, expired or out of uses. The caller re-reads the
	// record to find out which.
	ErrNotRedeemable = errors.New("link not redeemable")
)

// Store is what the core needs from persistence: insert, tenant-scoped get,
// and a compare-and-swap update for redemption. No specific engine implied.
type Store interface {
	InsertLink(ctx context.Context, link *models.RespondentLink) error
	GetLink(ctx context.Context, tenantID, linkID string) (*models.RespondentLink, error)

	// RedeemLink atomically consumes one use: the decrement happens only if
	// the link is still Active, unexpired at now, and has uses left.
	// Concurrent calls against the last use must not both succeed.
	RedeemLink(ctx context.Context, tenantID, linkID string, now time.Time) (*models.RespondentLink, error)

	// ExpireLink lazily transitions an Active link whose expiry has passed.
	ExpireLink(ctx context.Context, tenantID, linkID string) error

	// RevokeLink is terminal and overrides every other state.
	RevokeLink(ctx context.Context, tenantID, linkID string) error

	InsertScoreResult(ctx context.Context, result *models.ScoreResult) error
	GetScoreResult(ctx context.Context, tenantID, instanceID string) (*models.ScoreResult, error)
}
