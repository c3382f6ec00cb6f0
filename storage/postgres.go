package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bakerhealth/baker-api/models"
)

// Postgres stores links and score results in the bakersvc schema.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const linkColumns = "id, tenant_id, assessment_id, max_uses, uses_remaining, expires_at, status, secret_version, created_at"

// InsertLink durably records a new link. Issuance must not hand out a token
// before this returns.
func (p *Postgres) InsertLink(ctx context.Context, link *models.RespondentLink) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO bakersvc.respondent_link ("+linkColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		link.ID, link.TenantID, link.AssessmentID, link.MaxUses, link.UsesRemaining,
		nullableTime(link.ExpiresAt), string(link.Status), link.SecretVersion, link.CreatedAt)
	return err
}

// GetLink fetches a link within one tenant only.
func (p *Postgres) GetLink(ctx context.Context, tenantID, linkID string) (*models.RespondentLink, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM bakersvc.respondent_link WHERE tenant_id = $1 AND id = $2",
		tenantID, linkID)
	return scanLink(row)
}

// RedeemLink consumes one use as a single conditional update, so two
// concurrent redemptions can never both take the last use. Links with
// max_uses 0 are unlimited and never decrement.
func (p *Postgres) RedeemLink(ctx context.Context, tenantID, linkID string, now time.Time) (*models.RespondentLink, error) {
	row := p.db.QueryRowContext(ctx,
		`UPDATE bakersvc.respondent_link
		SET uses_remaining = CASE WHEN max_uses = 0 THEN uses_remaining ELSE uses_remaining - 1 END,
		    status = CASE WHEN max_uses <> 0 AND uses_remaining = 1 THEN 'EXHAUSTED' ELSE status END
		WHERE tenant_id = $1 AND id = $2 AND status = 'ACTIVE'
		  AND (expires_at IS NULL OR expires_at > $3)
		  AND (max_uses = 0 OR uses_remaining > 0)
		RETURNING `+linkColumns,
		tenantID, linkID, now)
	link, err := scanLink(row)
	if err == ErrNotFound {
		return nil, ErrNotRedeemable
	}
	return link, err
}

// ExpireLink marks an Active link Expired. Losing the race against a
// concurrent redeem or revoke is fine, so affected rows are not checked.
func (p *Postgres) ExpireLink(ctx context.Context, tenantID, linkID string) error {
	_, err := p.db.ExecContext(ctx,
		"UPDATE bakersvc.respondent_link SET status = 'EXPIRED' WHERE tenant_id = $1 AND id = $2 AND status = 'ACTIVE'",
		tenantID, linkID)
	return err
}

// RevokeLink marks a link Revoked regardless of its current state.
func (p *Postgres) RevokeLink(ctx context.Context, tenantID, linkID string) error {
	result, err := p.db.ExecContext(ctx,
		"UPDATE bakersvc.respondent_link SET status = 'REVOKED' WHERE tenant_id = $1 AND id = $2",
		tenantID, linkID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertScoreResult records one immutable score result.
func (p *Postgres) InsertScoreResult(ctx context.Context, result *models.ScoreResult) error {
	subscales, err := json.Marshal(result.SubscaleScores)
	if err != nil {
		return fmt.Errorf("encoding subscale scores: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO bakersvc.score_result
		(assessment_instance_id, tenant_id, link_id, framework_code, framework_version, subscale_scores, total_value, total_band, flags, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.AssessmentInstanceID, result.TenantID, result.LinkID, result.FrameworkCode,
		result.Version, subscales, result.Total.Value, result.Total.Band,
		pq.Array(result.Flags), result.ComputedAt)
	return err
}

// GetScoreResult fetches a score result within one tenant only.
func (p *Postgres) GetScoreResult(ctx context.Context, tenantID, instanceID string) (*models.ScoreResult, error) {
	result := models.ScoreResult{}
	var subscales []byte
	var flags []string
	err := p.db.QueryRowContext(ctx,
		`SELECT assessment_instance_id, tenant_id, link_id, framework_code, framework_version, subscale_scores, total_value, total_band, flags, computed_at
		FROM bakersvc.score_result WHERE tenant_id = $1 AND assessment_instance_id = $2`,
		tenantID, instanceID).Scan(
		&result.AssessmentInstanceID, &result.TenantID, &result.LinkID, &result.FrameworkCode,
		&result.Version, &subscales, &result.Total.Value, &result.Total.Band,
		pq.Array(&flags), &result.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(subscales, &result.SubscaleScores); err != nil {
		return nil, fmt.Errorf("decoding subscale scores: %w", err)
	}
	result.Flags = flags
	return &result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(row rowScanner) (*models.RespondentLink, error) {
	link := models.RespondentLink{}
	var expires sql.NullTime
	var status string
	err := row.Scan(&link.ID, &link.TenantID, &link.AssessmentID, &link.MaxUses,
		&link.UsesRemaining, &expires, &status, &link.SecretVersion, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		link.ExpiresAt = &t
	}
	link.Status = models.LinkStatus(status)
	return &link, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
