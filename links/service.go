// Package links owns the respondent link lifecycle: issuing capability
// tokens bound to a persisted link record, and resolving or redeeming
// presented tokens against that record's live state.
package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bakerhealth/baker-api/models"
	"github.com/bakerhealth/baker-api/storage"
	"github.com/bakerhealth/baker-api/tokens"
)

var (
	// ErrInvalidPolicy means the issue request's usage policy is unusable
	ErrInvalidPolicy = errors.New("invalid link policy")
	// ErrInvalidToken means the presented token is malformed or its signature fails
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired means the token-level expiry has passed, independent of the link
	ErrTokenExpired = errors.New("token expired")
	// ErrUnknownSecretVersion means the token was signed under a version rotated out entirely
	ErrUnknownSecretVersion = tokens.ErrUnknownSecretVersion
	// ErrLinkNotFound means no link record exists under the token's tenant and id
	ErrLinkNotFound = errors.New("link not found")
	// ErrLinkExpired means the link outlived its own expiry
	ErrLinkExpired = errors.New("link expired")
	// ErrLinkExhausted means every permitted use has been consumed
	ErrLinkExhausted = errors.New("link exhausted")
	// ErrLinkRevoked means the link was explicitly withdrawn
	ErrLinkRevoked = errors.New("link revoked")
)

// Policy is the usage policy for a new link. Unlimited overrides MaxUses;
// a zero TTL means the link itself never expires.
type Policy struct {
	MaxUses   int
	Unlimited bool
	TTL       time.Duration
}

// Service issues, resolves and redeems respondent links.
type Service struct {
	store    storage.Store
	codec    *tokens.Codec
	tokenTTL time.Duration
	now      func() time.Time
}

// NewService wires the issuer/redeemer to its store and codec. tokenTTL is
// the token-level expiry applied at issuance, separate from any link expiry.
func NewService(store storage.Store, codec *tokens.Codec, tokenTTL time.Duration) *Service {
	return &Service{store: store, codec: codec, tokenTTL: tokenTTL, now: time.Now}
}

// Issue validates the policy, durably records a new Active link, and only
// then mints its token. A token must never exist for a link that is not
// persisted, or a crash would leave an unrevokable credential in the wild.
func (s *Service) Issue(ctx context.Context, tenantID, assessmentID string, policy Policy) (*models.RespondentLink, string, error) {
	if tenantID == "" || assessmentID == "" {
		return nil, "", fmt.Errorf("%w: tenant and assessment are required", ErrInvalidPolicy)
	}
	if !policy.Unlimited && policy.MaxUses < 1 {
		return nil, "", fmt.Errorf("%w: maxUses must be at least 1 unless unlimited", ErrInvalidPolicy)
	}
	if policy.TTL < 0 {
		return nil, "", fmt.Errorf("%w: ttl must be positive", ErrInvalidPolicy)
	}

	now := s.now().UTC()
	maxUses := policy.MaxUses
	if policy.Unlimited {
		maxUses = 0
	}
	link := &models.RespondentLink{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		AssessmentID:  assessmentID,
		MaxUses:       maxUses,
		UsesRemaining: maxUses,
		Status:        models.LinkActive,
		SecretVersion: s.codec.CurrentVersion,
		CreatedAt:     now,
	}
	if policy.TTL > 0 {
		expires := now.Add(policy.TTL)
		link.ExpiresAt = &expires
	}

	if err := s.store.InsertLink(ctx, link); err != nil {
		return nil, "", fmt.Errorf("storing link: %w", err)
	}

	token, err := s.codec.Encode(tokens.NewClaims(link.ID, tenantID, assessmentID, now, now.Add(s.tokenTTL)))
	if err != nil {
		return nil, "", fmt.Errorf("minting token: %w", err)
	}
	return link, token, nil
}

// Resolve validates a token and the link behind it without consuming a use,
// so a respondent can preview an assessment safely.
func (s *Service) Resolve(ctx context.Context, token string) (*models.AssessmentRef, error) {
	claims, err := s.decode(token)
	if err != nil {
		return nil, err
	}
	link, err := s.store.GetLink(ctx, claims.TenantID, claims.LinkID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if err := s.classify(ctx, link); err != nil {
		return nil, err
	}
	return ref(link), nil
}

// Redeem validates a token and atomically consumes one use of its link.
// The decrement is a single conditional update, so concurrent redemptions
// of the last use cannot both succeed.
func (s *Service) Redeem(ctx context.Context, token string) (*models.AssessmentRef, error) {
	claims, err := s.decode(token)
	if err != nil {
		return nil, err
	}
	link, err := s.store.RedeemLink(ctx, claims.TenantID, claims.LinkID, s.now().UTC())
	if err == nil {
		return ref(link), nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if !errors.Is(err, storage.ErrNotRedeemable) {
		return nil, err
	}

	// The conditional update matched nothing; re-read to report why.
	link, err = s.store.GetLink(ctx, claims.TenantID, claims.LinkID)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	if err := s.classify(ctx, link); err != nil {
		return nil, err
	}
	return nil, ErrLinkExhausted
}

// Revoke terminally withdraws a link within its tenant.
func (s *Service) Revoke(ctx context.Context, tenantID, linkID string) error {
	err := s.store.RevokeLink(ctx, tenantID, linkID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrLinkNotFound
	}
	return err
}

// Get fetches a link for clinician inspection within its tenant.
func (s *Service) Get(ctx context.Context, tenantID, linkID string) (*models.RespondentLink, error) {
	link, err := s.store.GetLink(ctx, tenantID, linkID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	return link, err
}

func (s *Service) decode(token string) (*tokens.Claims, error) {
	claims, err := s.codec.Decode(token)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, tokens.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, tokens.ErrUnknownSecretVersion):
		return nil, ErrUnknownSecretVersion
	default:
		return nil, ErrInvalidToken
	}
}

// classify maps a link's live state onto the error a resolver should report,
// lazily persisting Expired when an Active link's expiry has passed.
func (s *Service) classify(ctx context.Context, link *models.RespondentLink) error {
	switch link.Status {
	case models.LinkRevoked:
		return ErrLinkRevoked
	case models.LinkExpired:
		return ErrLinkExpired
	case models.LinkExhausted:
		return ErrLinkExhausted
	}
	if link.ExpiresAt != nil && !s.now().UTC().Before(*link.ExpiresAt) {
		if err := s.store.ExpireLink(ctx, link.TenantID, link.ID); err != nil {
			return err
		}
		return ErrLinkExpired
	}
	if link.MaxUses != 0 && link.UsesRemaining <= 0 {
		return ErrLinkExhausted
	}
	return nil
}

func ref(link *models.RespondentLink) *models.AssessmentRef {
	return &models.AssessmentRef{
		TenantID:     link.TenantID,
		AssessmentID: link.AssessmentID,
		LinkID:       link.ID,
	}
}
