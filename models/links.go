package models

import "time"

// LinkStatus is the lifecycle state of a respondent link. EXHAUSTED, EXPIRED
// and REVOKED are terminal.
type LinkStatus string

const (
	// LinkActive means the link can still be resolved and redeemed
	LinkActive LinkStatus = "ACTIVE"
	// LinkExhausted means every permitted use has been consumed
	LinkExhausted LinkStatus = "EXHAUSTED"
	// LinkExpired means the link outlived its expiry timestamp
	LinkExpired LinkStatus = "EXPIRED"
	// LinkRevoked means a clinician explicitly withdrew the link
	LinkRevoked LinkStatus = "REVOKED"
)

type (
	// RespondentLink is the persisted record behind a respondent capability token.
	// TenantID and AssessmentID are fixed at creation. MaxUses of 0 means unlimited.
	RespondentLink struct {
		ID            string     `json:"id"`
		TenantID      string     `json:"tenantId"`
		AssessmentID  string     `json:"assessmentId"`
		MaxUses       int        `json:"maxUses"`
		UsesRemaining int        `json:"usesRemaining"`
		ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
		Status        LinkStatus `json:"status"`
		SecretVersion string     `json:"secretVersion"`
		CreatedAt     time.Time  `json:"createdAt"`
	}

	// PostLink represents the request body for 'POST /links'
	PostLink struct {
		TenantID     string `json:"tenantId"`
		AssessmentID string `json:"assessmentId"`
		MaxUses      int    `json:"maxUses"`
		Unlimited    bool   `json:"unlimited"`
		TTL          string `json:"ttl"`
	}

	// LinkResponse represents the response from link management endpoints.
	// Token is only populated on issuance.
	LinkResponse struct {
		Data  RespondentLink `json:"data"`
		Token string         `json:"token,omitempty"`
	}

	// TokenRequest represents the request body for the respondent-facing
	// resolve and redeem endpoints
	TokenRequest struct {
		Token string `json:"token"`
	}

	// AssessmentRef is what a respondent gets back for a valid token: the
	// assessment their link is bound to, and nothing belonging to anyone else
	AssessmentRef struct {
		TenantID     string `json:"tenantId"`
		AssessmentID string `json:"assessmentId"`
		LinkID       string `json:"linkId"`
	}

	// AssessmentRefResponse represents the response from 'POST /respondent/resolve'
	// and 'POST /respondent/redeem'
	AssessmentRefResponse struct {
		Data AssessmentRef `json:"data"`
	}
)
