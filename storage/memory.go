package storage

import (
	"context"
	"sync"
	"time"

	"github.com/bakerhealth/baker-api/models"
)

// Memory is a mutex-guarded in-memory Store with the same redemption
// semantics as Postgres. Used in tests and local development.
type Memory struct {
	mu     sync.Mutex
	links  map[string]*models.RespondentLink
	scores map[string]*models.ScoreResult
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		links:  map[string]*models.RespondentLink{},
		scores: map[string]*models.ScoreResult{},
	}
}

func key(tenantID, id string) string {
	return tenantID + "/" + id
}

func (m *Memory) InsertLink(_ context.Context, link *models.RespondentLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *link
	m.links[key(link.TenantID, link.ID)] = &copied
	return nil
}

func (m *Memory) GetLink(_ context.Context, tenantID, linkID string) (*models.RespondentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[key(tenantID, linkID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *link
	return &copied, nil
}

// RedeemLink checks and decrements under one lock, mirroring the conditional
// UPDATE the Postgres store issues.
func (m *Memory) RedeemLink(_ context.Context, tenantID, linkID string, now time.Time) (*models.RespondentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[key(tenantID, linkID)]
	if !ok {
		return nil, ErrNotFound
	}
	if link.Status != models.LinkActive {
		return nil, ErrNotRedeemable
	}
	if link.ExpiresAt != nil && !now.Before(*link.ExpiresAt) {
		return nil, ErrNotRedeemable
	}
	if link.MaxUses != 0 {
		if link.UsesRemaining <= 0 {
			return nil, ErrNotRedeemable
		}
		link.UsesRemaining--
		if link.UsesRemaining == 0 {
			link.Status = models.LinkExhausted
		}
	}
	copied := *link
	return &copied, nil
}

func (m *Memory) ExpireLink(_ context.Context, tenantID, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link, ok := m.links[key(tenantID, linkID)]; ok && link.Status == models.LinkActive {
		link.Status = models.LinkExpired
	}
	return nil
}

func (m *Memory) RevokeLink(_ context.Context, tenantID, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[key(tenantID, linkID)]
	if !ok {
		return ErrNotFound
	}
	link.Status = models.LinkRevoked
	return nil
}

func (m *Memory) InsertScoreResult(_ context.Context, result *models.ScoreResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *result
	m.scores[key(result.TenantID, result.AssessmentInstanceID)] = &copied
	return nil
}

func (m *Memory) GetScoreResult(_ context.Context, tenantID, instanceID string) (*models.ScoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.scores[key(tenantID, instanceID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *result
	return &copied, nil
}
