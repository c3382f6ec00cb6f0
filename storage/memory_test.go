package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bakerhealth/baker-api/models"
)

func activeLink(id, tenantID string, maxUses int) *models.RespondentLink {
	return &models.RespondentLink{
		ID:            id,
		TenantID:      tenantID,
		AssessmentID:  "aba-core",
		MaxUses:       maxUses,
		UsesRemaining: maxUses,
		Status:        models.LinkActive,
		SecretVersion: "v1",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestMemoryInsertAndGetLink(t *testing.T) {
	store := NewMemory()
	link := activeLink("link-1", "tenant-1", 3)
	assert.Nil(t, store.InsertLink(context.Background(), link))

	got, err := store.GetLink(context.Background(), "tenant-1", "link-1")
	assert.Nil(t, err)
	assert.Equal(t, *link, *got)

	// Mutating the returned copy must not touch the stored record
	got.Status = models.LinkRevoked
	again, err := store.GetLink(context.Background(), "tenant-1", "link-1")
	assert.Nil(t, err)
	assert.Equal(t, models.LinkActive, again.Status)
}

func TestMemoryGetLinkIsTenantScoped(t *testing.T) {
	store := NewMemory()
	assert.Nil(t, store.InsertLink(context.Background(), activeLink("link-1", "tenant-1", 3)))

	_, err := store.GetLink(context.Background(), "tenant-2", "link-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRedeemDecrementsToExhausted(t *testing.T) {
	store := NewMemory()
	assert.Nil(t, store.InsertLink(context.Background(), activeLink("link-1", "tenant-1", 2)))
	now := time.Now()

	link, err := store.RedeemLink(context.Background(), "tenant-1", "link-1", now)
	assert.Nil(t, err)
	assert.Equal(t, 1, link.UsesRemaining)
	assert.Equal(t, models.LinkActive, link.Status)

	link, err = store.RedeemLink(context.Background(), "tenant-1", "link-1", now)
	assert.Nil(t, err)
	assert.Equal(t, 0, link.UsesRemaining)
	assert.Equal(t, models.LinkExhausted, link.Status)

	_, err = store.RedeemLink(context.Background(), "tenant-1", "link-1", now)
	assert.ErrorIs(t, err, ErrNotRedeemable)
}

func TestMemoryRedeemUnlimitedLinkNeverDecrements(t *testing.T) {
	store := NewMemory()
	assert.Nil(t, store.InsertLink(context.Background(), activeLink("link-1", "tenant-1", 0)))
	now := time.Now()

	for i := 0; i < 100; i++ {
		link, err := store.RedeemLink(context.Background(), "tenant-1", "link-1", now)
		assert.Nil(t, err)
		assert.Equal(t, 0, link.UsesRemaining)
		assert.Equal(t, models.LinkActive, link.Status)
	}
}

func TestMemoryRedeemRefusesExpiredLink(t *testing.T) {
	store := NewMemory()
	link := activeLink("link-1", "tenant-1", 3)
	expires := time.Now().Add(-time.Minute)
	link.ExpiresAt = &expires
	assert.Nil(t, store.InsertLink(context.Background(), link))

	_, err := store.RedeemLink(context.Background(), "tenant-1", "link-1", time.Now())
	assert.ErrorIs(t, err, ErrNotRedeemable)
}

func TestMemoryRedeemRefusesRevokedLink(t *testing.T) {
	store := NewMemory()
	assert.Nil(t, store.InsertLink(context.Background(), activeLink("link-1", "tenant-1", 3)))
	assert.Nil(t, store.RevokeLink(context.Background(), "tenant-1", "link-1"))

	_, err := store.RedeemLink(context.Background(), "tenant-1", "link-1", time.Now())
	assert.ErrorIs(t, err, ErrNotRedeemable)
}

func TestMemoryConcurrentRedeemsOfLastUseHaveOneWinner(t *testing.T) {
	store := NewMemory()
	assert.Nil(t, store.InsertLink(context.Background(), activeLink("link-1", "tenant-1", 1)))
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.RedeemLink(context.Background(), "tenant-1", "link-1", now); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	link, err := store.GetLink(context.Background(), "tenant-1", "link-1")
	assert.Nil(t, err)
	assert.Equal(t, 0, link.UsesRemaining)
	assert.Equal(t, models.LinkExhausted, link.Status)
}

func TestMemoryExpireOnlyTransitionsActiveLinks(t *testing.T) {
	store := NewMemory()
	assert.Nil(t, store.InsertLink(context.Background(), activeLink("link-1", "tenant-1", 3)))
	assert.Nil(t, store.RevokeLink(context.Background(), "tenant-1", "link-1"))

	assert.Nil(t, store.ExpireLink(context.Background(), "tenant-1", "link-1"))
	link, err := store.GetLink(context.Background(), "tenant-1", "link-1")
	assert.Nil(t, err)
	assert.Equal(t, models.LinkRevoked, link.Status)
}

func TestMemoryRevokeMissingLink(t *testing.T) {
	store := NewMemory()
	err := store.RevokeLink(context.Background(), "tenant-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryScoreResultRoundTrip(t *testing.T) {
	store := NewMemory()
	result := &models.ScoreResult{
		AssessmentInstanceID: "instance-1",
		TenantID:             "tenant-1",
		LinkID:               "link-1",
		FrameworkCode:        "ABA",
		Version:              1,
		SubscaleScores: map[string]models.SubscaleScore{
			"communication": {Value: 9, Band: "Moderate"},
		},
		Total:      models.SubscaleScore{Value: 12, Band: "Some support"},
		Flags:      []string{},
		ComputedAt: time.Now().UTC(),
	}
	assert.Nil(t, store.InsertScoreResult(context.Background(), result))

	got, err := store.GetScoreResult(context.Background(), "tenant-1", "instance-1")
	assert.Nil(t, err)
	assert.Equal(t, *result, *got)

	_, err = store.GetScoreResult(context.Background(), "tenant-2", "instance-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
