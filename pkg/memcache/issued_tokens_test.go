package mem

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch(surveyID uuid.UUID) IssuedBatch {
	return IssuedBatch{
		BatchID:   uuid.New(),
		SurveyID:  surveyID,
		Tokens:    []string{"aa", "bb"},
		CreatedAt: time.Now(),
	}
}

func TestIssuedTokens_ConsumeOnce(t *testing.T) {
	store := NewIssuedTokens()
	batch := newBatch(uuid.New())
	store.Set(batch, time.Minute)

	got, ok := store.Consume(batch.BatchID)
	require.True(t, ok)
	assert.Equal(t, []string{"aa", "bb"}, got.Tokens)

	_, ok = store.Consume(batch.BatchID)
	assert.False(t, ok)
}

func TestIssuedTokens_Expired(t *testing.T) {
	store := NewIssuedTokens()
	now := time.Now()
	store.now = func() time.Time { return now }

	batch := newBatch(uuid.New())
	store.Set(batch, time.Minute)

	now = now.Add(2 * time.Minute)
	_, ok := store.Consume(batch.BatchID)
	assert.False(t, ok)
}

func TestIssuedTokens_PendingAndPurge(t *testing.T) {
	store := NewIssuedTokens()
	now := time.Now()
	store.now = func() time.Time { return now }

	surveyID := uuid.New()
	fresh := newBatch(surveyID)
	stale := newBatch(surveyID)
	other := newBatch(uuid.New())
	store.Set(stale, time.Second)
	store.Set(fresh, time.Hour)
	store.Set(other, time.Hour)

	now = now.Add(time.Minute)
	assert.Equal(t, []uuid.UUID{fresh.BatchID}, store.Pending(surveyID))
	assert.Equal(t, 1, store.PurgeExpired())
	assert.Equal(t, 0, store.PurgeExpired())
}

func TestIssuedTokens_SetCopiesTokens(t *testing.T) {
	store := NewIssuedTokens()
	batch := newBatch(uuid.New())
	store.Set(batch, time.Minute)
	batch.Tokens[0] = "mutated"

	got, ok := store.Consume(batch.BatchID)
	require.True(t, ok)
	assert.Equal(t, "aa", got.Tokens[0])
}

func TestIssuedTokens_ConcurrentConsume(t *testing.T) {
	store := NewIssuedTokens()
	batch := newBatch(uuid.New())
	store.Set(batch, time.Minute)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Consume(batch.BatchID); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}
