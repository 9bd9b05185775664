package mem

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IssuedBatch is the plaintext side of a bulk issuance. Only hashes are
// persisted, so this is the one place the plaintexts live after the response.
type IssuedBatch struct {
	BatchID   uuid.UUID
	SurveyID  uuid.UUID
	Tokens    []string
	CreatedAt time.Time
}

type IssuedTokenStore interface {
	Set(batch IssuedBatch, ttl time.Duration)

	// Consume returns the batch if not expired and removes it (single-use).
	Consume(batchID uuid.UUID) (IssuedBatch, bool)

	// Pending lists unexpired batch ids for a survey without consuming them.
	Pending(surveyID uuid.UUID) []uuid.UUID

	PurgeExpired() int
}

type entry struct {
	batch     IssuedBatch
	expiresAt time.Time
}

type IssuedTokens struct {
	mu   sync.RWMutex
	data map[uuid.UUID]entry
	now  func() time.Time
}

func NewIssuedTokens() *IssuedTokens {
	return &IssuedTokens{
		data: make(map[uuid.UUID]entry),
		now:  time.Now,
	}
}

func (s *IssuedTokens) Set(batch IssuedBatch, ttl time.Duration) {
	tokens := make([]string, len(batch.Tokens))
	copy(tokens, batch.Tokens)
	batch.Tokens = tokens

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[batch.BatchID] = entry{
		batch:     batch,
		expiresAt: s.now().Add(ttl),
	}
}

func (s *IssuedTokens) Consume(batchID uuid.UUID) (IssuedBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[batchID]
	if !ok {
		return IssuedBatch{}, false
	}
	delete(s.data, batchID)
	if s.now().After(e.expiresAt) {
		return IssuedBatch{}, false
	}
	return e.batch, true
}

func (s *IssuedTokens) Pending(surveyID uuid.UUID) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var ids []uuid.UUID
	for id, e := range s.data {
		if e.batch.SurveyID == surveyID && !now.After(e.expiresAt) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *IssuedTokens) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for id, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, id)
			purged++
		}
	}
	return purged
}
