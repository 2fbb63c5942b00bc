// Package store provides the DedupRepo interface for inbound message deduplication.
package store

import (
	"time"
)

// DedupRecord represents an inbound message deduplication record.
type DedupRecord struct {
	MessageID   string     `json:"message_id"`
	ThreadID    string     `json:"thread_id"`
	ReceivedAt  time.Time  `json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

// DedupRepo defines the interface for inbound message deduplication.
// Webhook deliveries carry a provider message id; re-deliveries of the same id
// are short-circuited before any flow data mutates.
type DedupRepo interface {
	// IsDuplicate checks if a provider message ID has already been seen.
	IsDuplicate(messageID string) (bool, error)

	// RecordInbound inserts a new inbound message record. Returns false if the
	// message was already recorded (duplicate).
	RecordInbound(messageID, threadID string) (bool, error)

	// MarkProcessed sets the processed_at timestamp for a message.
	MarkProcessed(messageID string) error
}

// Compile-time check that InMemoryStore implements DedupRepo.
var _ DedupRepo = (*InMemoryStore)(nil)

func (s *InMemoryStore) IsDuplicate(messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dedup[messageID]
	return ok, nil
}

func (s *InMemoryStore) RecordInbound(messageID, threadID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dedup[messageID]; ok {
		return false, nil
	}
	s.dedup[messageID] = &DedupRecord{MessageID: messageID, ThreadID: threadID, ReceivedAt: time.Now()}
	return true, nil
}

func (s *InMemoryStore) MarkProcessed(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.dedup[messageID]; ok {
		now := time.Now()
		rec.ProcessedAt = &now
	}
	return nil
}
