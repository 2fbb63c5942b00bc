// Package store provides storage backends for Zappy.
//
// It defines the Store interface for threads, users, messages, conversation
// contexts, and FAQ lookup, with SQLite, PostgreSQL, and in-memory
// implementations. Conversation context updates merge flow data key-by-key
// so concurrent step handlers never clobber sibling keys.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zappybot/zappy/internal/models"
)

// Error variables for store operations.
var (
	ErrThreadNotFound  = errors.New("thread not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
)

// DefaultHistoryLimit is how many recent turns RecentHistory returns when the
// caller passes a non-positive limit.
const DefaultHistoryLimit = 10

// Store defines the persistence operations Zappy needs between webhook turns.
type Store interface {
	// GetOrCreateThread returns the thread for a user, creating it on first contact.
	GetOrCreateThread(userSSID string) (models.Thread, error)
	// GetThread returns a thread by id, or ErrThreadNotFound.
	GetThread(threadID string) (models.Thread, error)
	// ListThreads returns all threads ordered by last activity, newest first.
	ListThreads() ([]models.Thread, error)

	// UpsertUser inserts or updates a user profile keyed by SSID.
	UpsertUser(u models.User) error
	// GetUser returns a user by SSID, or ErrUserNotFound.
	GetUser(ssid string) (models.User, error)

	// CreateMessage persists a message, resolving the thread from the sender SSID.
	CreateMessage(in models.CreateMessageInput) (models.Message, error)
	// ListMessages returns a thread's messages ordered oldest first.
	ListMessages(threadID string) ([]models.Message, error)
	// RecentHistory returns the last limit messages as classifier history turns.
	RecentHistory(threadID string, limit int) ([]models.HistoryTurn, error)
	// UpdateMessageDelivery records the outcome of a tracked send.
	UpdateMessageDelivery(messageID string, status models.DeliveryStatus, providerMessageID, failureReason string) error

	// GetContext returns the conversation context for a thread, creating a
	// default one if none exists yet.
	GetContext(threadID string) (models.ConversationContext, error)
	// UpdateContext applies a partial update and returns the new context.
	UpdateContext(threadID string, patch models.ContextPatch) (models.ConversationContext, error)
	// ClearThread deletes a thread's messages and resets its context.
	ClearThread(threadID string) error

	// SearchFAQs returns FAQ rows matching the query, localized to lang.
	SearchFAQs(query string, lang models.Language) ([]models.FAQ, error)

	// Close releases the underlying resources.
	Close() error
}

// Compile-time checks that all backends implement Store.
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// NewFromDSN selects a backend from the DSN shape: postgres URLs open a
// PostgresStore, an empty DSN opens an in-memory store, anything else is
// treated as a SQLite file path.
func NewFromDSN(dsn string) (Store, error) {
	switch {
	case dsn == "":
		return NewInMemoryStore(), nil
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(WithDSN(dsn))
	default:
		return NewSQLiteStore(WithDSN(dsn))
	}
}

// InMemoryStore is a mutex-guarded in-memory store for tests and local runs.
type InMemoryStore struct {
	mu       sync.Mutex
	users    map[string]models.User                // by SSID
	threads  map[string]models.Thread              // by thread ID
	byUser   map[string]string                     // SSID -> thread ID
	messages map[string][]models.Message           // by thread ID
	contexts map[string]models.ConversationContext // by thread ID
	faqs     []faqRow
	dedup    map[string]*DedupRecord
}

// NewInMemoryStore creates an empty in-memory store seeded with the default FAQs.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:    make(map[string]models.User),
		threads:  make(map[string]models.Thread),
		byUser:   make(map[string]string),
		messages: make(map[string][]models.Message),
		contexts: make(map[string]models.ConversationContext),
		faqs:     defaultFAQs,
		dedup:    make(map[string]*DedupRecord),
	}
}

func (s *InMemoryStore) GetOrCreateThread(userSSID string) (models.Thread, error) {
	if userSSID == "" {
		return models.Thread{}, models.ErrEmptySenderSSID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byUser[userSSID]; ok {
		return s.threads[id], nil
	}
	now := time.Now()
	th := models.Thread{
		ID:           uuid.NewString(),
		UserSSID:     userSSID,
		LastActivity: now,
		CreatedAt:    now,
	}
	s.threads[th.ID] = th
	s.byUser[userSSID] = th.ID
	return th, nil
}

func (s *InMemoryStore) GetThread(threadID string) (models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[threadID]
	if !ok {
		return models.Thread{}, ErrThreadNotFound
	}
	return th, nil
}

func (s *InMemoryStore) ListThreads() ([]models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threads := make([]models.Thread, 0, len(s.threads))
	for _, th := range s.threads {
		threads = append(threads, th)
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastActivity.After(threads[j].LastActivity)
	})
	return threads, nil
}

func (s *InMemoryStore) UpsertUser(u models.User) error {
	if u.SSID == "" {
		return models.ErrEmptySenderSSID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.users[u.SSID]; ok {
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
	} else {
		u.ID = uuid.NewString()
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.SSID] = u
	return nil
}

func (s *InMemoryStore) GetUser(ssid string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[ssid]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *InMemoryStore) CreateMessage(in models.CreateMessageInput) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}
	th, err := s.GetOrCreateThread(in.SenderSSID)
	if err != nil {
		return models.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msgType := in.MessageType
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	now := time.Now()
	msg := models.Message{
		ID:          uuid.NewString(),
		ThreadID:    th.ID,
		SenderSSID:  in.SenderSSID,
		Content:     in.Content,
		MessageType: msgType,
		IsFromBot:   in.IsFromBot,
		Timestamp:   now,
	}
	if in.IsFromBot {
		msg.DeliveryStatus = models.DeliveryStatusPending
	}
	s.messages[th.ID] = append(s.messages[th.ID], msg)
	th.LastMessage = in.Content
	th.LastActivity = now
	s.threads[th.ID] = th
	return msg, nil
}

func (s *InMemoryStore) ListMessages(threadID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return nil, ErrThreadNotFound
	}
	msgs := make([]models.Message, len(s.messages[threadID]))
	copy(msgs, s.messages[threadID])
	return msgs, nil
}

func (s *InMemoryStore) RecentHistory(threadID string, limit int) ([]models.HistoryTurn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	msgs, err := s.ListMessages(threadID)
	if err != nil {
		return nil, err
	}
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	turns := make([]models.HistoryTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, historyTurn(m))
	}
	return turns, nil
}

func (s *InMemoryStore) UpdateMessageDelivery(messageID string, status models.DeliveryStatus, providerMessageID, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for threadID, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				msgs[i].DeliveryStatus = status
				msgs[i].ProviderMessageID = providerMessageID
				msgs[i].FailureReason = failureReason
				s.messages[threadID] = msgs
				return nil
			}
		}
	}
	return ErrMessageNotFound
}

func (s *InMemoryStore) GetContext(threadID string) (models.ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx, ok := s.contexts[threadID]; ok {
		return cloneContext(ctx), nil
	}
	ctx := defaultContext(threadID)
	s.contexts[threadID] = ctx
	return cloneContext(ctx), nil
}

func (s *InMemoryStore) UpdateContext(threadID string, patch models.ContextPatch) (models.ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.contexts[threadID]
	if !ok {
		ctx = defaultContext(threadID)
	}
	applyPatch(&ctx, patch)
	s.contexts[threadID] = ctx
	return cloneContext(ctx), nil
}

func (s *InMemoryStore) ClearThread(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return ErrThreadNotFound
	}
	delete(s.messages, threadID)
	s.contexts[threadID] = defaultContext(threadID)
	return nil
}

func (s *InMemoryStore) SearchFAQs(query string, lang models.Language) ([]models.FAQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FAQ
	for _, row := range s.faqs {
		if row.matches(query) {
			out = append(out, row.localize(lang))
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

// historyTurn maps a persisted message onto a classifier history turn.
func historyTurn(m models.Message) models.HistoryTurn {
	role := "user"
	if m.IsFromBot {
		role = "assistant"
	}
	return models.HistoryTurn{Role: role, Content: m.Content}
}

// defaultContext is the zero routing state for a fresh or cleared thread.
func defaultContext(threadID string) models.ConversationContext {
	return models.ConversationContext{
		ThreadID:     threadID,
		Language:     models.LanguageEnglish,
		LastActivity: time.Now(),
	}
}

func cloneContext(ctx models.ConversationContext) models.ConversationContext {
	if ctx.FlowData != nil {
		data := make(models.FlowData, len(ctx.FlowData))
		for k, v := range ctx.FlowData {
			data[k] = v
		}
		ctx.FlowData = data
	}
	return ctx
}
