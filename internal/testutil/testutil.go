// Package testutil provides shared test helpers and mocks for Zappy tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/zappybot/zappy/internal/models"
)

// MustNoError fails the test immediately when err is non-nil.
func MustNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// AssertEqual fails the test when got != want.
func AssertEqual[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// SentMessage records one outbound send captured by MockMessenger.
type SentMessage struct {
	Kind         string // text, buttons, quick_replies, carousel, coupon
	Recipient    string
	Text         string
	Buttons      []models.Button
	QuickReplies []models.QuickReply
	Items        []models.CarouselItem
	Coupon       models.Coupon
}

// MockMessenger is an in-memory messaging service that records sends.
// Set FailNext to make the next N sends fail, or FailAll for every send.
type MockMessenger struct {
	mu         sync.Mutex
	Sent       []SentMessage
	TypingOn   int
	FailNext   int
	FailAll    bool
	Profile    models.User
	ProfileErr error
	midCounter int
}

// NewMockMessenger creates an empty mock messenger.
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{}
}

func (m *MockMessenger) record(msg SentMessage) (models.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll || m.FailNext > 0 {
		if m.FailNext > 0 {
			m.FailNext--
		}
		return models.SendResult{Success: false, Error: "mock send failure"}, fmt.Errorf("mock send failure")
	}
	m.midCounter++
	m.Sent = append(m.Sent, msg)
	return models.SendResult{Success: true, ProviderMessageID: fmt.Sprintf("mid.%d", m.midCounter)}, nil
}

func (m *MockMessenger) SendText(_ context.Context, recipient, text string) (models.SendResult, error) {
	return m.record(SentMessage{Kind: "text", Recipient: recipient, Text: text})
}

func (m *MockMessenger) SendButtons(_ context.Context, recipient, text string, buttons []models.Button) (models.SendResult, error) {
	return m.record(SentMessage{Kind: "buttons", Recipient: recipient, Text: text, Buttons: buttons})
}

func (m *MockMessenger) SendQuickReplies(_ context.Context, recipient, text string, replies []models.QuickReply) (models.SendResult, error) {
	return m.record(SentMessage{Kind: "quick_replies", Recipient: recipient, Text: text, QuickReplies: replies})
}

func (m *MockMessenger) SendCarousel(_ context.Context, recipient string, items []models.CarouselItem) (models.SendResult, error) {
	return m.record(SentMessage{Kind: "carousel", Recipient: recipient, Items: items})
}

func (m *MockMessenger) SendCoupon(_ context.Context, recipient string, coupon models.Coupon) (models.SendResult, error) {
	return m.record(SentMessage{Kind: "coupon", Recipient: recipient, Coupon: coupon})
}

func (m *MockMessenger) SendTypingIndicator(_ context.Context, _ string, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.TypingOn++
	}
	return nil
}

func (m *MockMessenger) GetProfile(_ context.Context, ssid string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ProfileErr != nil {
		return models.User{}, m.ProfileErr
	}
	profile := m.Profile
	if profile.SSID == "" {
		profile.SSID = ssid
	}
	return profile, nil
}

// Messages returns a copy of the captured sends.
func (m *MockMessenger) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// LastMessage returns the most recent send, failing the test when none exist.
func (m *MockMessenger) LastMessage(t *testing.T) SentMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		t.Fatal("no messages sent")
	}
	return m.Sent[len(m.Sent)-1]
}

// Reset clears captured sends.
func (m *MockMessenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
	m.TypingOn = 0
}
