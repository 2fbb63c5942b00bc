package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zappybot/zappy/internal/models"
)

// storeUnderTest returns a fresh store of each backend that can run without
// external services.
func storeUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(WithDSN(filepath.Join(t.TempDir(), "zappy.db")))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewInMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestGetOrCreateThreadIdempotent(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			th1, err := s.GetOrCreateThread("user-1")
			if err != nil {
				t.Fatalf("GetOrCreateThread failed: %v", err)
			}
			th2, err := s.GetOrCreateThread("user-1")
			if err != nil {
				t.Fatalf("GetOrCreateThread second call failed: %v", err)
			}
			if th1.ID != th2.ID {
				t.Errorf("expected same thread, got %s and %s", th1.ID, th2.ID)
			}
			if _, err := s.GetOrCreateThread(""); err == nil {
				t.Error("expected error for empty SSID")
			}
		})
	}
}

func TestCreateMessageTracksDelivery(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			userMsg, err := s.CreateMessage(models.CreateMessageInput{SenderSSID: "user-2", Content: "hello"})
			if err != nil {
				t.Fatalf("CreateMessage failed: %v", err)
			}
			if userMsg.DeliveryStatus != "" {
				t.Errorf("user message delivery status = %q, want empty", userMsg.DeliveryStatus)
			}
			if userMsg.MessageType != models.MessageTypeText {
				t.Errorf("default message type = %q, want text", userMsg.MessageType)
			}

			botMsg, err := s.CreateMessage(models.CreateMessageInput{SenderSSID: "user-2", Content: "hi!", IsFromBot: true})
			if err != nil {
				t.Fatalf("CreateMessage bot failed: %v", err)
			}
			if botMsg.DeliveryStatus != models.DeliveryStatusPending {
				t.Errorf("bot message delivery status = %q, want pending", botMsg.DeliveryStatus)
			}
			if botMsg.ThreadID != userMsg.ThreadID {
				t.Error("messages from same SSID landed in different threads")
			}

			if err := s.UpdateMessageDelivery(botMsg.ID, models.DeliveryStatusSent, "mid.123", ""); err != nil {
				t.Fatalf("UpdateMessageDelivery failed: %v", err)
			}
			msgs, err := s.ListMessages(botMsg.ThreadID)
			if err != nil {
				t.Fatalf("ListMessages failed: %v", err)
			}
			if len(msgs) != 2 {
				t.Fatalf("got %d messages, want 2", len(msgs))
			}
			var updated models.Message
			for _, m := range msgs {
				if m.ID == botMsg.ID {
					updated = m
				}
			}
			if updated.DeliveryStatus != models.DeliveryStatusSent || updated.ProviderMessageID != "mid.123" {
				t.Errorf("delivery update not persisted: %+v", updated)
			}

			if err := s.UpdateMessageDelivery("missing", models.DeliveryStatusFailed, "", "boom"); !errors.Is(err, ErrMessageNotFound) {
				t.Errorf("UpdateMessageDelivery(missing) = %v, want ErrMessageNotFound", err)
			}
		})
	}
}

func TestRecentHistoryRolesAndOrder(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			for i, turn := range []struct {
				content string
				bot     bool
			}{
				{"hi", false}, {"hello there", true}, {"menu please", false},
			} {
				if _, err := s.CreateMessage(models.CreateMessageInput{SenderSSID: "user-3", Content: turn.content, IsFromBot: turn.bot}); err != nil {
					t.Fatalf("CreateMessage %d failed: %v", i, err)
				}
			}
			th, _ := s.GetOrCreateThread("user-3")
			turns, err := s.RecentHistory(th.ID, 2)
			if err != nil {
				t.Fatalf("RecentHistory failed: %v", err)
			}
			if len(turns) != 2 {
				t.Fatalf("got %d turns, want 2", len(turns))
			}
			if turns[0].Role != "assistant" || turns[0].Content != "hello there" {
				t.Errorf("turns[0] = %+v, want assistant hello", turns[0])
			}
			if turns[1].Role != "user" || turns[1].Content != "menu please" {
				t.Errorf("turns[1] = %+v, want user menu", turns[1])
			}
		})
	}
}

func TestContextMergeSemantics(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			th, _ := s.GetOrCreateThread("user-4")

			ctx, err := s.GetContext(th.ID)
			if err != nil {
				t.Fatalf("GetContext failed: %v", err)
			}
			if ctx.Language != models.LanguageEnglish || ctx.InFlow() || ctx.NeedsHuman {
				t.Errorf("default context = %+v", ctx)
			}

			// Start a flow with fresh data.
			ctx, err = s.UpdateContext(th.ID, models.ContextPatch{
				CurrentFlow:   models.FlowTypePtr(models.FlowTypeOrder),
				CurrentStep:   models.StepTypePtr(models.StepFlowStart),
				ResetFlowData: true,
				FlowData:      models.FlowData{"cart": []interface{}{}},
			})
			if err != nil {
				t.Fatalf("UpdateContext start failed: %v", err)
			}
			if ctx.CurrentFlow != models.FlowTypeOrder {
				t.Errorf("CurrentFlow = %q", ctx.CurrentFlow)
			}

			// Merge a key; the cart key must survive.
			ctx, err = s.UpdateContext(th.ID, models.ContextPatch{
				CurrentStep: models.StepTypePtr(models.StepAskDrinks),
				FlowData:    models.FlowData{"deliveryAddress": "123 Main St"},
			})
			if err != nil {
				t.Fatalf("UpdateContext merge failed: %v", err)
			}
			if _, ok := ctx.FlowData["cart"]; !ok {
				t.Error("merge dropped existing flow data key")
			}
			if ctx.FlowData["deliveryAddress"] != "123 Main St" {
				t.Errorf("merged key = %v", ctx.FlowData["deliveryAddress"])
			}

			// Escalate; flow fields untouched by a needs-human-only patch.
			ctx, err = s.UpdateContext(th.ID, models.ContextPatch{NeedsHuman: models.BoolPtr(true)})
			if err != nil {
				t.Fatalf("UpdateContext escalate failed: %v", err)
			}
			if !ctx.NeedsHuman || ctx.CurrentStep != models.StepAskDrinks {
				t.Errorf("escalation patch disturbed context: %+v", ctx)
			}

			// Clear resets everything.
			if err := s.ClearThread(th.ID); err != nil {
				t.Fatalf("ClearThread failed: %v", err)
			}
			ctx, err = s.GetContext(th.ID)
			if err != nil {
				t.Fatalf("GetContext after clear failed: %v", err)
			}
			if ctx.InFlow() || ctx.NeedsHuman || len(ctx.FlowData) != 0 || ctx.Language != models.LanguageEnglish {
				t.Errorf("context after clear = %+v", ctx)
			}
			msgs, err := s.ListMessages(th.ID)
			if err != nil {
				t.Fatalf("ListMessages after clear failed: %v", err)
			}
			if len(msgs) != 0 {
				t.Errorf("got %d messages after clear, want 0", len(msgs))
			}
		})
	}
}

func TestSearchFAQs(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			results, err := s.SearchFAQs("magkano ang supercard", models.LanguageTagalog)
			if err != nil {
				t.Fatalf("SearchFAQs failed: %v", err)
			}
			if len(results) == 0 {
				t.Fatal("expected at least one FAQ match")
			}
			foundPrice := false
			for _, f := range results {
				if strings.Contains(f.Answer, "₱999") {
					foundPrice = true
					if !strings.Contains(f.Answer, "taon") {
						t.Errorf("expected Tagalog answer, got %q", f.Answer)
					}
				}
			}
			if !foundPrice {
				t.Error("price FAQ not matched")
			}

			none, err := s.SearchFAQs("quantum entanglement", models.LanguageEnglish)
			if err != nil {
				t.Fatalf("SearchFAQs failed: %v", err)
			}
			if len(none) != 0 {
				t.Errorf("got %d matches for unrelated query, want 0", len(none))
			}
		})
	}
}

func TestDedupRecordInbound(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		repo, ok := s.(DedupRepo)
		if !ok {
			t.Fatalf("%s store does not implement DedupRepo", name)
		}
		t.Run(name, func(t *testing.T) {
			fresh, err := repo.RecordInbound("mid.abc", "thread-1")
			if err != nil {
				t.Fatalf("RecordInbound failed: %v", err)
			}
			if !fresh {
				t.Error("first RecordInbound returned false")
			}
			again, err := repo.RecordInbound("mid.abc", "thread-1")
			if err != nil {
				t.Fatalf("RecordInbound duplicate failed: %v", err)
			}
			if again {
				t.Error("duplicate RecordInbound returned true")
			}
			dup, err := repo.IsDuplicate("mid.abc")
			if err != nil || !dup {
				t.Errorf("IsDuplicate = %v, %v; want true, nil", dup, err)
			}
			if err := repo.MarkProcessed("mid.abc"); err != nil {
				t.Errorf("MarkProcessed failed: %v", err)
			}
		})
	}
}

func TestUpsertUser(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.UpsertUser(models.User{SSID: "user-5", FirstName: "Maria"}); err != nil {
				t.Fatalf("UpsertUser failed: %v", err)
			}
			u, err := s.GetUser("user-5")
			if err != nil {
				t.Fatalf("GetUser failed: %v", err)
			}
			if u.FirstName != "Maria" {
				t.Errorf("FirstName = %q", u.FirstName)
			}
			if err := s.UpsertUser(models.User{SSID: "user-5", FirstName: "Maria", LastName: "Santos"}); err != nil {
				t.Fatalf("UpsertUser update failed: %v", err)
			}
			u, _ = s.GetUser("user-5")
			if u.LastName != "Santos" {
				t.Errorf("LastName = %q after upsert", u.LastName)
			}
			if _, err := s.GetUser("nope"); !errors.Is(err, ErrUserNotFound) {
				t.Errorf("GetUser(nope) = %v, want ErrUserNotFound", err)
			}
		})
	}
}
