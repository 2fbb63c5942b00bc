package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zappybot/zappy/internal/intent"
	"github.com/zappybot/zappy/internal/messaging"
	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
)

// clearCommand resets the conversation when typed verbatim. Checked before
// anything else so a stuck thread can always recover.
const clearCommand = "clear"

// classifierHistoryTurns is how much recent history the classifier sees. The
// last exchange is enough context without bloating the prompt.
const classifierHistoryTurns = 2

// reservedPayloads are the global navigation buttons. They start their flow
// no matter what the thread was doing.
var reservedPayloads = map[string]struct {
	flow models.FlowType
	step models.StepType
}{
	"start_order":         {flow: models.FlowTypeOrder},
	"start_tracking":      {flow: models.FlowTypeTracking},
	"show_menu":           {flow: models.FlowTypeFAQ},
	"show_party_packages": {flow: models.FlowTypeParty, step: models.StepShowPackages},
	"view_offers":         {flow: models.FlowTypePromo},
	"find_location":       {flow: models.FlowTypeLocation},
}

// Processor is the dispatcher: it takes one normalized inbound event through
// dedup, persistence, classification, and flow routing.
type Processor struct {
	st       store.Store
	dedup    store.DedupRepo
	svc      messaging.Service
	sender   *messaging.TrackedSender
	detector *intent.Detector
	states   *StateManager
	reaper   *Reaper
	handlers map[models.FlowType]Handler
}

// NewProcessor wires the dispatcher. dedup may be nil when the store backend
// does not support it; reaper may be nil to disable idle nudges.
func NewProcessor(deps Deps, svc messaging.Service, detector *intent.Detector, reaper *Reaper, handlers ...Handler) *Processor {
	p := &Processor{
		st:       deps.Store,
		svc:      svc,
		sender:   deps.Sender,
		detector: detector,
		states:   deps.States,
		reaper:   reaper,
		handlers: make(map[models.FlowType]Handler, len(handlers)),
	}
	if d, ok := deps.Store.(store.DedupRepo); ok {
		p.dedup = d
	}
	for _, h := range handlers {
		p.handlers[h.Type()] = h
	}
	return p
}

// ProcessEvent handles one inbound webhook event end to end. Errors are
// returned for logging; the webhook layer always acknowledges regardless.
func (p *Processor) ProcessEvent(ctx context.Context, event models.IncomingEvent) error {
	if event.SenderID == "" {
		return fmt.Errorf("event has no sender id")
	}
	input := event.Input()
	if input == "" {
		slog.Debug("Processor ignoring empty event", "sender", event.SenderID, "attachment", event.AttachmentType)
		return nil
	}

	thread, err := p.st.GetOrCreateThread(event.SenderID)
	if err != nil {
		return fmt.Errorf("failed to resolve thread for %s: %w", event.SenderID, err)
	}

	if p.dedup != nil && event.ProviderMID != "" {
		fresh, err := p.dedup.RecordInbound(event.ProviderMID, thread.ID)
		if err != nil {
			slog.Warn("Processor dedup check failed", "error", err, "mid", event.ProviderMID)
		} else if !fresh {
			slog.Info("Processor dropping duplicate delivery", "mid", event.ProviderMID, "threadID", thread.ID)
			return nil
		}
	}

	msgType := models.MessageTypeText
	if event.IsPostback() {
		msgType = models.MessageTypePostback
	}
	if _, err := p.st.CreateMessage(models.CreateMessageInput{
		SenderSSID:  event.SenderID,
		Content:     input,
		MessageType: msgType,
	}); err != nil {
		slog.Error("Processor inbound persist failed", "error", err, "threadID", thread.ID)
	}

	p.enrichProfile(event.SenderID)

	err = p.route(ctx, event, thread, input)

	if p.dedup != nil && event.ProviderMID != "" {
		if err := p.dedup.MarkProcessed(event.ProviderMID); err != nil {
			slog.Warn("Processor dedup mark failed", "error", err, "mid", event.ProviderMID)
		}
	}
	return err
}

func (p *Processor) route(ctx context.Context, event models.IncomingEvent, thread models.Thread, input string) error {
	convCtx, err := p.states.Current(thread.ID)
	if err != nil {
		return fmt.Errorf("failed to load context for thread %s: %w", thread.ID, err)
	}
	lang := convCtx.Language

	// The reset command outranks everything, including the human-takeover
	// latch.
	if strings.EqualFold(strings.TrimSpace(input), clearCommand) {
		if err := p.states.Clear(thread.ID); err != nil {
			return err
		}
		p.armReaper(thread.ID, event.SenderID, models.LanguageEnglish)
		return p.sender.QuickReplies(ctx, event.SenderID, clearedText(lang), mainMenuQuickReplies(lang))
	}

	// A latched thread belongs to a human operator; the bot stays quiet.
	if convCtx.NeedsHuman {
		slog.Info("Processor thread awaiting human, staying silent", "threadID", thread.ID)
		return nil
	}

	defer func() { p.armReaper(thread.ID, event.SenderID, lang) }()

	if event.IsPostback() {
		if nav, ok := reservedPayloads[input]; ok {
			return p.startFlow(ctx, event, thread, input, nav.flow, nav.step, lang)
		}
	}

	history, err := p.st.RecentHistory(thread.ID, classifierHistoryTurns)
	if err != nil {
		slog.Warn("Processor history load failed", "error", err, "threadID", thread.ID)
	}
	result := p.detector.Detect(ctx, input, history)

	if !event.IsPostback() && result.Language != "" && result.Language != lang {
		if err := p.states.SetLanguage(thread.ID, result.Language); err != nil {
			slog.Warn("Processor language update failed", "error", err, "threadID", thread.ID)
		} else {
			lang = result.Language
		}
	}

	// Asking for a live person wins over any active flow; the complaint
	// handler sends the hand-off and latches the thread.
	if !event.IsPostback() && result.Intent == models.IntentHumanRequest {
		return p.startFlow(ctx, event, thread, input, models.FlowTypeComplaint, "", lang)
	}

	// An active flow owns the turn regardless of what the classifier thinks.
	if convCtx.InFlow() {
		handler, ok := p.handlers[convCtx.CurrentFlow]
		if !ok {
			slog.Error("Processor no handler for active flow, ending it", "flow", convCtx.CurrentFlow, "threadID", thread.ID)
			return p.states.EndFlow(thread.ID)
		}
		return handler.Handle(ctx, &Turn{
			ThreadID: thread.ID,
			UserSSID: event.SenderID,
			Input:    input,
			Postback: event.IsPostback(),
			Context:  convCtx,
			Language: lang,
		})
	}

	if flowType, ok := intent.IntentToFlow(result.Intent); ok {
		return p.startFlow(ctx, event, thread, input, flowType, "", lang)
	}

	if result.Intent == models.IntentGreeting {
		firstName := ""
		if u, err := p.st.GetUser(event.SenderID); err == nil {
			firstName = u.FirstName
		}
		return p.sender.QuickReplies(ctx, event.SenderID, greetingText(lang, firstName), mainMenuQuickReplies(lang))
	}
	return p.sender.QuickReplies(ctx, event.SenderID, unknownText(lang), mainMenuQuickReplies(lang))
}

func (p *Processor) startFlow(ctx context.Context, event models.IncomingEvent, thread models.Thread, input string, flowType models.FlowType, step models.StepType, lang models.Language) error {
	handler, ok := p.handlers[flowType]
	if !ok {
		return fmt.Errorf("no handler registered for flow %s", flowType)
	}

	convCtx, err := p.states.StartFlow(thread.ID, flowType, nil)
	if err != nil {
		return fmt.Errorf("failed to start flow %s: %w", flowType, err)
	}
	if step != "" {
		if err := p.states.UpdateStep(thread.ID, step, nil); err != nil {
			return err
		}
		convCtx.CurrentStep = step
	}

	slog.Info("Processor starting flow", "flow", flowType, "threadID", thread.ID)
	return handler.Handle(ctx, &Turn{
		ThreadID: thread.ID,
		UserSSID: event.SenderID,
		Input:    input,
		Postback: event.IsPostback(),
		Context:  convCtx,
		Language: lang,
	})
}

// InitiateFlow starts a flow for a user from outside the webhook path, such
// as an operator console. The flow opens exactly as if the user had tapped
// its entry button.
func (p *Processor) InitiateFlow(ctx context.Context, ssid string, flowType models.FlowType) error {
	thread, err := p.st.GetOrCreateThread(ssid)
	if err != nil {
		return fmt.Errorf("failed to resolve thread for %s: %w", ssid, err)
	}
	convCtx, err := p.states.Current(thread.ID)
	if err != nil {
		return fmt.Errorf("failed to load context for thread %s: %w", thread.ID, err)
	}
	event := models.IncomingEvent{SenderID: ssid, PostbackPayload: string(flowType)}
	return p.startFlow(ctx, event, thread, event.Input(), flowType, "", convCtx.Language)
}

// enrichProfile fetches profile fields in the background for personalization.
// Best effort only; a turn never waits on the Graph profile API.
func (p *Processor) enrichProfile(ssid string) {
	if p.svc == nil {
		return
	}
	if u, err := p.st.GetUser(ssid); err == nil && u.FirstName != "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		profile, err := p.svc.GetProfile(ctx, ssid)
		if err != nil {
			slog.Debug("Processor profile fetch failed", "error", err, "ssid", ssid)
			return
		}
		profile.SSID = ssid
		if err := p.st.UpsertUser(profile); err != nil {
			slog.Warn("Processor profile upsert failed", "error", err, "ssid", ssid)
		}
	}()
}

func (p *Processor) armReaper(threadID, ssid string, lang models.Language) {
	if p.reaper != nil {
		p.reaper.Arm(threadID, ssid, lang)
	}
}

// Stop releases background resources.
func (p *Processor) Stop() {
	if p.reaper != nil {
		p.reaper.Stop()
	}
}
