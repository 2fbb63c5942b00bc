package flow

import (
	"fmt"
	"log/slog"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
)

// StateManager is the flow-facing view of conversation context: start and
// end flows, advance steps with merge semantics, escalate, and clear.
type StateManager struct {
	st store.Store
}

// NewStateManager creates a state manager over the given store.
func NewStateManager(st store.Store) *StateManager {
	return &StateManager{st: st}
}

// Current returns the context for a thread.
func (m *StateManager) Current(threadID string) (models.ConversationContext, error) {
	return m.st.GetContext(threadID)
}

// StartFlow activates a flow at its initial step with fresh flow data,
// discarding any previous flow's scratch space.
func (m *StateManager) StartFlow(threadID string, flow models.FlowType, data models.FlowData) (models.ConversationContext, error) {
	if err := flow.Validate(); err != nil {
		return models.ConversationContext{}, err
	}
	slog.Debug("StateManager StartFlow", "threadID", threadID, "flow", flow)
	return m.st.UpdateContext(threadID, models.ContextPatch{
		CurrentFlow:   models.FlowTypePtr(flow),
		CurrentStep:   models.StepTypePtr(models.StepFlowStart),
		ResetFlowData: true,
		FlowData:      data,
	})
}

// UpdateStep advances the current flow to a step, merging data key-by-key
// into the existing flow data.
func (m *StateManager) UpdateStep(threadID string, step models.StepType, data models.FlowData) error {
	slog.Debug("StateManager UpdateStep", "threadID", threadID, "step", step)
	_, err := m.st.UpdateContext(threadID, models.ContextPatch{
		CurrentStep: models.StepTypePtr(step),
		FlowData:    data,
	})
	if err != nil {
		return fmt.Errorf("failed to update step for thread %s: %w", threadID, err)
	}
	return nil
}

// EndFlow deactivates the current flow and clears its scratch space.
// The thread's language and escalation state survive.
func (m *StateManager) EndFlow(threadID string) error {
	slog.Debug("StateManager EndFlow", "threadID", threadID)
	_, err := m.st.UpdateContext(threadID, models.ContextPatch{
		CurrentFlow:   models.FlowTypePtr(""),
		CurrentStep:   models.StepTypePtr(""),
		ResetFlowData: true,
	})
	if err != nil {
		return fmt.Errorf("failed to end flow for thread %s: %w", threadID, err)
	}
	return nil
}

// SetLanguage records the thread's reply language.
func (m *StateManager) SetLanguage(threadID string, lang models.Language) error {
	if !models.IsValidLanguage(lang) {
		return fmt.Errorf("invalid language %q", lang)
	}
	_, err := m.st.UpdateContext(threadID, models.ContextPatch{
		Language: models.LanguagePtr(lang),
	})
	return err
}

// EscalateToHuman latches the needs-human flag and routes the thread to the
// complaint flow so follow-up messages land with the escalation context.
// Only a clear releases the latch.
func (m *StateManager) EscalateToHuman(threadID, reason string) error {
	slog.Info("StateManager EscalateToHuman", "threadID", threadID, "reason", reason)
	_, err := m.st.UpdateContext(threadID, models.ContextPatch{
		NeedsHuman:    models.BoolPtr(true),
		CurrentFlow:   models.FlowTypePtr(models.FlowTypeComplaint),
		CurrentStep:   models.StepTypePtr(models.StepEscalateHuman),
		ResetFlowData: true,
		FlowData:      models.FlowData{"escalationReason": reason},
	})
	if err != nil {
		return fmt.Errorf("failed to escalate thread %s: %w", threadID, err)
	}
	return nil
}

// Clear wipes the thread's history and resets the context entirely,
// including the needs-human latch.
func (m *StateManager) Clear(threadID string) error {
	slog.Info("StateManager Clear", "threadID", threadID)
	if err := m.st.ClearThread(threadID); err != nil {
		return fmt.Errorf("failed to clear thread %s: %w", threadID, err)
	}
	return nil
}
