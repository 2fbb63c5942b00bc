package models

import "time"

// FlowData is the per-flow scratch space carried in the conversation context.
// Handlers work with typed structs and encode to this map at the store
// boundary; updates merge key-by-key rather than replace.
type FlowData map[string]interface{}

// ConversationContext is the routing state of one thread between turns.
type ConversationContext struct {
	ThreadID     string    `json:"thread_id"`
	CurrentFlow  FlowType  `json:"current_flow,omitempty"`
	CurrentStep  StepType  `json:"current_step,omitempty"`
	FlowData     FlowData  `json:"flow_data,omitempty"`
	Language     Language  `json:"language"`
	NeedsHuman   bool      `json:"needs_human"`
	LastActivity time.Time `json:"last_activity"`
}

// InFlow reports whether the thread currently owns an active flow.
func (c ConversationContext) InFlow() bool {
	return c.CurrentFlow != ""
}

// ContextPatch is a partial update to a conversation context. Nil fields are
// left untouched; non-nil fields overwrite, except FlowData which merges
// key-by-key unless ResetFlowData is set.
type ContextPatch struct {
	CurrentFlow   *FlowType
	CurrentStep   *StepType
	FlowData      FlowData
	ResetFlowData bool
	Language      *Language
	NeedsHuman    *bool
}

// FlowTypePtr returns a pointer to the given flow type, for use in patches.
func FlowTypePtr(f FlowType) *FlowType { return &f }

// StepTypePtr returns a pointer to the given step type, for use in patches.
func StepTypePtr(s StepType) *StepType { return &s }

// LanguagePtr returns a pointer to the given language, for use in patches.
func LanguagePtr(l Language) *Language { return &l }

// BoolPtr returns a pointer to the given bool, for use in patches.
func BoolPtr(b bool) *bool { return &b }

// CartItem is one line of an in-progress order.
type CartItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category"`
}
