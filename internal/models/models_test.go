package models

import (
	"errors"
	"testing"
)

func TestFlowTypeValidate(t *testing.T) {
	valid := []FlowType{
		FlowTypeFAQ, FlowTypeOrder, FlowTypeLocation, FlowTypePromo,
		FlowTypeComplaint, FlowTypeParty, FlowTypeTracking, FlowTypeSupercard,
	}
	for _, f := range valid {
		if err := f.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", f, err)
		}
	}
	if err := FlowType("intervention").Validate(); !errors.Is(err, ErrInvalidFlowType) {
		t.Errorf("Validate(intervention) = %v, want ErrInvalidFlowType", err)
	}
	if err := FlowType("").Validate(); !errors.Is(err, ErrInvalidFlowType) {
		t.Errorf("Validate(empty) = %v, want ErrInvalidFlowType", err)
	}
}

func TestIsValidLanguage(t *testing.T) {
	for _, l := range []Language{LanguageEnglish, LanguageTagalog, LanguageTaglish} {
		if !IsValidLanguage(l) {
			t.Errorf("IsValidLanguage(%q) = false, want true", l)
		}
	}
	if IsValidLanguage(Language("fr")) {
		t.Error("IsValidLanguage(fr) = true, want false")
	}
}

func TestCreateMessageInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateMessageInput
		wantErr error
	}{
		{"valid", CreateMessageInput{SenderSSID: "123", Content: "hi"}, nil},
		{"missing sender", CreateMessageInput{Content: "hi"}, ErrEmptySenderSSID},
		{"missing content", CreateMessageInput{SenderSSID: "123"}, ErrEmptyContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.input.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestButtonValidate(t *testing.T) {
	tests := []struct {
		name    string
		button  Button
		wantErr bool
	}{
		{"postback with payload", Button{Title: "Order", Type: ButtonTypePostback, Payload: "start_order"}, false},
		{"web_url with url", Button{Title: "Menu", Type: ButtonTypeWebURL, URL: "https://example.com"}, false},
		{"postback missing payload", Button{Title: "Order", Type: ButtonTypePostback}, true},
		{"web_url missing url", Button{Title: "Menu", Type: ButtonTypeWebURL}, true},
		{"unknown type", Button{Title: "X", Type: ButtonType("phone")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.button.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConversationContextInFlow(t *testing.T) {
	// InFlow must work on plain values, not just addressable ones, since
	// contexts are passed around by value.
	byValue := func() ConversationContext {
		return ConversationContext{ThreadID: "t1", CurrentFlow: FlowTypeOrder}
	}
	if !byValue().InFlow() {
		t.Error("InFlow() = false with an active flow")
	}
	if (ConversationContext{ThreadID: "t1"}).InFlow() {
		t.Error("InFlow() = true with no active flow")
	}
}

func TestIncomingEventInput(t *testing.T) {
	ev := IncomingEvent{SenderID: "u1", Text: "hello"}
	if got := ev.Input(); got != "hello" {
		t.Errorf("Input() = %q, want %q", got, "hello")
	}
	if ev.IsPostback() {
		t.Error("IsPostback() = true for text event")
	}

	ev = IncomingEvent{SenderID: "u1", Text: "Get Started", PostbackPayload: "start_order"}
	if got := ev.Input(); got != "start_order" {
		t.Errorf("Input() = %q, want payload %q", got, "start_order")
	}
	if !ev.IsPostback() {
		t.Error("IsPostback() = false for postback event")
	}
}

func TestAPIResponseBuilders(t *testing.T) {
	r := Success(map[string]string{"id": "t1"})
	if r.Status != string(APIStatusOK) {
		t.Errorf("Success status = %q, want ok", r.Status)
	}
	r = Error("boom")
	if r.Status != string(APIStatusError) || r.Message != "boom" {
		t.Errorf("Error response = %+v", r)
	}
	r = SuccessWithMessage("created", nil)
	if r.Status != string(APIStatusOK) || r.Message != "created" {
		t.Errorf("SuccessWithMessage response = %+v", r)
	}
}
