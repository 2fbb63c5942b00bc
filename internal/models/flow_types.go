package models

// FlowType identifies a conversation flow.
type FlowType string

// StepType identifies a step within a flow's state machine.
type StepType string

// Flow type constants.
const (
	FlowTypeFAQ       FlowType = "faq"
	FlowTypeOrder     FlowType = "order"
	FlowTypeLocation  FlowType = "location"
	FlowTypePromo     FlowType = "promo"
	FlowTypeComplaint FlowType = "complaint"
	FlowTypeParty     FlowType = "party"
	FlowTypeTracking  FlowType = "tracking"
	FlowTypeSupercard FlowType = "supercard"
)

// Validate checks that the flow type is one of the known flows.
func (f FlowType) Validate() error {
	switch f {
	case FlowTypeFAQ, FlowTypeOrder, FlowTypeLocation, FlowTypePromo,
		FlowTypeComplaint, FlowTypeParty, FlowTypeTracking, FlowTypeSupercard:
		return nil
	default:
		return ErrInvalidFlowType
	}
}

// StepFlowStart is the initial step shared by every flow.
const StepFlowStart StepType = "FLOW_START"

// Order flow steps.
const (
	StepChooseOrderMethod   StepType = "CHOOSE_ORDER_METHOD"
	StepAIOrderStart        StepType = "AI_ORDER_START"
	StepShowProductCarousel StepType = "SHOW_PRODUCT_CAROUSEL"
	StepShowProductList     StepType = "SHOW_PRODUCT_LIST"
	StepProductSelected     StepType = "PRODUCT_SELECTED"
	StepAskDrinks           StepType = "ASK_DRINKS"
	StepShowDrinksCarousel  StepType = "SHOW_DRINKS_CAROUSEL"
	StepAskDesserts         StepType = "ASK_DESSERTS"
	StepShowDessertCarousel StepType = "SHOW_DESSERTS_CAROUSEL"
	StepCollectLocation     StepType = "COLLECT_LOCATION"
	StepGeneratePayment     StepType = "GENERATE_PAYMENT"
)

// Tracking flow steps.
const (
	StepCollectOrderNumber StepType = "COLLECT_ORDER_NUMBER"
	StepShowTrackingStatus StepType = "SHOW_TRACKING_STATUS"
)

// Location flow steps.
const (
	StepShowLocations  StepType = "SHOW_LOCATIONS"
	StepLocationChosen StepType = "LOCATION_CHOSEN"
)

// Supercard flow steps.
const (
	StepAnswerQuestion StepType = "ANSWER_QUESTION"
	StepOfferCard      StepType = "OFFER_CARD"
)

// Party flow steps.
const (
	StepShowPackages StepType = "SHOW_PACKAGES"
)

// Complaint flow steps.
const (
	StepEscalateHuman StepType = "ESCALATE_HUMAN"
)

// Intent is the classified purpose of one inbound message.
type Intent string

const (
	IntentGreeting        Intent = "greeting"
	IntentFAQ             Intent = "faq"
	IntentMenuInquiry     Intent = "menu_inquiry"
	IntentOrderPlacement  Intent = "order_placement"
	IntentLocationInquiry Intent = "location_inquiry"
	IntentPromoInquiry    Intent = "promo_inquiry"
	IntentPartyInquiry    Intent = "party_inquiry"
	IntentTrackingInquiry Intent = "tracking_inquiry"
	IntentSupercard       Intent = "supercard_inquiry"
	IntentComplaint       Intent = "complaint"
	IntentHumanRequest    Intent = "human_request"
	IntentUnknown         Intent = "unknown"
)

// IntentResult is one classification outcome: the intent, a confidence in
// [0,1], and the language the user wrote in.
type IntentResult struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Language   Language `json:"language"`
}
