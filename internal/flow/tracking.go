package flow

import (
	"context"
	"fmt"
	"regexp"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/util"
)

// trackingURL is the order tracker webview.
const trackingURL = "https://zappy-pizza.example.com/track"

// EntryMethodChooser picks how the tracking flow collects the order number:
// true routes the user to the tracker webview, false asks in chat. The
// default flips a coin so both paths stay exercised.
type EntryMethodChooser func() bool

var orderNumberPattern = regexp.MustCompile(`#?(\d+)`)

// trackingHandler looks up order status by order number. The number arrives
// either through the tracker webview or typed in chat.
type trackingHandler struct {
	deps        Deps
	chooseEntry EntryMethodChooser
}

// NewTrackingHandler creates the tracking flow handler. chooser may be nil,
// which picks the entry method at random.
func NewTrackingHandler(deps Deps, chooser EntryMethodChooser) Handler {
	if chooser == nil {
		chooser = util.CoinFlip
	}
	return &trackingHandler{deps: deps, chooseEntry: chooser}
}

func (h *trackingHandler) Type() models.FlowType { return models.FlowTypeTracking }

func (h *trackingHandler) Handle(ctx context.Context, turn *Turn) error {
	if turn.Context.CurrentStep == models.StepCollectOrderNumber {
		return h.collectNumber(ctx, turn)
	}
	return h.intro(ctx, turn)
}

func (h *trackingHandler) intro(ctx context.Context, turn *Turn) error {
	lang := turn.Language

	webview := h.chooseEntry()
	if webview {
		text := pick(lang,
			"Let's check on your order! Open the tracker below, or just type your order number here.",
			"Tingnan natin ang order mo! Buksan ang tracker sa ibaba, o i-type ang order number mo dito.",
			"Check natin ang order mo! Open the tracker below, or i-type mo lang ang order number dito.",
		)
		buttons := []models.Button{
			{Title: pick(lang, "🔎 Open Tracker", "🔎 Buksan ang Tracker", "🔎 Open Tracker"), Type: models.ButtonTypeWebURL, URL: trackingURL},
		}
		if err := h.deps.Sender.Buttons(ctx, turn.UserSSID, text, buttons); err != nil {
			return err
		}
	} else {
		text := pick(lang,
			"Let's check on your order! What's your order number? (e.g. #12345)",
			"Tingnan natin ang order mo! Ano ang order number mo? (hal. #12345)",
			"Check natin ang order mo! Ano ang order number mo? (e.g. #12345)",
		)
		if err := h.deps.Sender.Text(ctx, turn.UserSSID, text); err != nil {
			return err
		}
	}

	method := "chat"
	if webview {
		method = "webview"
	}
	data, err := encodeData(trackingData{EntryMethod: method})
	if err != nil {
		data = nil
	}
	return h.deps.States.UpdateStep(turn.ThreadID, models.StepCollectOrderNumber, data)
}

func (h *trackingHandler) collectNumber(ctx context.Context, turn *Turn) error {
	lang := turn.Language

	m := orderNumberPattern.FindStringSubmatch(turn.Input)
	if m == nil || len(m[1]) < 3 {
		text := pick(lang,
			"Hmm, that doesn't look like an order number. It should be at least 3 digits, like #12345. Mind checking?",
			"Mukhang hindi iyan order number. Dapat hindi bababa sa 3 digit, tulad ng #12345. Pakisuri muli?",
			"Hmm, parang hindi yan order number. Dapat at least 3 digits, like #12345. Paki-check ulit?",
		)
		return h.deps.Sender.Text(ctx, turn.UserSSID, text)
	}
	orderNumber := m[1]

	data, err := encodeData(trackingData{OrderNumber: orderNumber})
	if err == nil {
		if err := h.deps.States.UpdateStep(turn.ThreadID, models.StepShowTrackingStatus, data); err != nil {
			return err
		}
	}

	eta := util.RandomInRange(15, 35)
	text := fmt.Sprintf(pick(lang,
		"Order #%s is on its way! 🛵 Estimated arrival in about %d minutes. Hang tight!",
		"Papunta na ang order #%s! 🛵 Darating sa loob ng mga %d minuto. Sandali na lang!",
		"On the way na ang order #%s! 🛵 Around %d minutes na lang. Hang tight!",
	), orderNumber, eta)
	if err := h.deps.Sender.Text(ctx, turn.UserSSID, text); err != nil {
		return err
	}
	return h.deps.States.EndFlow(turn.ThreadID)
}
