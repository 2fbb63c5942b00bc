package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zappybot/zappy/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// applyPatch mutates ctx in place with the partial update. FlowData merges
// key-by-key unless the patch asks for a reset. LastActivity always advances.
func applyPatch(ctx *models.ConversationContext, patch models.ContextPatch) {
	if patch.CurrentFlow != nil {
		ctx.CurrentFlow = *patch.CurrentFlow
	}
	if patch.CurrentStep != nil {
		ctx.CurrentStep = *patch.CurrentStep
	}
	if patch.ResetFlowData {
		ctx.FlowData = nil
	}
	if patch.FlowData != nil {
		if ctx.FlowData == nil {
			ctx.FlowData = make(models.FlowData, len(patch.FlowData))
		}
		for k, v := range patch.FlowData {
			ctx.FlowData[k] = v
		}
	}
	if patch.Language != nil {
		ctx.Language = *patch.Language
	}
	if patch.NeedsHuman != nil {
		ctx.NeedsHuman = *patch.NeedsHuman
	}
	ctx.LastActivity = time.Now()
}

// scanMessage scans a Message from sql.Rows.
func scanMessage(rows *sql.Rows) (models.Message, error) {
	var m models.Message
	var deliveryStatus, providerMessageID, failureReason sql.NullString
	err := rows.Scan(
		&m.ID, &m.ThreadID, &m.SenderSSID, &m.Content, &m.MessageType,
		&m.IsFromBot, &deliveryStatus, &providerMessageID, &failureReason, &m.Timestamp,
	)
	if err != nil {
		return m, fmt.Errorf("scan message failed: %w", err)
	}
	m.DeliveryStatus = models.DeliveryStatus(deliveryStatus.String)
	m.ProviderMessageID = providerMessageID.String
	m.FailureReason = failureReason.String
	return m, nil
}

// scanThread scans a Thread from sql.Rows.
func scanThread(rows *sql.Rows) (models.Thread, error) {
	var th models.Thread
	var lastMessage sql.NullString
	err := rows.Scan(&th.ID, &th.UserSSID, &lastMessage, &th.LastActivity, &th.CreatedAt)
	if err != nil {
		return th, fmt.Errorf("scan thread failed: %w", err)
	}
	th.LastMessage = lastMessage.String
	return th, nil
}

// faqRow is one FAQ entry with all three localizations.
type faqRow struct {
	ID          string
	Category    string
	QuestionEN  string
	QuestionTL  string
	QuestionTag string
	AnswerEN    string
	AnswerTL    string
	AnswerTag   string
	Keywords    string // comma-separated lowercase search keywords
}

// matches reports whether the query hits this row's keywords or any
// localized question, case-insensitively.
func (r faqRow) matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, kw := range strings.Split(r.Keywords, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" && strings.Contains(q, kw) {
			return true
		}
	}
	for _, question := range []string{r.QuestionEN, r.QuestionTL, r.QuestionTag} {
		if question != "" && strings.Contains(strings.ToLower(question), q) {
			return true
		}
	}
	return false
}

// localize picks the question/answer pair for the given language,
// falling back to English.
func (r faqRow) localize(lang models.Language) models.FAQ {
	question, answer := r.QuestionEN, r.AnswerEN
	switch lang {
	case models.LanguageTagalog:
		if r.AnswerTL != "" {
			question, answer = r.QuestionTL, r.AnswerTL
		}
	case models.LanguageTaglish:
		if r.AnswerTag != "" {
			question, answer = r.QuestionTag, r.AnswerTag
		}
	}
	return models.FAQ{ID: r.ID, Category: r.Category, Question: question, Answer: answer}
}

// defaultFAQs seeds every backend. SQL backends insert these on startup with
// conflict-ignore semantics so operator edits survive restarts.
var defaultFAQs = []faqRow{
	{
		ID:          "faq-supercard-what",
		Category:    "supercard",
		QuestionEN:  "What is the SuperCard?",
		QuestionTL:  "Ano ang SuperCard?",
		QuestionTag: "Ano po ang SuperCard?",
		AnswerEN:    "The SuperCard is our loyalty card! Enjoy a FREE welcome pizza, exclusive discounts, and free delivery on qualified orders for a full year. 🍕",
		AnswerTL:    "Ang SuperCard ay ang aming loyalty card! Mag-enjoy ng LIBRENG welcome pizza, exclusive discounts, at libreng delivery sa qualified orders sa loob ng isang taon. 🍕",
		AnswerTag:   "Ang SuperCard po ay ang aming loyalty card! Enjoy a FREE welcome pizza, exclusive discounts, at free delivery sa qualified orders for a full year. 🍕",
		Keywords:    "supercard,super card,loyalty,card,member,membership",
	},
	{
		ID:          "faq-supercard-price",
		Category:    "supercard",
		QuestionEN:  "How much does the SuperCard cost?",
		QuestionTL:  "Magkano ang SuperCard?",
		QuestionTag: "Magkano po ang SuperCard?",
		AnswerEN:    "The SuperCard Gold is ₱999 and the SuperCard Classic is ₱699, both valid for one year from activation.",
		AnswerTL:    "Ang SuperCard Gold ay ₱999 at ang SuperCard Classic ay ₱699, parehong valid ng isang taon mula sa activation.",
		AnswerTag:   "Ang SuperCard Gold po ay ₱999 at ang SuperCard Classic ay ₱699, both valid for one year from activation.",
		Keywords:    "magkano,cost,price,how much,presyo,bayad",
	},
	{
		ID:          "faq-supercard-perks",
		Category:    "supercard",
		QuestionEN:  "What are the SuperCard benefits?",
		QuestionTL:  "Ano ang benepisyo ng SuperCard?",
		QuestionTag: "Ano po ang benefits ng SuperCard?",
		AnswerEN:    "SuperCard holders get a free welcome pizza, buy-one-take-one deals on select items, free delivery on qualified orders, and exclusive member promos all year.",
		AnswerTL:    "Ang mga SuperCard holder ay may libreng welcome pizza, buy-one-take-one sa piling items, libreng delivery sa qualified orders, at exclusive member promos buong taon.",
		AnswerTag:   "Ang SuperCard holders po ay may free welcome pizza, buy-one-take-one deals sa select items, free delivery sa qualified orders, at exclusive member promos all year.",
		Keywords:    "benefit,benefits,perks,discount,benepisyo,free,libre",
	},
	{
		ID:          "faq-supercard-renew",
		Category:    "supercard",
		QuestionEN:  "How do I renew my SuperCard?",
		QuestionTL:  "Paano i-renew ang SuperCard?",
		QuestionTag: "Paano po i-renew ang SuperCard?",
		AnswerEN:    "You can renew your SuperCard at any branch, through our delivery hotline, or when placing an order right here in chat.",
		AnswerTL:    "Maaari mong i-renew ang iyong SuperCard sa kahit anong branch, sa aming delivery hotline, o habang umoorder dito mismo sa chat.",
		AnswerTag:   "Pwede po kayong mag-renew ng SuperCard sa any branch, sa delivery hotline, o while ordering dito mismo sa chat.",
		Keywords:    "renew,renewal,expired,expire,extend",
	},
	{
		ID:          "faq-hours",
		Category:    "store",
		QuestionEN:  "What are your store hours?",
		QuestionTL:  "Anong oras kayo bukas?",
		QuestionTag: "Anong oras po kayo bukas?",
		AnswerEN:    "Most branches are open daily from 10 AM to 10 PM. Delivery runs from 10 AM to 9:30 PM.",
		AnswerTL:    "Karamihan ng branches ay bukas araw-araw mula 10 AM hanggang 10 PM. Ang delivery ay mula 10 AM hanggang 9:30 PM.",
		AnswerTag:   "Most branches po ay open daily from 10 AM to 10 PM. Ang delivery ay 10 AM to 9:30 PM.",
		Keywords:    "hours,open,close,bukas,sara,oras,schedule",
	},
	{
		ID:          "faq-delivery-fee",
		Category:    "delivery",
		QuestionEN:  "Is there a delivery fee?",
		QuestionTL:  "May delivery fee ba?",
		QuestionTag: "May delivery fee po ba?",
		AnswerEN:    "A ₱49 delivery fee applies to regular orders. SuperCard holders get free delivery on qualified orders!",
		AnswerTL:    "May ₱49 delivery fee sa regular orders. Libre ang delivery para sa SuperCard holders sa qualified orders!",
		AnswerTag:   "May ₱49 delivery fee po sa regular orders. Free delivery para sa SuperCard holders sa qualified orders!",
		Keywords:    "delivery fee,shipping,delivery charge,magkano delivery",
	},
}
