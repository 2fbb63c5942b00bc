// Package store provides storage backends for Zappy.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zappybot/zappy/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := seedFAQsSQLite(db); err != nil {
		slog.Error("Failed to seed FAQs", "error", err)
		return nil, fmt.Errorf("failed to seed faqs: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// seedFAQsSQLite inserts the default FAQ rows, keeping operator edits.
func seedFAQsSQLite(db *sql.DB) error {
	for _, r := range defaultFAQs {
		_, err := db.Exec(`
			INSERT OR IGNORE INTO faqs
			(id, category, question_en, question_tl, question_tag, answer_en, answer_tl, answer_tag, search_keywords)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Category, r.QuestionEN, r.QuestionTL, r.QuestionTag,
			r.AnswerEN, r.AnswerTL, r.AnswerTag, r.Keywords)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetOrCreateThread(userSSID string) (models.Thread, error) {
	if userSSID == "" {
		return models.Thread{}, models.ErrEmptySenderSSID
	}
	rows, err := s.db.Query(`SELECT id, user_ssid, last_message, last_activity, created_at FROM threads WHERE user_ssid = ?`, userSSID)
	if err != nil {
		slog.Error("SQLiteStore GetOrCreateThread query failed", "error", err, "userSSID", userSSID)
		return models.Thread{}, fmt.Errorf("failed to query thread for %s: %w", userSSID, err)
	}
	defer rows.Close()
	if rows.Next() {
		return scanThread(rows)
	}
	if err := rows.Err(); err != nil {
		return models.Thread{}, fmt.Errorf("failed to iterate thread rows: %w", err)
	}

	now := time.Now()
	th := models.Thread{ID: uuid.NewString(), UserSSID: userSSID, LastActivity: now, CreatedAt: now}
	_, err = s.db.Exec(`INSERT INTO threads (id, user_ssid, last_activity, created_at) VALUES (?, ?, ?, ?)`,
		th.ID, th.UserSSID, th.LastActivity, th.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore GetOrCreateThread insert failed", "error", err, "userSSID", userSSID)
		return models.Thread{}, fmt.Errorf("failed to create thread for %s: %w", userSSID, err)
	}
	slog.Debug("SQLiteStore created thread", "threadID", th.ID, "userSSID", userSSID)
	return th, nil
}

func (s *SQLiteStore) GetThread(threadID string) (models.Thread, error) {
	rows, err := s.db.Query(`SELECT id, user_ssid, last_message, last_activity, created_at FROM threads WHERE id = ?`, threadID)
	if err != nil {
		slog.Error("SQLiteStore GetThread query failed", "error", err, "threadID", threadID)
		return models.Thread{}, fmt.Errorf("failed to query thread %s: %w", threadID, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return models.Thread{}, ErrThreadNotFound
	}
	return scanThread(rows)
}

func (s *SQLiteStore) ListThreads() ([]models.Thread, error) {
	rows, err := s.db.Query(`SELECT id, user_ssid, last_message, last_activity, created_at FROM threads ORDER BY last_activity DESC`)
	if err != nil {
		slog.Error("SQLiteStore ListThreads query failed", "error", err)
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []models.Thread
	for rows.Next() {
		th, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate thread rows: %w", err)
	}
	return threads, nil
}

func (s *SQLiteStore) UpsertUser(u models.User) error {
	if u.SSID == "" {
		return models.ErrEmptySenderSSID
	}
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO users (id, ssid, first_name, last_name, profile_pic, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ssid) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			profile_pic = excluded.profile_pic,
			updated_at = excluded.updated_at`,
		uuid.NewString(), u.SSID, nilIfEmpty(u.FirstName), nilIfEmpty(u.LastName), nilIfEmpty(u.ProfilePic), now, now)
	if err != nil {
		slog.Error("SQLiteStore UpsertUser failed", "error", err, "ssid", u.SSID)
		return fmt.Errorf("failed to upsert user %s: %w", u.SSID, err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ssid string) (models.User, error) {
	var u models.User
	var firstName, lastName, profilePic sql.NullString
	err := s.db.QueryRow(`SELECT id, ssid, first_name, last_name, profile_pic, created_at, updated_at FROM users WHERE ssid = ?`, ssid).
		Scan(&u.ID, &u.SSID, &firstName, &lastName, &profilePic, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetUser failed", "error", err, "ssid", ssid)
		return models.User{}, fmt.Errorf("failed to query user %s: %w", ssid, err)
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.ProfilePic = profilePic.String
	return u, nil
}

func (s *SQLiteStore) CreateMessage(in models.CreateMessageInput) (models.Message, error) {
	if err := in.Validate(); err != nil {
		return models.Message{}, err
	}
	th, err := s.GetOrCreateThread(in.SenderSSID)
	if err != nil {
		return models.Message{}, err
	}
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
	_, err = s.db.Exec(`
		INSERT INTO messages (id, thread_id, sender_ssid, content, message_type, is_from_bot, delivery_status, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ThreadID, msg.SenderSSID, msg.Content, msg.MessageType, msg.IsFromBot,
		nilIfEmpty(string(msg.DeliveryStatus)), msg.Timestamp)
	if err != nil {
		slog.Error("SQLiteStore CreateMessage failed", "error", err, "threadID", th.ID)
		return models.Message{}, fmt.Errorf("failed to insert message for thread %s: %w", th.ID, err)
	}
	_, err = s.db.Exec(`UPDATE threads SET last_message = ?, last_activity = ? WHERE id = ?`, msg.Content, now, th.ID)
	if err != nil {
		slog.Error("SQLiteStore CreateMessage thread update failed", "error", err, "threadID", th.ID)
		return models.Message{}, fmt.Errorf("failed to update thread %s: %w", th.ID, err)
	}
	return msg, nil
}

func (s *SQLiteStore) ListMessages(threadID string) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, thread_id, sender_ssid, content, message_type, is_from_bot, delivery_status, provider_message_id, failure_reason, timestamp
		FROM messages WHERE thread_id = ? ORDER BY timestamp ASC`, threadID)
	if err != nil {
		slog.Error("SQLiteStore ListMessages query failed", "error", err, "threadID", threadID)
		return nil, fmt.Errorf("failed to query messages for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return msgs, nil
}

func (s *SQLiteStore) RecentHistory(threadID string, limit int) ([]models.HistoryTurn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.Query(`
		SELECT id, thread_id, sender_ssid, content, message_type, is_from_bot, delivery_status, provider_message_id, failure_reason, timestamp
		FROM messages WHERE thread_id = ? ORDER BY timestamp DESC LIMIT ?`, threadID, limit)
	if err != nil {
		slog.Error("SQLiteStore RecentHistory query failed", "error", err, "threadID", threadID)
		return nil, fmt.Errorf("failed to query history for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var turns []models.HistoryTurn
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, historyTurn(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	// Rows came newest first; reverse to chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *SQLiteStore) UpdateMessageDelivery(messageID string, status models.DeliveryStatus, providerMessageID, failureReason string) error {
	res, err := s.db.Exec(`UPDATE messages SET delivery_status = ?, provider_message_id = ?, failure_reason = ? WHERE id = ?`,
		status, nilIfEmpty(providerMessageID), nilIfEmpty(failureReason), messageID)
	if err != nil {
		slog.Error("SQLiteStore UpdateMessageDelivery failed", "error", err, "messageID", messageID)
		return fmt.Errorf("failed to update delivery for message %s: %w", messageID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *SQLiteStore) GetContext(threadID string) (models.ConversationContext, error) {
	ctx, err := s.queryContext(threadID)
	if err == nil {
		return ctx, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ConversationContext{}, err
	}
	ctx = defaultContext(threadID)
	if err := s.writeContext(ctx); err != nil {
		return models.ConversationContext{}, err
	}
	return ctx, nil
}

func (s *SQLiteStore) UpdateContext(threadID string, patch models.ContextPatch) (models.ConversationContext, error) {
	ctx, err := s.queryContext(threadID)
	if errors.Is(err, sql.ErrNoRows) {
		ctx = defaultContext(threadID)
	} else if err != nil {
		return models.ConversationContext{}, err
	}
	applyPatch(&ctx, patch)
	if err := s.writeContext(ctx); err != nil {
		return models.ConversationContext{}, err
	}
	return ctx, nil
}

func (s *SQLiteStore) queryContext(threadID string) (models.ConversationContext, error) {
	var ctx models.ConversationContext
	var currentFlow, currentStep, flowDataJSON sql.NullString
	err := s.db.QueryRow(`
		SELECT thread_id, current_flow, current_step, flow_data, language, needs_human, last_activity
		FROM conversation_contexts WHERE thread_id = ?`, threadID).
		Scan(&ctx.ThreadID, &currentFlow, &currentStep, &flowDataJSON, &ctx.Language, &ctx.NeedsHuman, &ctx.LastActivity)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("SQLiteStore queryContext failed", "error", err, "threadID", threadID)
		}
		return ctx, err
	}
	ctx.CurrentFlow = models.FlowType(currentFlow.String)
	ctx.CurrentStep = models.StepType(currentStep.String)
	if flowDataJSON.Valid && flowDataJSON.String != "" {
		if err := json.Unmarshal([]byte(flowDataJSON.String), &ctx.FlowData); err != nil {
			slog.Error("SQLiteStore queryContext flow data unmarshal failed", "error", err, "threadID", threadID)
			return ctx, fmt.Errorf("failed to decode flow data for thread %s: %w", threadID, err)
		}
	}
	return ctx, nil
}

func (s *SQLiteStore) writeContext(ctx models.ConversationContext) error {
	var flowDataJSON string
	if len(ctx.FlowData) > 0 {
		b, err := json.Marshal(ctx.FlowData)
		if err != nil {
			slog.Error("SQLiteStore writeContext flow data marshal failed", "error", err, "threadID", ctx.ThreadID)
			return fmt.Errorf("failed to encode flow data for thread %s: %w", ctx.ThreadID, err)
		}
		flowDataJSON = string(b)
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO conversation_contexts
		(thread_id, current_flow, current_step, flow_data, language, needs_human, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ctx.ThreadID, nilIfEmpty(string(ctx.CurrentFlow)), nilIfEmpty(string(ctx.CurrentStep)),
		nilIfEmpty(flowDataJSON), ctx.Language, ctx.NeedsHuman, ctx.LastActivity)
	if err != nil {
		slog.Error("SQLiteStore writeContext failed", "error", err, "threadID", ctx.ThreadID)
		return fmt.Errorf("failed to save context for thread %s: %w", ctx.ThreadID, err)
	}
	return nil
}

func (s *SQLiteStore) ClearThread(threadID string) error {
	if _, err := s.GetThread(threadID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		slog.Error("SQLiteStore ClearThread delete messages failed", "error", err, "threadID", threadID)
		return fmt.Errorf("failed to delete messages for thread %s: %w", threadID, err)
	}
	if err := s.writeContext(defaultContext(threadID)); err != nil {
		return err
	}
	slog.Debug("SQLiteStore ClearThread succeeded", "threadID", threadID)
	return nil
}

func (s *SQLiteStore) SearchFAQs(query string, lang models.Language) ([]models.FAQ, error) {
	rows, err := s.db.Query(`
		SELECT id, category, question_en, question_tl, question_tag, answer_en, answer_tl, answer_tag, search_keywords
		FROM faqs`)
	if err != nil {
		slog.Error("SQLiteStore SearchFAQs query failed", "error", err)
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}
	defer rows.Close()

	var out []models.FAQ
	for rows.Next() {
		var r faqRow
		var qTL, qTag, aTL, aTag sql.NullString
		if err := rows.Scan(&r.ID, &r.Category, &r.QuestionEN, &qTL, &qTag, &r.AnswerEN, &aTL, &aTag, &r.Keywords); err != nil {
			return nil, fmt.Errorf("scan faq row failed: %w", err)
		}
		r.QuestionTL, r.QuestionTag = qTL.String, qTag.String
		r.AnswerTL, r.AnswerTag = aTL.String, aTag.String
		if r.matches(query) {
			out = append(out, r.localize(lang))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faq rows: %w", err)
	}
	return out, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
