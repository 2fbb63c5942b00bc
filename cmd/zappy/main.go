package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zappybot/zappy/internal/api"
	"github.com/zappybot/zappy/internal/catalog"
	"github.com/zappybot/zappy/internal/flow"
	"github.com/zappybot/zappy/internal/genai"
	"github.com/zappybot/zappy/internal/intent"
	"github.com/zappybot/zappy/internal/messaging"
	"github.com/zappybot/zappy/internal/payment"
	"github.com/zappybot/zappy/internal/store"
	"github.com/zappybot/zappy/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Zappy state data
	DefaultStateDir = "/var/lib/zappy"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "zappy.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(*flags.dbDSN); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	st, err := store.NewFromDSN(*flags.dbDSN)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	svc, err := messaging.NewFacebookService(
		messaging.WithAccessToken(*flags.pageToken),
		messaging.WithAPIBase(*flags.graphBase),
	)
	if err != nil {
		slog.Error("Failed to configure messaging service", "error", err)
		os.Exit(1)
	}
	sender := messaging.NewTrackedSender(svc, st)
	states := flow.NewStateManager(st)

	var ai *genai.Client
	if *flags.openaiKey != "" {
		ai, err = genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
		if err != nil {
			slog.Error("Failed to configure GenAI client", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("No OpenAI API key set, running on keyword fallbacks only")
	}

	var detector *intent.Detector
	var matcher *catalog.Matcher
	if ai != nil {
		detector = intent.NewDetector(ai)
		matcher = catalog.NewMatcher(ai)
	} else {
		detector = intent.NewDetector(nil)
		matcher = catalog.NewMatcher(nil)
	}

	deps := flow.Deps{
		Store:    st,
		Sender:   sender,
		States:   states,
		Matcher:  matcher,
		Payment:  payment.NewService(buildPaymentOptions(flags)...),
		Notifier: payment.NewNotifier(*flags.orderWebhookURL),
	}

	var reaper *flow.Reaper
	if !util.ParseBoolEnv("DISABLE_IDLE_NUDGE", false) {
		reaper = flow.NewReaper(sender, time.Duration(*flags.idleMinutes)*time.Minute)
	} else {
		slog.Info("Idle nudges disabled")
	}

	proc := flow.NewProcessor(deps, svc, detector, reaper,
		flow.NewFAQHandler(deps),
		flow.NewOrderHandler(deps),
		flow.NewLocationHandler(deps),
		flow.NewPromoHandler(deps),
		flow.NewComplaintHandler(deps),
		flow.NewPartyHandler(deps),
		flow.NewTrackingHandler(deps, nil),
		flow.NewSupercardHandler(deps),
	)
	defer proc.Stop()

	server := api.NewServer(st, proc, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping Zappy", "addr", *flags.apiAddr, "dsn_set", *flags.dbDSN != "", "ai_enabled", ai != nil)
	if err := server.Run(ctx); err != nil {
		slog.Error("Zappy failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Zappy exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL     string
	StateDir        string
	OpenAIKey       string
	PageToken       string
	VerifyToken     string
	GraphBase       string
	APIAddr         string
	PaymentBaseURL  string
	OrderWebhookURL string
}

// Flags holds command line flag values
type Flags struct {
	dbDSN           *string
	openaiKey       *string
	pageToken       *string
	verifyToken     *string
	graphBase       *string
	apiAddr         *string
	paymentBaseURL  *string
	orderWebhookURL *string
	idleMinutes     *int
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("ZAPPY_STATE_DIR"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		PageToken:       os.Getenv("PAGE_ACCESS_TOKEN"),
		VerifyToken:     os.Getenv("VERIFY_TOKEN"),
		GraphBase:       os.Getenv("GRAPH_API_BASE"),
		APIAddr:         os.Getenv("API_ADDR"),
		PaymentBaseURL:  os.Getenv("PAYMENT_BASE_URL"),
		OrderWebhookURL: os.Getenv("ORDER_WEBHOOK_URL"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No ZAPPY_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"ZAPPY_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"PAGE_ACCESS_TOKEN_SET", config.PageToken != "",
		"VERIFY_TOKEN_SET", config.VerifyToken != "",
		"API_ADDR", config.APIAddr)

	return config
}

// resolveDSN picks the database DSN: an explicit DATABASE_URL wins, otherwise
// SQLite in the state directory.
func resolveDSN(config Config) string {
	if config.DatabaseURL != "" {
		return config.DatabaseURL
	}
	return filepath.Join(config.StateDir, DefaultDBFileName)
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDSN:           flag.String("db-dsn", resolveDSN(config), "database DSN (overrides $DATABASE_URL)"),
		openaiKey:       flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		pageToken:       flag.String("page-token", config.PageToken, "Messenger page access token (overrides $PAGE_ACCESS_TOKEN)"),
		verifyToken:     flag.String("verify-token", config.VerifyToken, "webhook verification token (overrides $VERIFY_TOKEN)"),
		graphBase:       flag.String("graph-base", config.GraphBase, "Graph API base URL (overrides $GRAPH_API_BASE)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		paymentBaseURL:  flag.String("payment-base-url", config.PaymentBaseURL, "checkout base URL (overrides $PAYMENT_BASE_URL)"),
		orderWebhookURL: flag.String("order-webhook-url", config.OrderWebhookURL, "order fulfillment webhook URL (overrides $ORDER_WEBHOOK_URL)"),
		idleMinutes:     flag.Int("idle-nudge-minutes", 5, "minutes of silence before the idle check-in"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"pageTokenSet", *flags.pageToken != "",
		"apiAddr", *flags.apiAddr,
		"idleMinutes", *flags.idleMinutes)

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}
	stateDir := filepath.Dir(dsn)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	return os.MkdirAll(stateDir, 0755)
}

// buildPaymentOptions constructs payment configuration options
func buildPaymentOptions(flags Flags) []payment.Option {
	var opts []payment.Option
	if *flags.paymentBaseURL != "" {
		opts = append(opts, payment.WithBaseURL(*flags.paymentBaseURL))
	}
	return opts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var opts []api.Option
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.verifyToken != "" {
		opts = append(opts, api.WithVerifyToken(*flags.verifyToken))
	}
	return opts
}
