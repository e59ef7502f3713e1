package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pravoline/intakebot/internal/api"
	"github.com/pravoline/intakebot/internal/assistant"
	"github.com/pravoline/intakebot/internal/bot"
	"github.com/pravoline/intakebot/internal/flow"
	"github.com/pravoline/intakebot/internal/models"
	"github.com/pravoline/intakebot/internal/sheets"
	"github.com/pravoline/intakebot/internal/store"
	"github.com/pravoline/intakebot/internal/telegram"
	"github.com/pravoline/intakebot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for intake state data
	DefaultStateDir = "/var/lib/intakebot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "intakebot.db"
	// DefaultTimezone stamps booking creation times
	DefaultTimezone = "Europe/Moscow"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags); err != nil {
		slog.Error("intakebot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("intakebot exited successfully")
}

// Config holds environment configuration
type Config struct {
	TelegramToken   string
	TelegramGroupID string
	OpenAIKey       string
	AssistantID     string
	SheetID         string
	CredentialsFile string
	PublicURL       string
	APIAddr         string
	DatabaseURL     string
	StateDir        string
	Timezone        string
	SessionTTL      time.Duration
}

// Flags holds command line flag values
type Flags struct {
	token           *string
	groupID         *string
	openaiKey       *string
	assistantID     *string
	sheetID         *string
	credentialsFile *string
	publicURL       *string
	apiAddr         *string
	dbDSN           *string
	timezone        *string
	sessionTTL      time.Duration
}

// initializeLogger sets up structured logging. Debug level is the default;
// set LOG_DEBUG=false for info-level output.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LOG_DEBUG", true) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
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
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramGroupID: os.Getenv("TELEGRAM_GROUP_ID"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		AssistantID:     os.Getenv("OPENAI_ASSISTANT_ID"),
		SheetID:         os.Getenv("GOOGLE_SHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		PublicURL:       os.Getenv("PUBLIC_URL"),
		APIAddr:         os.Getenv("API_ADDR"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("INTAKE_STATE_DIR"),
		Timezone:        util.GetEnv("BOOKING_TIMEZONE", DefaultTimezone),
		SessionTTL:      util.ParseDurationEnv("SESSION_TTL", flow.DefaultSessionTTL),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No INTAKE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// Default to SQLite in the state directory when no database URL is given
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.TelegramToken != "",
		"TELEGRAM_GROUP_ID_SET", config.TelegramGroupID != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_ASSISTANT_ID_SET", config.AssistantID != "",
		"GOOGLE_SHEET_ID_SET", config.SheetID != "",
		"PUBLIC_URL", config.PublicURL,
		"API_ADDR", config.APIAddr,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"INTAKE_STATE_DIR", config.StateDir,
		"BOOKING_TIMEZONE", config.Timezone)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		token:           flag.String("telegram-token", config.TelegramToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		groupID:         flag.String("telegram-group", config.TelegramGroupID, "Telegram staff group chat ID (overrides $TELEGRAM_GROUP_ID)"),
		openaiKey:       flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		assistantID:     flag.String("assistant-id", config.AssistantID, "OpenAI assistant ID (overrides $OPENAI_ASSISTANT_ID)"),
		sheetID:         flag.String("sheet-id", config.SheetID, "Google Sheet ID for bookings (overrides $GOOGLE_SHEET_ID)"),
		credentialsFile: flag.String("credentials-file", config.CredentialsFile, "Google service account credentials file (overrides $GOOGLE_CREDENTIALS_FILE)"),
		publicURL:       flag.String("public-url", config.PublicURL, "public base URL for the Telegram webhook (overrides $PUBLIC_URL)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		dbDSN:           flag.String("db-dsn", config.DatabaseURL, "database DSN for the booking archive (overrides $DATABASE_URL)"),
		timezone:        flag.String("timezone", config.Timezone, "timezone for booking timestamps (overrides $BOOKING_TIMEZONE)"),
		sessionTTL:      config.SessionTTL,
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"tokenSet", *flags.token != "",
		"groupIDSet", *flags.groupID != "",
		"openaiKeySet", *flags.openaiKey != "",
		"assistantIDSet", *flags.assistantID != "",
		"sheetIDSet", *flags.sheetID != "",
		"publicURL", *flags.publicURL,
		"apiAddr", *flags.apiAddr,
		"dbDSN_set", *flags.dbDSN != "",
		"timezone", *flags.timezone)

	return flags
}

// buildArchive opens the local booking archive based on the DSN type.
func buildArchive(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		slog.Debug("No database DSN provided, using in-memory archive")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL archive")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite archive", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// buildSink builds the spreadsheet sink, falling back to the disabled sink
// when Sheets is not configured.
func buildSink(ctx context.Context, flags Flags) flow.BookingSink {
	if *flags.sheetID == "" || *flags.credentialsFile == "" {
		return sheets.NewDisabled()
	}
	client, err := sheets.NewClient(ctx, *flags.sheetID, *flags.credentialsFile)
	if err != nil {
		slog.Error("Failed to create sheets client, falling back to disabled sink", "error", err)
		return sheets.NewDisabled()
	}
	return client
}

// archiveAdapter exposes a store.Store as a flow.BookingArchive.
type archiveAdapter struct {
	store store.Store
}

func (a archiveAdapter) ArchiveBooking(_ context.Context, rec models.BookingRecord) error {
	return a.store.AddBooking(rec)
}

func run(ctx context.Context, flags Flags) error {
	loc, err := time.LoadLocation(*flags.timezone)
	if err != nil {
		slog.Warn("Invalid timezone, falling back to UTC", "timezone", *flags.timezone, "error", err)
		loc = time.UTC
	}

	archive, err := buildArchive(flags)
	if err != nil {
		return err
	}
	defer archive.Close()

	tgOpts := []telegram.Option{}
	if *flags.groupID != "" {
		tgOpts = append(tgOpts, telegram.WithGroupID(*flags.groupID))
	}
	tg, err := telegram.NewClient(*flags.token, tgOpts...)
	if err != nil {
		return err
	}

	var notifier flow.Notifier
	if *flags.groupID != "" {
		notifier = tg
	} else {
		slog.Warn("No Telegram group configured, staff notifications disabled")
	}

	sink := buildSink(ctx, flags)
	intake := flow.NewIntakeService(sink, archiveAdapter{store: archive}, notifier, flow.DefaultLexicon(), loc)

	threads := assistant.NewOpenAIThreads(*flags.openaiKey, *flags.assistantID)
	responder := assistant.NewClient(threads, intake, intake)

	sessions := flow.NewSessionStore(flags.sessionTTL)
	sessions.StartSweeper(ctx, flow.DefaultSweepInterval)

	booking := flow.NewBookingFlow(models.Services())
	botHandler := bot.NewHandler(tg, sessions, booking, intake, responder)

	if *flags.publicURL != "" {
		if err := tg.SetWebhook(ctx, *flags.publicURL+"/webhook"); err != nil {
			slog.Error("Failed to register Telegram webhook", "error", err)
		} else {
			slog.Info("Telegram webhook registered", "url", *flags.publicURL+"/webhook")
		}
	}

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(botHandler, responder, intake, archive, models.Services(), apiOpts...)

	slog.Info("Bootstrapping intakebot with configured modules")
	return server.Run(ctx)
}
