package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	anthropicadapter "github.com/ericfisherdev/attentionhub/internal/adapter/driven/anthropic"
	sqliteadapter "github.com/ericfisherdev/attentionhub/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/attentionhub/internal/application"
	"github.com/ericfisherdev/attentionhub/internal/config"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// anthropicService is the credential service name of the classifier API key.
const anthropicService = "anthropic"

// app is the wired object graph shared by every command.
type app struct {
	cfg *config.Config
	db  *sqliteadapter.DB

	repos       *sqliteadapter.RepoRepo
	users       *sqliteadapter.UserRepo
	prefs       *sqliteadapter.PreferenceRepo
	holidays    *sqliteadapter.HolidayRepo
	thresholds  *sqliteadapter.ThresholdRepo
	settings    *sqliteadapter.SettingsRepo
	credentials *sqliteadapter.CredentialRepo

	holidayCache   *application.HolidayCache
	insights       *application.InsightsCache
	classification *application.ClassificationService
}

// openApp loads configuration, opens and migrates the database, and wires
// adapters and services.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"insights_max_age", cfg.InsightsMaxAge,
		"secret_key_set", cfg.HasSecretKey(),
	)

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	return wireApp(ctx, cfg, db), nil
}

// wireApp builds adapters and services on an open, migrated database.
func wireApp(ctx context.Context, cfg *config.Config, db *sqliteadapter.DB) *app {
	a := &app{
		cfg:         cfg,
		db:          db,
		repos:       sqliteadapter.NewRepoRepo(db),
		users:       sqliteadapter.NewUserRepo(db),
		prefs:       sqliteadapter.NewPreferenceRepo(db),
		holidays:    sqliteadapter.NewHolidayRepo(db),
		thresholds:  sqliteadapter.NewThresholdRepo(db),
		settings:    sqliteadapter.NewSettingsRepo(db),
		credentials: sqliteadapter.NewCredentialRepo(db, cfg.SecretKey),
	}

	activity := sqliteadapter.NewActivityRepo(db)
	classifications := sqliteadapter.NewClassificationRepo(db)

	a.holidayCache = application.NewHolidayCache(a.holidays)
	calendars := application.NewCalendarService(a.holidayCache, a.prefs)
	insightsSvc := application.NewInsightsService(
		activity, a.repos, a.users, a.settings, a.thresholds, classifications,
		calendars, anthropicadapter.PromptVersion,
	)
	a.insights = application.NewInsightsCache(insightsSvc, cfg.InsightsMaxAge)

	var classifier driven.MentionClassifier
	if c := a.newClassifier(ctx); c != nil {
		classifier = c
	}
	a.classification = application.NewClassificationService(activity, a.users, a.settings, classifications, classifier)

	return a
}

// newClassifier builds the Anthropic classifier. A stored credential takes
// priority over the environment. Returns nil when no API key is available.
func (a *app) newClassifier(ctx context.Context) *anthropicadapter.Classifier {
	apiKey := a.cfg.AnthropicAPIKey
	stored, err := a.credentials.Get(ctx, anthropicService)
	switch {
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
	case err != nil:
		slog.Warn("failed to read stored anthropic credential", "error", err)
	case stored != "":
		apiKey = stored
	}

	if apiKey == "" {
		slog.Info("no anthropic api key configured, mention classification disabled")
		return nil
	}
	return anthropicadapter.NewClassifier(apiKey, a.cfg.AnthropicModel,
		anthropicadapter.WithRateLimit(a.cfg.ClassifyRPS),
	)
}

// Close releases the database.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// withApp opens the app for the duration of fn.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()
	return fn(a)
}
