// main.go
//
// Entry point of the quiz bot.
// Responsibilities:
//   - .env loading, logging setup, command line parsing.
//   - Wiring: social client, dataset, selector, clue builder, history, archive,
//     metrics, status API, state machine.
//   - Orderly shutdown on SIGINT/SIGTERM or the owner's \die command.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/usobak/mastodon-image-quiz-bot/internal/archive"
	"github.com/usobak/mastodon-image-quiz-bot/internal/bot"
	"github.com/usobak/mastodon-image-quiz-bot/internal/history"
	"github.com/usobak/mastodon-image-quiz-bot/internal/httpserver"
	"github.com/usobak/mastodon-image-quiz-bot/internal/messages"
	"github.com/usobak/mastodon-image-quiz-bot/internal/metrics"
	"github.com/usobak/mastodon-image-quiz-bot/internal/quiz"
	"github.com/usobak/mastodon-image-quiz-bot/internal/selector"
	"github.com/usobak/mastodon-image-quiz-bot/internal/social"
)

const releaseVersion = "1.0.0"

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	if err := newCmd(cfg).ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("shutting down")
	}
}

// setupLogging applies the level and tees the log into the log file.
func setupLogging(cfg *Config) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)
	if cfg.logFile == "" {
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, f)).With().Timestamp().Logger()
	return f, nil
}

func run(ctx context.Context, cfg *Config) error {
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().
		Str("dataset", cfg.dataset).
		Str("output", cfg.output).
		Bool("no_dry_run", cfg.noDryRun).
		Int("clue_delay_seconds", cfg.clueDelay).
		Int("check_delay_seconds", cfg.checkDelay).
		Str("mastodon_endpoint", cfg.endpoint).
		Str("mastodon_owner", cfg.owner).
		Str("mastodon_visibility", cfg.visibility).
		Msg("starting the bot")

	if cfg.checkDataset {
		if err := checkDataset(cfg.dataset); err != nil {
			return err
		}
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	tmpl, err := messages.Load(cfg.messages)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var rounds *archive.Store
	if cfg.archive != "" {
		db, err := openDB(cfg.archive)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrate(db); err != nil {
			return err
		}
		rounds = archive.NewStore(db)
	}

	hist := history.New(cfg.historyFile, cfg.historySize)
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	deps := bot.Deps{
		Client:   client,
		Dataset:  func() ([]quiz.Question, error) { return quiz.LoadQuestions(cfg.dataset) },
		Selector: &selector.Selector{History: hist, HistorySize: cfg.historySize, Rand: rng},
		Builder:  &quiz.Builder{OutputDir: cfg.output, Rows: cfg.rows, Cols: cfg.cols, Rand: rng},
		History:  hist,
		Messages: tmpl,
		Metrics:  m,
	}
	if rounds != nil {
		deps.Archive = rounds
	}
	machine := bot.New(bot.Config{
		Owner:         cfg.owner,
		ClueDelay:     cfg.clueDelayDuration(),
		CheckInterval: cfg.checkDelayDuration(),
	}, deps)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srvErr := make(chan error, 1)
	if cfg.listen != "" {
		opts := httpserver.Options{
			Machine:  machine,
			History:  hist,
			Gatherer: reg,
			Admin: httpserver.AdminConfig{
				User:         cfg.adminUser,
				PasswordHash: cfg.adminHash,
				Secret:       []byte(cfg.jwtSecret),
			},
		}
		if rounds != nil {
			opts.Rounds = rounds
		}
		srv := httpserver.New(opts)
		go func() { srvErr <- srv.Start(ctx, cfg.listen) }()
	}

	log.Info().Msg("running game")
	err = machine.Run(ctx)
	cancel()
	if cfg.listen != "" {
		if serr := <-srvErr; serr != nil {
			log.Error().Err(serr).Msg("status server")
		}
	}
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("interrupted")
		return nil
	}
	return err
}

func newClient(cfg *Config) (social.Client, error) {
	if !cfg.noDryRun {
		log.Info().Msg("dry run mode, won't publish anything")
		return social.NewDryRun(), nil
	}

	live, err := social.NewMastodon(social.MastodonConfig{
		Endpoint:   cfg.endpoint,
		Token:      cfg.token,
		Visibility: cfg.visibility,
	})
	cfg.token = ""
	if err != nil {
		return nil, err
	}
	policy := social.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.retries
	return social.WithRetry(live, policy), nil
}

func checkDataset(dir string) error {
	questions, err := quiz.LoadQuestions(dir)
	if err != nil {
		return err
	}
	if err := quiz.CheckImages(questions); err != nil {
		return err
	}
	log.Info().Int("questions", len(questions)).Msg("dataset ok")
	return nil
}
