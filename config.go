// config.go
//
// Command line and environment configuration.
// Responsibilities:
//   - Flags (cobra/pflag), each also readable from QUIZBOT_<FLAG> (viper).
//   - Secrets read from the environment only: MASTODON_TOKEN, QUIZBOT_ADMIN_PASSWORD_HASH,
//     QUIZBOT_JWT_SECRET.
//   - Validation before anything is started.
//
// Notes:
//   - Flag names accept "_" for "-", so --clue_delay_seconds works as well.
//   - MASTODON_TOKEN is removed from the environment once read.

package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/usobak/mastodon-image-quiz-bot/internal/bot"
	"github.com/usobak/mastodon-image-quiz-bot/internal/history"
	"github.com/usobak/mastodon-image-quiz-bot/internal/reveal"
	"github.com/usobak/mastodon-image-quiz-bot/internal/social"
)

const (
	envPrefix         = "QUIZBOT"
	tokenEnv          = "MASTODON_TOKEN"
	adminHashEnv      = "QUIZBOT_ADMIN_PASSWORD_HASH"
	jwtSecretEnv      = "QUIZBOT_JWT_SECRET"
	defaultDataset    = "./dataset/"
	defaultOutput     = "./output/"
	defaultLogFile    = "bot.log"
	defaultVisibility = social.DefaultVisibility
)

var visibilities = []string{"public", "unlisted", "private", "direct"}

// Config is the resolved configuration of one run.
type Config struct {
	dataset      string
	output       string
	noDryRun     bool
	clueDelay    int
	checkDelay   int
	endpoint     string
	owner        string
	visibility   string
	historyFile  string
	historySize  int
	rows         int
	cols         int
	messages     string
	archive      string
	listen       string
	adminUser    string
	logLevel     string
	logFile      string
	checkDataset bool
	retries      int

	// from the environment
	token     string
	adminHash string
	jwtSecret string
}

func (c *Config) validate() error {
	if c.clueDelay <= 0 {
		return fmt.Errorf("--clue-delay-seconds must be positive: %d", c.clueDelay)
	}
	if c.checkDelay <= 0 {
		return fmt.Errorf("--check-delay-seconds must be positive: %d", c.checkDelay)
	}
	if c.historySize <= 0 {
		return fmt.Errorf("--history-size must be positive: %d", c.historySize)
	}
	if c.rows <= 0 || c.cols <= 0 {
		return fmt.Errorf("invalid clue grid %dx%d", c.rows, c.cols)
	}
	if c.retries <= 0 {
		return fmt.Errorf("--retry-attempts must be positive: %d", c.retries)
	}
	if _, err := zerolog.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", c.logLevel, err)
	}
	if !slices.Contains(visibilities, c.visibility) {
		return fmt.Errorf("invalid --mastodon-visibility %q (one of %s)", c.visibility, strings.Join(visibilities, ", "))
	}
	if c.noDryRun {
		if c.endpoint == "" {
			return errors.New("--mastodon-endpoint is required with --no-dry-run")
		}
		if c.token == "" {
			return fmt.Errorf("unable to get the auth token for Mastodon: %s is not set", tokenEnv)
		}
	}
	if (c.adminHash == "") != (c.jwtSecret == "") {
		return fmt.Errorf("both %s and %s must be provided together", adminHashEnv, jwtSecretEnv)
	}
	return nil
}

func (c *Config) clueDelayDuration() time.Duration {
	return time.Duration(c.clueDelay) * time.Second
}

func (c *Config) checkDelayDuration() time.Duration {
	return time.Duration(c.checkDelay) * time.Second
}

// readSecrets pulls secrets out of the environment. The Mastodon token is
// only needed (and only removed) in live mode.
func (c *Config) readSecrets() {
	if c.noDryRun {
		c.token = strings.TrimSpace(os.Getenv(tokenEnv))
		_ = os.Unsetenv(tokenEnv)
	}
	c.adminHash = strings.TrimSpace(os.Getenv(adminHashEnv))
	c.jwtSecret = os.Getenv(jwtSecretEnv)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quizbot",
		Short:         "Mastodon bot for image-based quizzes.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.readSecrets()
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.dataset, "dataset", "d", defaultDataset, "directory of question definitions (env: QUIZBOT_DATASET)")
	fs.StringVarP(&cfg.output, "output", "o", defaultOutput, "directory for generated clue images (env: QUIZBOT_OUTPUT)")
	fs.BoolVar(&cfg.noDryRun, "no-dry-run", false, "publish to Mastodon instead of logging (env: QUIZBOT_NO_DRY_RUN)")
	fs.IntVar(&cfg.clueDelay, "clue-delay-seconds", int(bot.DefaultClueDelay/time.Second), "seconds between clues (env: QUIZBOT_CLUE_DELAY_SECONDS)")
	fs.IntVar(&cfg.checkDelay, "check-delay-seconds", int(bot.DefaultCheckInterval/time.Second), "seconds between reply checks (env: QUIZBOT_CHECK_DELAY_SECONDS)")
	fs.StringVar(&cfg.endpoint, "mastodon-endpoint", "", "Mastodon instance URL (env: QUIZBOT_MASTODON_ENDPOINT)")
	fs.StringVar(&cfg.owner, "mastodon-owner", "", "account allowed to send commands (env: QUIZBOT_MASTODON_OWNER)")
	fs.StringVar(&cfg.visibility, "mastodon-visibility", defaultVisibility, "visibility of published posts (env: QUIZBOT_MASTODON_VISIBILITY)")
	fs.StringVar(&cfg.historyFile, "history-file", history.DefaultPath, "file keeping recently used screenshots (env: QUIZBOT_HISTORY_FILE)")
	fs.IntVar(&cfg.historySize, "history-size", history.DefaultSize, "rounds to remember to avoid repeats (env: QUIZBOT_HISTORY_SIZE)")
	fs.IntVar(&cfg.rows, "rows", reveal.DefaultRows, "rows of the clue grid (env: QUIZBOT_ROWS)")
	fs.IntVar(&cfg.cols, "cols", reveal.DefaultCols, "columns of the clue grid (env: QUIZBOT_COLS)")
	fs.StringVar(&cfg.messages, "messages", "", "YAML file overriding the post templates (env: QUIZBOT_MESSAGES)")
	fs.StringVar(&cfg.archive, "archive", "", "SQLite file archiving finished rounds, empty disables (env: QUIZBOT_ARCHIVE)")
	fs.StringVar(&cfg.listen, "listen", "", "address of the status API, empty disables (env: QUIZBOT_LISTEN)")
	fs.StringVar(&cfg.adminUser, "admin-user", "admin", "user name for the admin API (env: QUIZBOT_ADMIN_USER)")
	fs.StringVar(&cfg.logLevel, "log-level", "debug", "log level (env: QUIZBOT_LOG_LEVEL)")
	fs.StringVar(&cfg.logFile, "log-file", defaultLogFile, "also log to this file, empty disables (env: QUIZBOT_LOG_FILE)")
	fs.BoolVar(&cfg.checkDataset, "check-dataset", false, "decode every dataset image before starting (env: QUIZBOT_CHECK_DATASET)")
	fs.IntVar(&cfg.retries, "retry-attempts", social.DefaultRetryPolicy().MaxAttempts, "attempts per Mastodon call (env: QUIZBOT_RETRY_ATTEMPTS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizbot v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
