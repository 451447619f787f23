package main

import (
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/yasarefe-official/igxdown/internal/bot"
	"github.com/yasarefe-official/igxdown/pkg/backend"
	"github.com/yasarefe-official/igxdown/pkg/config"
	"github.com/yasarefe-official/igxdown/pkg/fetch"
	"github.com/yasarefe-official/igxdown/pkg/lang"
	"github.com/yasarefe-official/igxdown/pkg/logger"
	"github.com/yasarefe-official/igxdown/pkg/ratelimit"
	"github.com/yasarefe-official/igxdown/pkg/session"
	"github.com/yasarefe-official/igxdown/pkg/workflow"
)

// runCmd starts the bot
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Telegram bot",
	Long: `Start long-polling Telegram for updates and serving download
requests until interrupted.

The bot token comes from the config file, a .env file, or the
TELEGRAM_TOKEN environment variable.`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	account := loadAccount(log)

	backends, err := buildBackends(cfg, account, log)
	if err != nil {
		return err
	}

	store, err := lang.NewStore(cfg.Language.DatabasePath, cfg.Language.Default, log)
	if err != nil {
		return fmt.Errorf("failed to open language store: %w", err)
	}
	defer store.Close()
	localizer := lang.NewLocalizer(store)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}

	fetcher := fetch.New(cfg.Download.TempDir, cfg.Download.MaxFileSize, cfg.Download.MinProbeBytes, cfg.Backends.Timeout, log)
	limiter := ratelimit.NewPerUser(cfg.RateLimit.Burst, cfg.RateLimit.PerUserInterval)

	engine := workflow.NewEngine(backends, fetcher, limiter, bot.NewMessenger(api), localizer, workflow.Options{
		Shuffle:        cfg.Backends.Shuffle,
		BackendTimeout: cfg.Backends.Timeout,
		TotalBudget:    cfg.Download.TotalBudget,
		SendByURL:      cfg.Download.SendByURL,
	}, log)

	b := bot.New(api, engine, localizer, store, cfg.Telegram.UpdateTimeout, cfg.Telegram.Concurrency, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("bot stopped")
	return nil
}

// loadAccount retrieves the stored Instagram session if there is one.
// The bot still serves public posts without it.
func loadAccount(log logger.Logger) *session.Account {
	manager, err := session.NewManager()
	if err != nil {
		log.WithError(err).Warn("no credential store available, running anonymous")
		return nil
	}
	account, err := manager.Retrieve()
	if err != nil {
		log.Info("no instagram session stored, running anonymous")
		return nil
	}
	log.WithField("username", account.Username).Info("instagram session loaded")
	return account
}

// buildBackends assembles the attempt chain in configured order. A
// missing yt-dlp binary drops that backend with a warning instead of
// refusing to start.
func buildBackends(cfg *config.Config, account *session.Account, log logger.Logger) ([]backend.Backend, error) {
	var chain []backend.Backend
	for _, name := range cfg.Backends.Order {
		switch name {
		case "instagram":
			chain = append(chain, backend.NewInstagram(cfg.Backends.Timeout, account, log))
		case "snapgrab":
			chain = append(chain, backend.NewSnapgrab(cfg.Backends.SnapgrabEndpoint, cfg.Backends.Timeout, log))
		case "ytdlp":
			y, err := backend.NewYtDlp(cfg.Backends.YtDlpPath, log)
			if err != nil {
				log.WithError(err).Warn("yt-dlp not found, backend disabled")
				continue
			}
			chain = append(chain, y)
		default:
			return nil, fmt.Errorf("unknown backend %q in configuration", name)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no usable backends configured")
	}
	return chain, nil
}
