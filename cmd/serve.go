package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/logger"
	"github.com/spigell/cvbuilder/internal/secrets"
	"github.com/spigell/cvbuilder/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("database", "s", "", "sqlite file for sessions. Sessions are kept in memory when unset.")
	viper.BindPFlag("session.database", serveCmd.Flags().Lookup("database"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := loadConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cvbuilder bot", zap.String("version", version))

	token, err := secrets.Load(secrets.Source{
		Name:  "telegram bot token",
		Value: config.Telegram.Token,
		File:  config.Telegram.TokenFile,
		Env:   "TELEGRAM_BOT_TOKEN",
	})
	if err != nil {
		logger.Fatal(
			"loading telegram token",
			zap.Error(err),
			zap.String("hint", "set TELEGRAM_BOT_TOKEN environment variable or the 'telegram.token-file' key in the configuration file"),
		)
	}

	store, closeStore := newStore(config.Session, logger)
	defer closeStore()

	controller, err := newController(ctx, config, store, logger)
	if err != nil {
		logger.Fatal("creating the controller", zap.Error(err))
	}

	go purgeSessions(ctx, store, config.Session.TTL, config.Session.PurgeInterval, logger)

	client := telegram.New(logger, token)
	bot := telegram.NewBot(client, controller, logger, config.Limits.MaxUploadMB<<20)
	if config.Telegram.PollTimeout > 0 {
		bot.SetPollTimeout(config.Telegram.PollTimeout)
	}

	if err := bot.Run(ctx); err != nil {
		logger.Error("bot stopped", zap.Error(err))
	}
	logger.Info("bye")
}
