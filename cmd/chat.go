package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/logger"
	"github.com/spigell/cvbuilder/internal/session"
	"github.com/spigell/cvbuilder/internal/terminal"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: "Runs the same conversation as the Telegram bot for a single local user.\n" +
		"Type @path/to/cv.pdf to upload a file. The generated PDF is written to the output directory.",
	Run: func(cmd *cobra.Command, _ []string) {
		dir, _ := cmd.Flags().GetString("output-dir")
		chat(dir)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("output-dir", "o", "", "directory for generated files (default is render.output-dir)")
}

func chat(outputDir string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stdout belongs to the conversation.
	logger, err := logger.NewWithOutput(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := loadConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	controller, err := newController(ctx, config, session.NewMemoryStore(), logger)
	if err != nil {
		logger.Fatal("creating the controller", zap.Error(err))
	}

	if outputDir == "" {
		outputDir = config.Render.OutputDir
	}
	console := terminal.New(os.Stdin, os.Stdout, outputDir, logger)
	if err := console.Run(ctx, controller); err != nil {
		logger.Fatal("chat failed", zap.Error(err))
	}
}
