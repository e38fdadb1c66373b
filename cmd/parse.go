package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/cv"
	"github.com/spigell/cvbuilder/internal/document"
	"github.com/spigell/cvbuilder/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Extract a CV record from a PDF, DOCX or text file and print it as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		parse(args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func parse(path string) {
	ctx := context.Background()

	logger, err := logger.NewWithOutput(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := loadConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	adapter, err := newExtractor(ctx, config.Gemini, logger)
	if err != nil {
		logger.Fatal("creating the extraction adapter", zap.Error(err))
	}
	if adapter == nil {
		logger.Fatal("a gemini api key is required to parse documents")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the document", zap.Error(err))
	}

	text, err := document.New().Extract(ctx, document.DetectMIME(path), data)
	if err != nil {
		logger.Fatal("extracting document text", zap.String("file", path), zap.Error(err))
	}

	rec, err := adapter.Extract(ctx, text)
	if err != nil {
		logger.Fatal("extracting the cv record", zap.Error(err))
	}

	out, err := cv.Canonical(rec)
	if err != nil {
		logger.Fatal("encoding the cv record", zap.Error(err))
	}
	fmt.Println(string(out))
}
