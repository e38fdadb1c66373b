package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/cv"
	"github.com/spigell/cvbuilder/internal/logger"
	"github.com/spigell/cvbuilder/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render a CV record stored as JSON to PDF",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		template, _ := cmd.Flags().GetString("template")
		dir, _ := cmd.Flags().GetString("output-dir")
		renderFile(args[0], template, dir)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("template", "t", string(render.Modern), "template key: modern, classic or creative")
	renderCmd.Flags().StringP("output-dir", "o", "", "directory for the generated file (default is render.output-dir)")
}

func renderFile(path, key, outputDir string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := loadConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	info, ok := render.Lookup(key)
	if !ok {
		logger.Fatal("unknown template", zap.String("template", key))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the record", zap.Error(err))
	}

	var rec cv.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Fatal("decoding the record", zap.Error(err))
	}

	valid, err := cv.Validate(&rec)
	if err != nil {
		logger.Fatal("validating the record", zap.Error(err))
	}

	renderer := render.NewRenderer(config.Render.ChromePath, config.Render.Timeout, logger)
	pdf, err := renderer.Render(ctx, valid, info.Key)
	if err != nil {
		logger.Fatal("rendering the pdf", zap.Error(err))
	}

	if outputDir == "" {
		outputDir = config.Render.OutputDir
	}
	out := filepath.Join(outputDir, render.FileName(valid))
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		logger.Fatal("writing the pdf", zap.Error(err))
	}
	fmt.Println(out)
}
