package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cvbuilder/internal/ai/gemini"
	"github.com/spigell/cvbuilder/internal/flow"
	"github.com/spigell/cvbuilder/internal/render"
)

const (
	app       = "cvbuilder"
	envPrefix = "CVBUILDER"
)

type Config struct {
	Telegram *TelegramConfig `mapstructure:"telegram"`
	Gemini   *GeminiConfig   `mapstructure:"gemini"`
	Session  *SessionConfig  `mapstructure:"session"`
	Render   *RenderConfig   `mapstructure:"render"`
	Limits   *LimitsConfig   `mapstructure:"limits"`
}

type TelegramConfig struct {
	Token       string        `mapstructure:"token"`
	TokenFile   string        `mapstructure:"token-file"`
	PollTimeout time.Duration `mapstructure:"poll-timeout"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	Temperature  float32       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type SessionConfig struct {
	// Database is the SQLite file. Sessions are kept in memory when it is empty.
	Database      string        `mapstructure:"database"`
	TTL           time.Duration `mapstructure:"ttl"`
	PurgeInterval time.Duration `mapstructure:"purge-interval"`
}

type RenderConfig struct {
	ChromePath string        `mapstructure:"chrome-path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	OutputDir  string        `mapstructure:"output-dir"`
}

type LimitsConfig struct {
	MaxUploadMB     int64         `mapstructure:"max-upload-mb"`
	ExternalCalls   int64         `mapstructure:"external-calls"`
	ExternalTimeout time.Duration `mapstructure:"external-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cvbuilder is a chat bot that collects CV data and renders it to PDF",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	if err := viper.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN"); err != nil {
		log.Fatalf("binding TELEGRAM_BOT_TOKEN environment variable: %v", err)
	}
	if err := viper.BindEnv("gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("session.database", "CVBUILDER_DATABASE"); err != nil {
		log.Fatalf("binding CVBUILDER_DATABASE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cvbuilder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("telegram.token-file", "")
	viper.SetDefault("telegram.poll-timeout", 50*time.Second)

	viper.SetDefault("gemini.api-key-file", "")
	viper.SetDefault("gemini.model", gemini.DefaultModel)
	viper.SetDefault("gemini.temperature", gemini.DefaultTemperature)
	viper.SetDefault("gemini.timeout", flow.DefaultExternalTimeout)
	viper.SetDefault("gemini.max-log-length", 2000)

	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("session.purge-interval", time.Hour)

	viper.SetDefault("render.chrome-path", "")
	viper.SetDefault("render.timeout", render.DefaultTimeout)
	viper.SetDefault("render.output-dir", ".")

	viper.SetDefault("limits.max-upload-mb", flow.DefaultMaxUploadBytes>>20)
	viper.SetDefault("limits.external-calls", flow.DefaultExternalCalls)
	viper.SetDefault("limits.external-timeout", flow.DefaultExternalTimeout)
}

func initConfig() {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
