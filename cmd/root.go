package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobrec/internal/feed"
	"github.com/spigell/jobrec/internal/filtering"
)

const (
	app = "jobrec"
)

type Config struct {
	Catalog      *CatalogConfig   `mapstructure:"catalog"`
	Embedding    *EmbeddingConfig `mapstructure:"embedding"`
	Recommend    *RecommendConfig `mapstructure:"recommend"`
	TaxonomyFile string           `mapstructure:"taxonomy-file"`
	Server       *ServerConfig    `mapstructure:"server"`
}

// CatalogConfig names the feeds the catalog is loaded from. Every
// configured feed is loaded.
type CatalogConfig struct {
	File            string       `mapstructure:"file"`
	URL             string       `mapstructure:"url"`
	TokenFile       string       `mapstructure:"token-file"`
	Feed            *feed.Params `mapstructure:"feed"`
	DatabaseURLFile string       `mapstructure:"database-url-file"`
	Table           string       `mapstructure:"table"`
}

type EmbeddingConfig struct {
	// Provider is one of hash, gemini or openai.
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base-url"`
	Dimension   int           `mapstructure:"dimension"`
	APIKeyFile  string        `mapstructure:"api-key-file"`
	MaxAttempts int           `mapstructure:"max-attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
	Workers     int           `mapstructure:"workers"`
}

type RecommendConfig struct {
	Limit       int                `mapstructure:"limit"`
	Timeout     time.Duration      `mapstructure:"timeout"`
	Workers     int                `mapstructure:"workers"`
	ExcludeFile string             `mapstructure:"exclude-file"`
	Filters     filtering.Criteria `mapstructure:"filters"`
	Exclude     *struct {
		Companies []string
	}
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobrec ranks job postings against a resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	for key, env := range map[string]string{
		"embedding.api-key-file":    "JOBREC_EMBEDDING_API_KEY_FILE",
		"catalog.database-url-file": "JOBREC_DATABASE_URL_FILE",
		"catalog.token-file":        "JOBREC_FEED_TOKEN_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("embedding.provider", "hash")
	viper.SetDefault("embedding.max-attempts", 3)
	viper.SetDefault("embedding.backoff", "200ms")
	viper.SetDefault("recommend.limit", 10)
	viper.SetDefault("recommend.timeout", "10s")
	viper.SetDefault("server.address", ":8080")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobrec.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("catalog", "", "a JSON file with postings to load into the catalog")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("catalog.file", rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Flags and defaults are enough without a config file, but a broken
	// one must stop us.
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
	if config == nil {
		config = &Config{}
	}
	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}
	if config.Embedding == nil {
		config.Embedding = &EmbeddingConfig{}
	}
	if config.Recommend == nil {
		config.Recommend = &RecommendConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
