package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "interview-coach"
)

type Config struct {
	Interview *InterviewConfig `mapstructure:"interview"`
	AI        *AIConfig        `mapstructure:"ai"`
	Store     *StoreConfig     `mapstructure:"store"`
	Server    *ServerConfig    `mapstructure:"server"`
}

type InterviewConfig struct {
	SessionLimit  int           `mapstructure:"session-limit"`
	RetryLimit    int           `mapstructure:"retry-limit"`
	MaxDepth      int           `mapstructure:"max-depth"`
	DefaultRole   string        `mapstructure:"default-role"`
	OracleTimeout time.Duration `mapstructure:"oracle-timeout"`
	Seed          uint64        `mapstructure:"seed"`
	// QuestionsFile replaces the built-in question catalog.
	QuestionsFile string `mapstructure:"questions-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	MaxRetries   int     `mapstructure:"max-retries"`
	MaxLogLength int     `mapstructure:"max-log-length"`
	Temperature  float32 `mapstructure:"temperature"`
}

type StoreConfig struct {
	Backend string       `mapstructure:"backend"`
	Redis   *RedisConfig `mapstructure:"redis"`
	SQLite  *struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
	Mongo *MongoConfig `mapstructure:"mongo"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ServerConfig struct {
	Listen         string `mapstructure:"listen"`
	DefaultSession string `mapstructure:"default-session"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-coach runs adaptive mock job interviews over HTTP, voice agents or the terminal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("interview.session-limit", 5)
	viper.SetDefault("interview.retry-limit", 2)
	viper.SetDefault("interview.max-depth", 1)
	viper.SetDefault("interview.default-role", "Software Engineer")
	viper.SetDefault("interview.oracle-timeout", "20s")

	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ai.gemini.max-retries", 2)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("store.redis.addr", "localhost:6379")
	viper.SetDefault("store.redis.ttl", "24h")
	viper.SetDefault("store.sqlite.path", app+".db")
	viper.SetDefault("store.mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("store.mongo.database", "interview_coach")

	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.default-session", "demo_session_final")
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without a config file every setting keeps its default. An explicit
	// --config must exist and parse.
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
