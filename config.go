package fsptrainer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the trainer
type Config struct {
	TermBank TermBankConfig `mapstructure:"termbank"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Server   ServerConfig   `mapstructure:"server"`
	History  HistoryConfig  `mapstructure:"history"`
	Log      LogConfig      `mapstructure:"log"`
}

// TermBankConfig points at the term bank file
type TermBankConfig struct {
	Path string `mapstructure:"path"`
}

// QuizConfig holds the quiz length choices
type QuizConfig struct {
	Lengths       []int `mapstructure:"lengths"`
	DefaultLength int   `mapstructure:"default_length"`
	MaxLength     int   `mapstructure:"max_length"`
}

// LLMConfig configures the example sentence service
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	LogDir      string        `mapstructure:"log_dir"`
}

// ServerConfig holds web server configuration
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

// HistoryConfig holds the attempt history database DSN
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from an optional file and the environment.
// An empty path searches for fsptrainer.yaml in . and ./config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fsptrainer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Well-known provider variables also feed the API key.
	if err := v.BindEnv("llm.api_key", "LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind llm.api_key: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Quiz.normalize()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("termbank.path", "data/terminologie.json")

	v.SetDefault("quiz.lengths", []int{5, 10, 20, 40})
	v.SetDefault("quiz.default_length", 10)
	v.SetDefault("quiz.max_length", MaxQuizLength)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", DefaultLLMBaseURL)
	v.SetDefault("llm.model", DefaultLLMModel)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 60)
	v.SetDefault("llm.timeout", 15*time.Second)
	v.SetDefault("llm.log_dir", "")

	v.SetDefault("server.port", "8180")
	v.SetDefault("server.session_secret", "")
	v.SetDefault("server.session_ttl", 2*time.Hour)

	v.SetDefault("history.dsn", "file:fsptrainer?mode=memory&cache=shared")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// normalize drops lengths outside 1..MaxLength and keeps the default selectable
func (q *QuizConfig) normalize() {
	if q.MaxLength <= 0 || q.MaxLength > MaxQuizLength {
		q.MaxLength = MaxQuizLength
	}
	lengths := make([]int, 0, len(q.Lengths))
	for _, n := range q.Lengths {
		if n > 0 && n <= q.MaxLength {
			lengths = append(lengths, n)
		}
	}
	if len(lengths) == 0 {
		lengths = []int{5, 10, 20, 40}
	}
	q.Lengths = lengths
	if q.DefaultLength <= 0 || q.DefaultLength > q.MaxLength {
		q.DefaultLength = lengths[0]
	}
}

// ClampLength bounds a requested quiz length to 0..MaxLength
func (q QuizConfig) ClampLength(n int) int {
	if n < 0 {
		return 0
	}
	max := q.MaxLength
	if max <= 0 {
		max = MaxQuizLength
	}
	if n > max {
		return max
	}
	return n
}
