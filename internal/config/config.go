package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/stats"
)

const (
	DefaultPort   = 8080
	DefaultDBPath = "./jcp.db"
)

type Config struct {
	Port   int
	DBPath string
	LLM    LLMConfig

	// DailyVolume feeds the sample-size duration estimate.
	DailyVolume int
}

type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

// LoadFile is Load with an explicit .env path. A missing file is an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	provider := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("JC_LLM_PROVIDER")), llm.ProviderOpenAI))

	temp, err := floatEnv("JC_LLM_TEMPERATURE", llm.DefaultTemperature)
	if err != nil {
		return nil, err
	}
	port, err := intEnv("JC_PORT", DefaultPort)
	if err != nil {
		return nil, err
	}
	volume, err := intEnv("JC_DAILY_VOLUME", stats.DefaultDailyVolume)
	if err != nil {
		return nil, err
	}
	if volume <= 0 {
		return nil, fmt.Errorf("JC_DAILY_VOLUME: %w", stats.ErrInvalidVolume)
	}

	return &Config{
		Port:        port,
		DBPath:      firstNonEmpty(strings.TrimSpace(os.Getenv("JC_DB_PATH")), DefaultDBPath),
		DailyVolume: volume,
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      apiKey(provider),
			Model:       strings.TrimSpace(os.Getenv("JC_LLM_MODEL")),
			BaseURL:     baseURL(provider),
			Temperature: temp,
		},
	}, nil
}

// Generator returns the llm config for this environment, logging to logger.
func (c *Config) Generator(logger *zap.Logger) llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		Logger:      logger,
	}
}

func apiKey(provider string) string {
	if provider == llm.ProviderGemini {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")))
	}
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

func baseURL(provider string) string {
	if provider == llm.ProviderGemini {
		return strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	}
	return strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
}

func floatEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return v, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
