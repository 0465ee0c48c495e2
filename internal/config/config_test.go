package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/stats"
)

var envKeys = []string{
	"JC_LLM_PROVIDER", "JC_LLM_MODEL", "JC_LLM_TEMPERATURE", "JC_DAILY_VOLUME",
	"JC_PORT", "JC_DB_PATH", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_BASE_URL",
}

// clearEnv blanks every variable the loader reads. godotenv never overrides
// a variable that is already set, so tests that load a file unset them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.DailyVolume != stats.DefaultDailyVolume {
		t.Errorf("DailyVolume = %d, want %d", cfg.DailyVolume, stats.DefaultDailyVolume)
	}
	if cfg.LLM.Provider != llm.ProviderOpenAI {
		t.Errorf("Provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature != llm.DefaultTemperature {
		t.Errorf("Temperature = %v, want %v", cfg.LLM.Temperature, llm.DefaultTemperature)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.LLM.APIKey)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JC_PORT", "9000")
	t.Setenv("JC_DB_PATH", "/tmp/demo.db")
	t.Setenv("JC_DAILY_VOLUME", "250")
	t.Setenv("JC_LLM_TEMPERATURE", "0.2")
	t.Setenv("JC_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if cfg.Port != 9000 || cfg.DBPath != "/tmp/demo.db" || cfg.DailyVolume != 250 {
		t.Errorf("got port %d db %q volume %d", cfg.Port, cfg.DBPath, cfg.DailyVolume)
	}
	if cfg.LLM.Temperature != 0.2 || cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.APIKey != "sk-env" {
		t.Errorf("unexpected LLM config %+v", cfg.LLM)
	}

	g := cfg.Generator(nil)
	if g.APIKey != "sk-env" || g.Model != "gpt-4o-mini" {
		t.Errorf("Generator() = %+v", g)
	}
}

func TestGeminiKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("JC_LLM_PROVIDER", "Gemini")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("OPENAI_BASE_URL", "http://openai.invalid")
	t.Setenv("GEMINI_BASE_URL", "http://gemini.invalid")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if cfg.LLM.Provider != llm.ProviderGemini {
		t.Errorf("Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "g-key" {
		t.Errorf("APIKey = %q, want g-key", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "http://gemini.invalid" {
		t.Errorf("BaseURL = %q, want the Gemini one", cfg.LLM.BaseURL)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"JC_LLM_TEMPERATURE", "warm"},
		{"JC_PORT", "http"},
		{"JC_DAILY_VOLUME", "lots"},
		{"JC_DAILY_VOLUME", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := fromEnv(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}

	clearEnv(t)
	t.Setenv("JC_DAILY_VOLUME", "-5")
	if _, err := fromEnv(); !errors.Is(err, stats.ErrInvalidVolume) {
		t.Errorf("expected ErrInvalidVolume, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "OPENAI_API_KEY=sk-file\nJC_DAILY_VOLUME=500\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LLM.APIKey != "sk-file" {
		t.Errorf("APIKey = %q, want sk-file", cfg.LLM.APIKey)
	}
	if cfg.DailyVolume != 500 {
		t.Errorf("DailyVolume = %d, want 500", cfg.DailyVolume)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for missing file")
	}
}
