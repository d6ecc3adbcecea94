// Package config loads and saves the vchat settings file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	ConfigFileName = "config.json"
	ConfigDir      = ".vchat"

	DirPermission  = 0755
	FilePermission = 0644
)

// LLM providers
const (
	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
)

// Voice providers
const (
	VoiceProviderElevenLabs = "elevenlabs"
	VoiceProviderOpenAI     = "openai"
	VoiceProviderPolly      = "polly"
	VoiceProviderGCP        = "gcp"
)

// Config is the contents of .vchat/config.json
type Config struct {
	StorePath string      `json:"store_path,omitempty"`
	Current   string      `json:"current,omitempty"`
	LLM       LLMConfig   `json:"llm"`
	Voice     VoiceConfig `json:"voice"`
}

// LLMConfig selects the language model service.
// API keys are never stored here; they come from the environment.
type LLMConfig struct {
	Provider      string `json:"provider,omitempty"`
	AnalysisModel string `json:"analysis_model,omitempty"`
	ChatModel     string `json:"chat_model,omitempty"`
	BaseURL       string `json:"base_url,omitempty"`
}

// VoiceConfig selects the speech synthesis service
type VoiceConfig struct {
	Provider string  `json:"provider,omitempty"`
	Voice    string  `json:"voice,omitempty"`
	Model    string  `json:"model,omitempty"`
	Format   string  `json:"format,omitempty"`
	Language string  `json:"language,omitempty"`
	Region   string  `json:"region,omitempty"`
	Engine   string  `json:"engine,omitempty"`
	Speed    float64 `json:"speed,omitempty"`

	// ElevenLabs voice settings
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		StorePath: "data/personas.json",
		LLM: LLMConfig{
			Provider:      LLMProviderOpenAI,
			AnalysisModel: "gpt-4o-mini",
		},
		Voice: VoiceConfig{
			Provider: VoiceProviderElevenLabs,
			Format:   "mp3",
		},
	}
}

// Path returns the config file path inside dir
func Path(dir string) string {
	return filepath.Join(dir, ConfigDir, ConfigFileName)
}

// Load reads dir/.vchat/config.json. A missing file returns nil, nil.
// Fields absent from the file keep their defaults.
func Load(dir string) (*Config, error) {
	return loadFile(Path(dir))
}

func loadFile(path string) (*Config, error) {
	log.Debug().Str("path", path).Msg("Loading config")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Str("current", config.Current).Msg("Loaded config")
	return config, nil
}

// LoadWithFallback looks in the current directory first, then the home
// directory. It returns the config and the directory it was found in; when
// neither file exists the defaults are returned with the current directory.
func LoadWithFallback() (*Config, string, error) {
	config, err := Load(".")
	if err != nil {
		return nil, "", err
	}
	if config != nil {
		log.Debug().Msg("Using project config")
		return config, ".", nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	config, err = Load(homeDir)
	if err != nil {
		return nil, "", err
	}
	if config != nil {
		log.Debug().Msg("Using global config")
		return config, homeDir, nil
	}

	log.Debug().Msg("No config found, using defaults")
	return Default(), ".", nil
}

// Save writes the config to dir/.vchat/config.json
func Save(dir string, config *Config) error {
	if err := Validate(config); err != nil {
		return err
	}

	configDir := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(configDir, DirPermission); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", ConfigDir, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := Path(dir)
	if err := os.WriteFile(path, data, FilePermission); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", path).Msg("Saved config")
	return nil
}

// Validate checks provider names and numeric ranges
func Validate(config *Config) error {
	switch config.LLM.Provider {
	case "", LLMProviderOpenAI, LLMProviderGemini:
	default:
		return fmt.Errorf("unsupported llm provider: %s", config.LLM.Provider)
	}

	switch config.Voice.Provider {
	case "", VoiceProviderElevenLabs, VoiceProviderOpenAI, VoiceProviderPolly, VoiceProviderGCP:
	default:
		return fmt.Errorf("unsupported voice provider: %s", config.Voice.Provider)
	}

	if config.Voice.Speed != 0 && (config.Voice.Speed < 0.25 || config.Voice.Speed > 4.0) {
		return fmt.Errorf("voice speed must be between 0.25 and 4.0, got %v", config.Voice.Speed)
	}
	if config.Voice.Stability < 0 || config.Voice.Stability > 1 {
		return fmt.Errorf("voice stability must be between 0 and 1, got %v", config.Voice.Stability)
	}
	if config.Voice.SimilarityBoost < 0 || config.Voice.SimilarityBoost > 1 {
		return fmt.Errorf("voice similarity_boost must be between 0 and 1, got %v", config.Voice.SimilarityBoost)
	}

	return nil
}
