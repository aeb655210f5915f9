package config

import "os"

// GenerationParams tune the playbook model output.
type GenerationParams struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey     string           `json:"-"` // Never serialize
	BaseURL    string           `json:"baseUrl"`
	Model      string           `json:"model"`
	Generation GenerationParams `json:"generation"`
	TimeoutMS  int              `json:"timeoutMs"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  apiKey(),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Generation: GenerationParams{
			Temperature:     0.7,
			TopP:            0.9,
			TopK:            40,
			MaxOutputTokens: 2048,
		},
		TimeoutMS: 10000, // 10 second default timeout
	}
}

// apiKey ignores the placeholder value shipped in .env templates.
func apiKey() string {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "your-gemini-api-key-here" {
		return ""
	}
	return key
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for the configured model
func (c *AIConfig) ModelEndpoint() string {
	return c.BaseURL + "/" + c.Model + ":generateContent"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
