package httpapi

import "sync"

// maxBodyBytes controls the maximum allowed form body size for the send endpoints.
// Default is 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// ChatSettings are the generation parameters applied to every chat message.
type ChatSettings struct {
	DefaultModel string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// DefaultChatSettings mirrors the service defaults.
func DefaultChatSettings() ChatSettings {
	return ChatSettings{
		DefaultModel: "llama3.2:1b",
		SystemPrompt: "You are a helpful AI assistant. Provide clear and concise responses.",
		Temperature:  0.7,
		MaxTokens:    2000,
	}
}

var (
	chatMu       sync.RWMutex
	chatSettings = DefaultChatSettings()
)

// SetChatSettings replaces the generation parameters. Empty fields fall back
// to DefaultChatSettings.
func SetChatSettings(s ChatSettings) {
	d := DefaultChatSettings()
	if s.DefaultModel == "" {
		s.DefaultModel = d.DefaultModel
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = d.SystemPrompt
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = d.MaxTokens
	}
	if s.Temperature < 0 {
		s.Temperature = d.Temperature
	}
	chatMu.Lock()
	chatSettings = s
	chatMu.Unlock()
}

func currentChatSettings() ChatSettings {
	chatMu.RLock()
	defer chatMu.RUnlock()
	return chatSettings
}
