package types

import "encoding/json"

// GenerateRequest is the JSON body sent to POST /api/generate on the backend.
type GenerateRequest struct {
	// Model name as known to the backend.
	// example: llama3.2:1b
	Model string `json:"model" example:"llama3.2:1b"`
	// Prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature" example:"0.7"`
	// Maximum number of new tokens to generate.
	// example: 2000
	MaxTokens int `json:"max_tokens" example:"2000"`
	// Optional system prompt.
	System string `json:"system,omitempty"`
	// Ask the backend for incremental NDJSON output. Omitted for single-shot calls.
	Stream bool `json:"stream,omitempty"`
}

// GenerateResponse is one newline-delimited fragment of a /api/generate response body.
type GenerateResponse struct {
	Model      string `json:"model,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
}

// ModelDescriptor is one entry of the backend model listing. Only Name is
// interpreted; the remaining fields are passed through as reported.
type ModelDescriptor struct {
	// example: llama3.2:1b
	Name       string          `json:"name" example:"llama3.2:1b"`
	Model      string          `json:"model,omitempty"`
	ModifiedAt string          `json:"modified_at,omitempty"`
	Size       int64           `json:"size,omitempty"`
	Digest     string          `json:"digest,omitempty"`
	Details    json.RawMessage `json:"details,omitempty" swaggertype:"object"`
}

// TagsResponse is returned by GET /api/tags.
type TagsResponse struct {
	Models []ModelDescriptor `json:"models"`
}

// BackendError is the error envelope the backend uses on non-2xx responses.
type BackendError struct {
	Error string `json:"error"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: message is required
	Error string `json:"error" example:"message is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
