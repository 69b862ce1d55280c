// Package ollama is the client for a local LLM inference server that speaks the
// Ollama HTTP API. It is structured into small files by concern:
//
//   - client.go: Client, Options, the shared transport and its lifecycle (New/Close).
//   - models.go: ListModels and CheckAvailability (exact, then prefix match).
//   - generate.go: Generate, the single-shot call that aggregates NDJSON fragments.
//   - parse.go: fragment parsing shared by the single-shot and streaming paths.
//   - stream.go: GenerateStream and Stream, the incremental token reader.
//   - errors.go: error types and helpers (IsModelUnavailable, IsBackendStatus, IsTransport).
//   - metrics.go: Prometheus collectors for backend calls.
//
// Backend endpoints used:
//
//   - GET  /api/tags      model listing
//   - POST /api/generate  generation (NDJSON body, optionally streamed)
//
// A Client owns exactly one *http.Client for its lifetime and is safe for
// concurrent use. There is no retry logic anywhere in this package: every
// failure is reported once to the caller.
package ollama
