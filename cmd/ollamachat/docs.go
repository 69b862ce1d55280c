package main

// General API documentation for swaggo. Regenerate docs/ with `swag init -g cmd/ollamachat/docs.go`.
//
// @title           ollamachat API
// @version         1.0
// @description     Chat web UI and SSE token streaming on top of an Ollama inference backend.
//
// @contact.name   ollamachat maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
