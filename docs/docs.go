// Package docs registers the OpenAPI document for the chat server. It is
// regenerated with `swag init -g cmd/ollamachat/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "ollamachat maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["text/html"],
                "summary": "Chat page",
                "responses": {"200": {"description": "HTML page", "schema": {"type": "string"}}}
            }
        },
        "/clear-chat": {
            "get": {
                "produces": ["text/html"],
                "summary": "Clear the conversation",
                "responses": {"200": {"description": "empty chat container", "schema": {"type": "string"}}}
            }
        },
        "/models": {
            "get": {
                "produces": ["text/html"],
                "summary": "Model selector",
                "responses": {"200": {"description": "select element", "schema": {"type": "string"}}}
            }
        },
        "/send-message": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/html"],
                "summary": "Send a chat message",
                "parameters": [
                    {"type": "string", "description": "User message", "name": "message", "in": "formData", "required": true},
                    {"type": "string", "description": "Model name", "name": "model", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "user and assistant message fragments", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/send-message-stream": {
            "get": {
                "produces": ["text/event-stream"],
                "summary": "Send a chat message and stream the answer",
                "parameters": [
                    {"type": "string", "description": "User message", "name": "message", "in": "query", "required": true},
                    {"type": "string", "description": "Model name", "name": "model", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "events: user_message, assistant_start, token, done, error", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"description": "HTTP status code.", "type": "integer", "example": 400},
                "error": {"description": "Error message.", "type": "string", "example": "message is required"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "ollamachat API",
	Description:      "Chat web UI and SSE streaming on top of an Ollama inference backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
