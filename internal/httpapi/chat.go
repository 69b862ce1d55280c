package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ollamachat/internal/chatlog"
	"ollamachat/internal/ollama"
	"ollamachat/pkg/types"
)

const pageTitle = "Ollama Chat App"

var errMessageRequired = errors.New("message is required")

// parseChatForm reads the message and model fields from the query or a
// size-limited form body. An empty model selects the default one.
func parseChatForm(w http.ResponseWriter, r *http.Request, settings ChatSettings) (message, model string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "multipart/form-data") {
		err = r.ParseMultipartForm(maxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		// size errors stay 400 as well, without detail
		return "", "", errors.New("invalid form body")
	}
	message = r.FormValue("message")
	if strings.TrimSpace(message) == "" {
		return "", "", errMessageRequired
	}
	model = strings.TrimSpace(r.FormValue("model"))
	if model == "" {
		model = settings.DefaultModel
	}
	return message, model, nil
}

// admitChat reserves a generation slot and checks that the default model is
// served. On failure the response has been written and ok is false.
func (s *server) admitChat(ctx context.Context, w http.ResponseWriter, r *http.Request, rl reqLogger, settings ChatSettings) (release func(), ok bool) {
	release, err := beginGeneration(ctx)
	if err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return release, false
		}
		IncrementBackpressure("inflight")
		rl.info().Int("status", statusFor(err)).Err(err).Msg("chat rejected")
		writeJSONError(w, statusFor(err), err.Error())
		return release, false
	}
	if !s.svc.CheckAvailability(ctx, settings.DefaultModel) {
		release()
		msg := fmt.Sprintf("ollama service or model %s is not available", settings.DefaultModel)
		rl.info().Int("status", http.StatusServiceUnavailable).Msg(msg)
		writeJSONError(w, http.StatusServiceUnavailable, msg)
		return func() {}, false
	}
	return release, true
}

func chatRequest(settings ChatSettings, model, prompt string) ollama.Request {
	return ollama.Request{
		Model:       model,
		Prompt:      prompt,
		System:      settings.SystemPrompt,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	}
}

// canceled reports whether the client went away or the server is shutting down.
func canceled(r *http.Request) bool {
	return r.Context().Err() != nil || serverBaseCtx.Err() != nil
}

// modelsOrDefault lists the backend models, falling back to the default
// model alone when the listing is empty.
func (s *server) modelsOrDefault(ctx context.Context, settings ChatSettings) []types.ModelDescriptor {
	models := s.svc.ListModels(ctx)
	if len(models) == 0 {
		return []types.ModelDescriptor{{Name: settings.DefaultModel}}
	}
	return models
}

// handleIndex renders the chat page.
//
// @Summary  Chat page
// @Produce  html
// @Success  200  {string}  string  "HTML page"
// @Router   / [get]
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	settings := currentChatSettings()
	renderHTML(w, r, "index", pageData{
		Title:        pageTitle,
		Messages:     s.chat.Messages(),
		Models:       s.modelsOrDefault(r.Context(), settings),
		DefaultModel: settings.DefaultModel,
	})
}

// handleSendMessage answers one message in a single response.
//
// @Summary  Send a chat message
// @Accept   x-www-form-urlencoded
// @Produce  html
// @Param    message  formData  string  true   "User message"
// @Param    model    formData  string  false  "Model name"
// @Success  200  {string}  string  "user and assistant message fragments"
// @Failure  400  {object}  types.ErrorResponse
// @Failure  429  {object}  types.ErrorResponse
// @Failure  503  {object}  types.ErrorResponse
// @Router   /send-message [post]
func (s *server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	rl := newReqLogger(r)
	settings := currentChatSettings()
	message, model, err := parseChatForm(w, r, settings)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	release, ok := s.admitChat(ctx, w, r, rl, settings)
	defer release()
	if !ok {
		return
	}

	user := s.chat.Append(chatlog.Message{Role: chatlog.RoleUser, Content: message})
	start := time.Now()
	rl.info().Str("path", r.URL.Path).Str("model", model).Msg("chat start")

	ans, err := s.svc.Generate(ctx, chatRequest(settings, model, message))
	if err != nil {
		if canceled(r) {
			countMessage("complete", "canceled")
			return
		}
		countMessage("complete", "error")
		rl.info().Int("status", statusFor(err)).Dur("dur", time.Since(start)).Err(err).Msg("chat end")
		sys := s.chat.Append(chatlog.Message{Role: chatlog.RoleSystem, Content: "Error: " + err.Error()})
		renderHTML(w, r, "messages", []chatlog.Message{user, sys})
		return
	}
	reply := s.chat.Append(chatlog.Message{Role: chatlog.RoleAssistant, Content: ans.Text, Model: model})
	countMessage("complete", "ok")
	rl.info().Int("status", http.StatusOK).Dur("dur", time.Since(start)).Int("chars", len(ans.Text)).Msg("chat end")
	renderHTML(w, r, "messages", []chatlog.Message{user, reply})
}

// handleSendMessageStream answers one message as Server-Sent Events.
//
// @Summary  Send a chat message and stream the answer
// @Produce  text/event-stream
// @Param    message  query  string  true   "User message"
// @Param    model    query  string  false  "Model name"
// @Success  200  {string}  string  "events: user_message, assistant_start, token, done, error"
// @Failure  400  {object}  types.ErrorResponse
// @Failure  429  {object}  types.ErrorResponse
// @Failure  503  {object}  types.ErrorResponse
// @Router   /send-message-stream [get]
// @Router   /send-message-stream [post]
func (s *server) handleSendMessageStream(w http.ResponseWriter, r *http.Request) {
	rl := newReqLogger(r)
	settings := currentChatSettings()
	message, model, err := parseChatForm(w, r, settings)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	release, ok := s.admitChat(ctx, w, r, rl, settings)
	defer release()
	if !ok {
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user := s.chat.Append(chatlog.Message{Role: chatlog.RoleUser, Content: message})
	placeholder := s.chat.Append(chatlog.Message{Role: chatlog.RoleAssistant, Model: model})
	start := time.Now()
	rl.info().Str("path", r.URL.Path).Str("model", model).Msg("chat stream start")

	fail := func(err error) {
		msg := "Error: " + err.Error()
		s.chat.Update(placeholder.ID, msg)
		_ = sse.send(eventError, msg)
		countMessage("stream", "error")
		rl.info().Dur("dur", time.Since(start)).Err(err).Msg("chat stream end")
	}

	userHTML, err := renderString("message", user)
	if err != nil {
		fail(err)
		return
	}
	if err := sse.send(eventUserMessage, userHTML); err != nil {
		return
	}
	startHTML, err := renderString("message_start", startData{ID: placeholder.ID, Model: model})
	if err != nil {
		fail(err)
		return
	}
	if err := sse.send(eventAssistantStart, startHTML); err != nil {
		return
	}

	stream, err := s.svc.GenerateStream(ctx, chatRequest(settings, model, message))
	if err != nil {
		if canceled(r) {
			countMessage("stream", "canceled")
			return
		}
		fail(err)
		return
	}
	defer stream.Close() //nolint:errcheck

	var full strings.Builder
	tokens := 0
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if canceled(r) {
				countMessage("stream", "canceled")
				rl.info().Int("tokens", tokens).Msg("chat stream canceled")
				return
			}
			fail(err)
			return
		}
		tokens++
		full.WriteString(tok)
		s.chat.Update(placeholder.ID, full.String())
		rl.debug().Str("token", tok).Msg("stream>")
		if err := sse.send(eventToken, tok); err != nil {
			countMessage("stream", "canceled")
			return
		}
	}
	_ = sse.send(eventDone, "Message complete")
	countMessage("stream", "ok")
	rl.info().Dur("dur", time.Since(start)).Int("tokens", tokens).Msg("chat stream end")
}

// handleClearChat empties the conversation.
//
// @Summary  Clear the conversation
// @Produce  html
// @Success  200  {string}  string  "empty chat container"
// @Router   /clear-chat [get]
func (s *server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	s.chat.Clear()
	renderHTML(w, r, "chat_container", []chatlog.Message{})
}

// handleModels renders the model selector.
//
// @Summary  Model selector
// @Produce  html
// @Success  200  {string}  string  "select element"
// @Router   /models [get]
func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	settings := currentChatSettings()
	renderHTML(w, r, "model_selector", selectorData{
		Models:       s.modelsOrDefault(r.Context(), settings),
		DefaultModel: settings.DefaultModel,
	})
}
