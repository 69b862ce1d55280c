package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ollamachat/internal/chatlog"
	"ollamachat/internal/ollama"
	"ollamachat/pkg/types"
)

// TokenStream is the consumer side of a streaming generation.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Service defines the methods required by the HTTP API layer.
type Service interface {
	CheckAvailability(ctx context.Context, model string) bool
	ListModels(ctx context.Context) []types.ModelDescriptor
	Generate(ctx context.Context, req ollama.Request) (ollama.Answer, error)
	GenerateStream(ctx context.Context, req ollama.Request) (TokenStream, error)
}

// clientService adapts *ollama.Client to Service.
type clientService struct{ *ollama.Client }

func (s clientService) GenerateStream(ctx context.Context, req ollama.Request) (TokenStream, error) {
	st, err := s.Client.GenerateStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// FromClient exposes an inference client as a Service.
func FromClient(c *ollama.Client) Service { return clientService{Client: c} }

// server holds the dependencies shared by the handlers.
type server struct {
	svc  Service
	chat *chatlog.Log
}

// NewMux builds the chat router. chat may be nil, in which case a fresh log
// is used.
func NewMux(svc Service, chat *chatlog.Log) http.Handler {
	if chat == nil {
		chat = chatlog.New()
	}
	s := &server{svc: svc, chat: chat}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/", s.handleIndex)
	r.Post("/send-message", s.handleSendMessage)
	r.Get("/send-message-stream", s.handleSendMessageStream)
	r.Post("/send-message-stream", s.handleSendMessageStream)
	r.Get("/clear-chat", s.handleClearChat)
	r.Get("/models", s.handleModels)
	r.Handle("/static/*", staticHandler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.CheckAvailability(r.Context(), currentChatSettings().DefaultModel) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("model unavailable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}
