package httpapi

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger used by the HTTP layer. Nop until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// defaultLogLevel is read once from OLLAMACHAT_REQUEST_LOG.
var defaultLogLevel = parseLevel(os.Getenv("OLLAMACHAT_REQUEST_LOG"))

// SetDefaultRequestLogLevel sets the level used when a request carries no override.
func SetDefaultRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// reqLogger carries the request's log level and id so handlers can log
// start/end lines without repeating the level checks.
type reqLogger struct {
	lvl LogLevel
	rid string
}

func newReqLogger(r *http.Request) reqLogger {
	return reqLogger{lvl: requestLogLevel(r), rid: middleware.GetReqID(r.Context())}
}

func (l reqLogger) with(ev *zerolog.Event) *zerolog.Event {
	if l.rid != "" {
		ev = ev.Str("request_id", l.rid)
	}
	return ev
}

// info, debug and error return nil (a no-op event) below the request level.
func (l reqLogger) info() *zerolog.Event {
	if l.lvl < LevelInfo {
		return nil
	}
	return l.with(zlog.Info())
}

func (l reqLogger) debug() *zerolog.Event {
	if l.lvl < LevelDebug {
		return nil
	}
	return l.with(zlog.Debug())
}

func (l reqLogger) error(err error) *zerolog.Event {
	if l.lvl < LevelError {
		return nil
	}
	return l.with(zlog.Error().Err(err))
}
