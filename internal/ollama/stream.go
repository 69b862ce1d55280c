package ollama

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ollamachat/pkg/types"
)

// readBufferSize is the largest chunk handed to the fragment parser at once.
const readBufferSize = 32 * 1024

// Stream is a lazy, finite, non-restartable sequence of tokens from one
// streaming generation. Recv returns io.EOF once the backend closed the body.
// Close releases the connection; it is idempotent and may be called from
// another goroutine to abort a blocked Recv.
type Stream struct {
	body        io.ReadCloser
	cancel      context.CancelFunc
	readTimeout time.Duration
	log         zerolog.Logger
	model       string
	start       time.Time

	// owned by the Recv goroutine
	watchdog *time.Timer
	buf      []byte
	frags    fragmentBuffer
	dropped  int
	queue    []string
	done     bool
	err      error

	emitted   atomic.Int64
	timedOut  atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

// GenerateStream opens a streaming generation. A non-2xx status or an
// unavailable model is reported here, before any token. Connection setup and
// the wait for headers are bounded by the client timeouts, each body read by
// Options.ReadTimeout; the stream as a whole has no deadline.
func (c *Client) GenerateStream(ctx context.Context, req Request) (*Stream, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if err := c.ensureAvailable(ctx, req.Model); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	resp, err := c.doJSON(ctx, http.MethodPost, pathGenerate, req.wire(true))
	observeRequest(ctx, pathGenerate, err)
	if err != nil {
		cancel()
		c.log.Warn().Err(err).Str("model", req.Model).Msg("stream open failed")
		return nil, err
	}
	c.log.Debug().Str("model", req.Model).Msg("stream opened")
	return &Stream{
		body:        resp.Body,
		cancel:      cancel,
		readTimeout: c.readTimeout,
		log:         c.log,
		model:       req.Model,
		start:       time.Now(),
		buf:         make([]byte, readBufferSize),
	}, nil
}

// Model returns the model this stream was opened for.
func (s *Stream) Model() string { return s.model }

// Done reports whether a fragment with done=true has been received so far.
func (s *Stream) Done() bool { return s.done }

// Recv returns the next token. Chunks that do not parse are dropped without
// error. A read failure ends the stream with a TransportError; tokens already
// returned are not repeated.
func (s *Stream) Recv() (string, error) {
	for {
		if s.closed.Load() {
			return "", ErrStreamClosed
		}
		if len(s.queue) > 0 {
			tok := s.queue[0]
			s.queue = s.queue[1:]
			if s.emitted.Add(1) == 1 {
				timeToFirstToken.Observe(time.Since(s.start).Seconds())
			}
			streamedTokensTotal.Inc()
			return tok, nil
		}
		if s.err != nil {
			return "", s.err
		}
		n, err := s.read()
		if n > 0 {
			s.enqueue(s.frags.feed(s.buf[:n]))
		}
		if err != nil {
			s.finish(err)
		}
	}
}

// Tokens adapts the stream to a range-over-func sequence. The stream is
// closed when the loop ends, whether by exhaustion, error or break.
func (s *Stream) Tokens() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer s.Close() //nolint:errcheck
		for {
			tok, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// Close stops the stream and releases the underlying connection.
func (s *Stream) Close() error {
	s.closed.Store(true)
	s.shutdown()
	return nil
}

// read performs one body read under the per-read watchdog.
func (s *Stream) read() (int, error) {
	if s.watchdog == nil {
		s.watchdog = time.AfterFunc(s.readTimeout, s.expire)
	} else {
		s.watchdog.Reset(s.readTimeout)
	}
	n, err := s.body.Read(s.buf)
	s.watchdog.Stop()
	return n, err
}

func (s *Stream) expire() {
	s.timedOut.Store(true)
	s.cancel()
}

func (s *Stream) enqueue(frags []types.GenerateResponse) {
	for _, f := range frags {
		if f.Response != "" {
			s.queue = append(s.queue, f.Response)
		}
		if f.Done {
			s.done = true
		}
	}
	if d := s.frags.dropped - s.dropped; d > 0 {
		s.dropped = s.frags.dropped
		malformedFragmentsTotal.WithLabelValues("stream").Add(float64(d))
		s.log.Debug().Int("dropped", d).Str("model", s.model).Msg("skipped malformed stream chunk")
	}
}

// finish records the terminal state after a read error and releases the body.
func (s *Stream) finish(err error) {
	switch {
	case errors.Is(err, io.EOF):
		s.enqueue(s.frags.flush())
		s.err = io.EOF
	case s.closed.Load():
		s.err = ErrStreamClosed
	case s.timedOut.Load():
		s.err = TransportError{Op: "read " + pathGenerate, Err: errReadTimeout}
	default:
		s.err = TransportError{Op: "read " + pathGenerate, Err: err}
	}
	if s.err != io.EOF && s.err != ErrStreamClosed {
		s.log.Warn().Err(s.err).Str("model", s.model).Int64("tokens", s.emitted.Load()).Msg("stream interrupted")
	}
	s.shutdown()
}

func (s *Stream) shutdown() {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.body.Close()
		generateDuration.WithLabelValues("stream").Observe(time.Since(s.start).Seconds())
		s.log.Debug().Str("model", s.model).Int64("tokens", s.emitted.Load()).Msg("stream closed")
	})
}
