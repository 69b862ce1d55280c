package ollama

import (
	"context"
	"io"
	"net/http"
	"time"

	"ollamachat/pkg/types"
)

// Request fully specifies one generation call.
type Request struct {
	Model       string
	Prompt      string
	System      string // optional
	Temperature float64
	MaxTokens   int
}

func (r Request) wire(stream bool) types.GenerateRequest {
	return types.GenerateRequest{
		Model:       r.Model,
		Prompt:      r.Prompt,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		System:      r.System,
		Stream:      stream,
	}
}

// ensureAvailable runs the model pre-check unless the client was configured
// to skip it.
func (c *Client) ensureAvailable(ctx context.Context, model string) error {
	if c.skipCheck {
		return nil
	}
	if !c.CheckAvailability(ctx, model) {
		err := ErrModelUnavailable(model)
		observeRequest(ctx, pathGenerate, err)
		return err
	}
	return nil
}

// Generate performs a single-shot generation and aggregates the response
// fragments into one Answer. The whole call, body included, is bounded by
// Options.RequestTimeout. A transport failure returns no partial text.
func (c *Client) Generate(ctx context.Context, req Request) (Answer, error) {
	if err := c.checkOpen(); err != nil {
		return Answer{}, err
	}
	start := time.Now()
	defer func() {
		generateDuration.WithLabelValues("complete").Observe(time.Since(start).Seconds())
	}()

	if err := c.ensureAvailable(ctx, req.Model); err != nil {
		return Answer{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.reqTimeout)
	defer cancel()

	resp, err := c.doJSON(ctx, http.MethodPost, pathGenerate, req.wire(false))
	if err != nil {
		observeRequest(ctx, pathGenerate, err)
		c.log.Warn().Err(err).Str("model", req.Model).Msg("generate failed")
		return Answer{}, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := TransportError{Op: "read " + pathGenerate, Err: err}
		observeRequest(ctx, pathGenerate, terr)
		c.log.Warn().Err(terr).Str("model", req.Model).Msg("generate body read failed")
		return Answer{}, terr
	}
	observeRequest(ctx, pathGenerate, nil)

	ans := ParseGenerateBody(body)
	if ans.Dropped > 0 {
		malformedFragmentsTotal.WithLabelValues("complete").Add(float64(ans.Dropped))
		c.log.Debug().Int("dropped", ans.Dropped).Int("parsed", ans.Parsed).Msg("skipped malformed fragments")
	}
	if !ans.Done {
		c.log.Debug().Str("model", req.Model).Msg("response ended without done=true")
	}
	return ans, nil
}
