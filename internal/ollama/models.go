package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ollamachat/pkg/types"
)

// fetchTags performs GET /api/tags under the request timeout.
func (c *Client) fetchTags(ctx context.Context) (models []types.ModelDescriptor, err error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.reqTimeout)
	defer cancel()
	defer func() { observeRequest(ctx, pathTags, err) }()

	resp, err := c.doJSON(ctx, http.MethodGet, pathTags, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var tags types.TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode model listing: %w", err)
	}
	return tags.Models, nil
}

// ListModels returns the backend's model listing in the order reported. Any
// failure yields an empty slice: the listing is advisory.
func (c *Client) ListModels(ctx context.Context) []types.ModelDescriptor {
	models, err := c.fetchTags(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("list models failed")
		return []types.ModelDescriptor{}
	}
	if models == nil {
		return []types.ModelDescriptor{}
	}
	return models
}

// CheckAvailability reports whether model is served by the backend. Failures
// to reach the backend or to parse the listing report false.
func (c *Client) CheckAvailability(ctx context.Context, model string) bool {
	models, err := c.fetchTags(ctx)
	if err != nil {
		c.log.Debug().Err(err).Str("model", model).Msg("availability check failed")
		return false
	}
	ok := ModelListed(models, model)
	c.log.Debug().Str("model", model).Bool("available", ok).Msg("availability check")
	return ok
}

// ModelListed applies the availability rule to a listing: an exact name match
// wins; otherwise the requested name up to its first ':' must prefix a listed
// name ("llama3.2:1b" matches a listed "llama3.2:latest").
func ModelListed(models []types.ModelDescriptor, model string) bool {
	for _, m := range models {
		if m.Name == model {
			return true
		}
	}
	prefix, _, _ := strings.Cut(model, ":")
	for _, m := range models {
		if strings.HasPrefix(m.Name, prefix) {
			return true
		}
	}
	return false
}
