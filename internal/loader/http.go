package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

const defaultHTTPTimeout = 15 * time.Second

// HTTPRetriever fetches documents with a GET request.
type HTTPRetriever struct {
	client *http.Client
}

func NewHTTPRetriever(client *http.Client) *HTTPRetriever {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPRetriever{client: client}
}

func (r *HTTPRetriever) Retrieve(ctx context.Context, ref string) (*models.QuizDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, apperrors.NewLoadError(ref, fmt.Errorf("invalid document url: %w", err))
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.NewLoadError(ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewLoadStatusError(ref, resp.StatusCode)
	}

	name := ref
	if u, err := url.Parse(ref); err == nil {
		name = u.Path
	}
	return decode(ref, resp.Body, name, resp.Header.Get("Content-Type"))
}
