package loader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// maxDocumentSize bounds how much of a document source is read.
const maxDocumentSize = 8 << 20

// Retriever resolves a document reference into a parsed quiz document.
type Retriever interface {
	Retrieve(ctx context.Context, ref string) (*models.QuizDocument, error)
}

// Router dispatches references to a retriever by URL scheme. References without a scheme go
// to the fallback retriever.
type Router struct {
	schemes  map[string]Retriever
	fallback Retriever
}

func NewRouter(fallback Retriever) *Router {
	return &Router{
		schemes:  make(map[string]Retriever),
		fallback: fallback,
	}
}

// Handle registers a retriever for a scheme such as "https" or "s3".
func (r *Router) Handle(scheme string, retriever Retriever) *Router {
	r.schemes[strings.ToLower(scheme)] = retriever
	return r
}

func (r *Router) Retrieve(ctx context.Context, ref string) (*models.QuizDocument, error) {
	scheme := schemeOf(ref)
	if retriever, ok := r.schemes[scheme]; ok {
		return retriever.Retrieve(ctx, ref)
	}
	if scheme == "" && r.fallback != nil {
		return r.fallback.Retrieve(ctx, ref)
	}
	return nil, apperrors.NewLoadError(ref, fmt.Errorf("unsupported document scheme %q", scheme))
}

func schemeOf(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || len(u.Scheme) < 2 {
		// single letter schemes are windows drive letters
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// decode reads a bounded body and parses it in the detected format.
func decode(ref string, body io.Reader, name, contentType string) (*models.QuizDocument, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxDocumentSize+1))
	if err != nil {
		return nil, apperrors.NewLoadError(ref, fmt.Errorf("failed to read document: %w", err))
	}
	if len(data) > maxDocumentSize {
		return nil, apperrors.NewLoadError(ref, fmt.Errorf("document exceeds %d bytes", maxDocumentSize))
	}

	doc, err := models.ParseDocument(data, models.DetectFormat(name, contentType))
	if err != nil {
		return nil, apperrors.NewLoadError(ref, err)
	}
	return doc, nil
}
