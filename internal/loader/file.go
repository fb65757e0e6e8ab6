package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// FileRetriever reads documents below a base directory.
type FileRetriever struct{ base string }

func NewFileRetriever(base string) *FileRetriever {
	if base == "" {
		base = "./quizzes"
	}
	return &FileRetriever{base: base}
}

func (r *FileRetriever) Retrieve(ctx context.Context, ref string) (*models.QuizDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewLoadError(ref, err)
	}

	name := strings.TrimPrefix(ref, "file://")
	if name == "" {
		return nil, apperrors.NewLoadError(ref, errors.New("empty path"))
	}
	// rooting the path before cleaning keeps it inside base
	path := filepath.Join(r.base, filepath.Clean("/"+name))

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewLoadStatusError(ref, http.StatusNotFound)
		}
		return nil, apperrors.NewLoadError(ref, err)
	}
	defer f.Close()

	return decode(ref, f, path, "")
}
