package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

// ErrNotLoaded is returned by every operation before the first successful load.
var ErrNotLoaded = errors.New("quiz not loaded")

// ProgressGateway stores one progress record per quiz document.
type ProgressGateway interface {
	Restore(ctx context.Context, quizID models.ID) (models.ProgressRecord, bool)
	Save(ctx context.Context, quizID models.ID, record models.ProgressRecord) error
	Clear(ctx context.Context, quizID models.ID) error
}

// Retriever resolves a document reference into a parsed document.
type Retriever interface {
	Retrieve(ctx context.Context, ref string) (*models.QuizDocument, error)
}

// Source is either a parsed document or a reference for the configured retriever.
type Source struct {
	Document *models.QuizDocument
	Ref      string
}

func DocumentSource(doc *models.QuizDocument) Source {
	return Source{Document: doc}
}

func RefSource(ref string) Source {
	return Source{Ref: ref}
}

type nopGateway struct{}

func (nopGateway) Restore(context.Context, models.ID) (models.ProgressRecord, bool) {
	return models.ProgressRecord{}, false
}
func (nopGateway) Save(context.Context, models.ID, models.ProgressRecord) error { return nil }
func (nopGateway) Clear(context.Context, models.ID) error                       { return nil }

// Option configures an Engine.
type Option func(*Engine)

func WithRetriever(retriever Retriever) Option {
	return func(e *Engine) { e.retriever = retriever }
}

func WithPublisher(publisher events.EventPublisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

// WithRand replaces the shuffle source, mainly for seeded tests.
func WithRand(rng RandSource) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithValidator(v *validator.Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// Engine runs one learner session over one loaded quiz document.
type Engine struct {
	gateway   ProgressGateway
	retriever Retriever
	publisher events.EventPublisher
	validator *validator.Validator
	rng       RandSource
	logger    *slog.Logger

	// loadMu serializes loads; mu guards everything below it.
	loadMu sync.Mutex
	mu     sync.Mutex
	doc    *models.QuizDocument
	index  map[models.ID]int
	order  Order
	state  *State
}

func New(gateway ProgressGateway, logger *slog.Logger, opts ...Option) *Engine {
	if gateway == nil {
		gateway = nopGateway{}
	}
	e := &Engine{
		gateway: gateway,
		logger:  logger.With("component", "quiz_engine"),
		rng:     globalRand{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.validator == nil {
		e.validator = validator.New()
	}
	return e
}

// Load validates a document, fixes its presentation order and restores saved progress.
// A failed load leaves the previous session untouched.
func (e *Engine) Load(ctx context.Context, src Source) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	doc, err := e.resolve(ctx, src)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to load quiz", "source", src.Ref, "error", err)
		return err
	}

	doc = doc.Clone()
	doc.Normalize()
	if err := e.validator.ValidateDocument(doc); err != nil {
		e.logger.WarnContext(ctx, "Rejected invalid quiz document", "source", src.Ref, "error", err)
		return err
	}

	index := make(map[models.ID]int, len(doc.Questions))
	for i := range doc.Questions {
		index[doc.Questions[i].ID] = i
	}
	order := NewOrder(doc, e.rng)
	record, restored := e.gateway.Restore(ctx, doc.Metadata.ID)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.doc = doc
	e.index = index
	e.order = order
	if restored {
		e.state = restoreState(doc, record)
	} else {
		e.state = newState()
	}

	e.logger.InfoContext(ctx, "Quiz loaded",
		"quiz_id", doc.Metadata.ID,
		"questions", len(doc.Questions),
		"restored", restored,
		"position", e.state.Position,
		"score", e.state.Score)

	e.publish(ctx, events.NewQuizLoadedEvent(events.QuizLoadedEvent{
		QuizID:        doc.Metadata.ID.String(),
		Title:         doc.Metadata.Title,
		QuestionCount: len(doc.Questions),
		Restored:      restored,
	}))

	if e.state.Completed || e.allAnsweredLocked() {
		e.finishLocked(ctx)
	}
	return nil
}

func (e *Engine) resolve(ctx context.Context, src Source) (*models.QuizDocument, error) {
	if src.Document != nil {
		return src.Document, nil
	}
	if src.Ref == "" {
		return nil, apperrors.ValidationErrors{
			*apperrors.NewValidationErrorWithRule("document", "is required", "required", nil),
		}
	}
	if e.retriever == nil {
		return nil, apperrors.NewLoadError(src.Ref, errors.New("no document retriever configured"))
	}

	doc, err := e.retriever.Retrieve(ctx, src.Ref)
	if err != nil {
		if _, ok := apperrors.AsLoadError(err); ok || apperrors.IsValidation(err) {
			return nil, err
		}
		return nil, apperrors.NewLoadError(src.Ref, err)
	}
	if doc == nil {
		return nil, apperrors.NewLoadError(src.Ref, errors.New("empty document"))
	}
	return doc, nil
}

// Select records one option choice for a question. Unknown ids are ignored.
func (e *Engine) Select(ctx context.Context, questionID, optionID models.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return ErrNotLoaded
	}

	questionID = models.NewID(questionID.String())
	optionID = models.NewID(optionID.String())
	idx, ok := e.index[questionID]
	if !ok {
		e.logger.DebugContext(ctx, "Ignoring selection for unknown question", "question_id", questionID)
		return nil
	}
	q := &e.doc.Questions[idx]
	if _, ok := q.Option(optionID); !ok {
		e.logger.DebugContext(ctx, "Ignoring selection of unknown option",
			"question_id", questionID,
			"option_id", optionID)
		return nil
	}

	if !e.state.choose(q, optionID) {
		return nil
	}
	e.afterAnswerChangeLocked(ctx)
	return nil
}

func (e *Engine) Advance(ctx context.Context) error {
	return e.move(ctx, func(position int) int { return position + 1 })
}

func (e *Engine) Retreat(ctx context.Context) error {
	return e.move(ctx, func(position int) int { return position - 1 })
}

// GoTo jumps to a presentation position, clamped into range.
func (e *Engine) GoTo(ctx context.Context, position int) error {
	return e.move(ctx, func(int) int { return position })
}

func (e *Engine) move(ctx context.Context, next func(int) int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return ErrNotLoaded
	}

	target := clamp(next(e.state.Position), len(e.doc.Questions))
	if target == e.state.Position {
		return nil
	}
	e.state.Position = target
	e.logger.DebugContext(ctx, "Moved to question",
		"quiz_id", e.doc.Metadata.ID,
		"position", target)
	e.persistLocked(ctx)
	return nil
}

// Reset clears saved progress and starts over with the same presentation order.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return ErrNotLoaded
	}

	if err := e.gateway.Clear(ctx, e.doc.Metadata.ID); err != nil {
		e.logger.WarnContext(ctx, "Failed to clear progress", "quiz_id", e.doc.Metadata.ID, "error", err)
	}
	e.state = newState()

	e.logger.InfoContext(ctx, "Quiz reset", "quiz_id", e.doc.Metadata.ID)
	e.publish(ctx, events.NewQuizResetEvent(e.doc.Metadata.ID.String()))
	return nil
}

// State returns a copy of the session state.
func (e *Engine) State() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return Snapshot{}, ErrNotLoaded
	}

	rec := e.state.record(e.doc, e.order)
	return Snapshot{
		QuizID:        e.doc.Metadata.ID,
		Title:         e.doc.Metadata.Title,
		Position:      e.state.Position,
		QuestionCount: len(e.doc.Questions),
		Answers:       rec.Answers,
		Scored:        rec.Scored,
		Score:         e.state.Score,
		TotalPoints:   e.doc.TotalPoints(),
		AnsweredCount: e.state.answeredCount(e.doc),
		Completed:     e.state.Completed,
		ReviewMode:    e.state.ReviewMode,
		Perfect:       e.perfectLocked(),
	}, nil
}

// Document returns a copy of the loaded document.
func (e *Engine) Document() (*models.QuizDocument, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return nil, ErrNotLoaded
	}
	return e.doc.Clone(), nil
}

// Order returns the presentation order of the loaded document.
func (e *Engine) Order() (Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return Order{}, ErrNotLoaded
	}
	out := Order{
		Questions: append([]int(nil), e.order.Questions...),
		Options:   make([][]int, len(e.order.Options)),
	}
	for i, perm := range e.order.Options {
		out.Options[i] = append([]int(nil), perm...)
	}
	return out, nil
}

func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.gateway.Save(ctx, e.doc.Metadata.ID, e.state.record(e.doc, e.order)); err != nil {
		e.logger.WarnContext(ctx, "Failed to persist progress",
			"quiz_id", e.doc.Metadata.ID,
			"error", err)
	}
}

func (e *Engine) publish(ctx context.Context, event *events.QuizEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishQuizEvent(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish quiz event",
			"event_type", event.Type,
			"error", err)
	}
}
