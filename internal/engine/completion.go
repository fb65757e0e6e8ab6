package engine

import (
	"context"
	"math"

	"github.com/SAP-F-2025/quiz-engine/internal/events"
)

const scoreEpsilon = 1e-9

// Finish moves the session to Finished. Finishing again rescores without a second event.
func (e *Engine) Finish(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return ErrNotLoaded
	}
	e.finishLocked(ctx)
	return nil
}

// ToggleReview flips review mode and returns the new value.
func (e *Engine) ToggleReview(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return false, ErrNotLoaded
	}
	e.state.ReviewMode = !e.state.ReviewMode
	e.logger.DebugContext(ctx, "Toggled review mode",
		"quiz_id", e.doc.Metadata.ID,
		"review_mode", e.state.ReviewMode)
	return e.state.ReviewMode, nil
}

func (e *Engine) TotalPoints() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return 0, ErrNotLoaded
	}
	return e.doc.TotalPoints(), nil
}

func (e *Engine) Score() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return 0, ErrNotLoaded
	}
	return e.state.Score, nil
}

// Perfect reports a finished session that earned every point.
func (e *Engine) Perfect() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return false, ErrNotLoaded
	}
	return e.perfectLocked(), nil
}

func (e *Engine) perfectLocked() bool {
	return e.state.Completed && math.Abs(e.state.Score-e.doc.TotalPoints()) < scoreEpsilon
}

func (e *Engine) allAnsweredLocked() bool {
	if len(e.doc.Questions) == 0 {
		return false
	}
	return e.state.answeredCount(e.doc) == len(e.doc.Questions)
}

// afterAnswerChangeLocked finishes when every question is answered and reconciles the score
// of an already finished session. Otherwise it only persists.
func (e *Engine) afterAnswerChangeLocked(ctx context.Context) {
	if e.state.Completed || e.allAnsweredLocked() {
		e.finishLocked(ctx)
		return
	}
	e.persistLocked(ctx)
}

func (e *Engine) finishLocked(ctx context.Context) {
	entering := !e.state.Completed
	e.state.Completed = true
	e.rescoreLocked()
	e.persistLocked(ctx)

	if !entering {
		return
	}

	total := e.doc.TotalPoints()
	e.logger.InfoContext(ctx, "Quiz finished",
		"quiz_id", e.doc.Metadata.ID,
		"score", e.state.Score,
		"total_points", total)

	e.publish(ctx, events.NewQuizFinishedEvent(events.QuizFinishedEvent{
		QuizID:        e.doc.Metadata.ID.String(),
		Score:         e.state.Score,
		TotalPoints:   total,
		Answered:      e.state.answeredCount(e.doc),
		QuestionCount: len(e.doc.Questions),
		Perfect:       e.perfectLocked(),
	}))
}
