package engine

import (
	"context"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Mark classifies one presented option after a check.
type Mark string

const (
	MarkCorrectSelected   Mark = "correct_selected"
	MarkIncorrectSelected Mark = "incorrect_selected"
	MarkUnmarked          Mark = "unmarked"
)

type OptionMark struct {
	OptionID models.ID `json:"option_id"`
	Mark     Mark      `json:"mark"`
}

// Evaluation is the result of checking one question.
type Evaluation struct {
	QuestionID models.ID    `json:"question_id"`
	Matched    bool         `json:"matched"`
	Awarded    float64      `json:"awarded"`
	Feedback   string       `json:"feedback,omitempty"`
	Silent     bool         `json:"silent"`
	Marks      []OptionMark `json:"marks"`
}

// Matches reports whether the selection equals the question's correct option set.
func Matches(q *models.Question, selected models.IDSet) bool {
	return models.NewIDSet(q.CorrectOptionIDs()...).Equal(selected)
}

// answeredMatch is Matches restricted to answered questions. An unanswered question never matches.
func answeredMatch(q *models.Question, selected models.IDSet) bool {
	return len(selected) > 0 && Matches(q, selected)
}

func classify(q *models.Question, optionOrder []int, selected models.IDSet) []OptionMark {
	marks := make([]OptionMark, 0, len(optionOrder))
	for _, idx := range optionOrder {
		opt := q.Options[idx]
		mark := MarkUnmarked
		if selected.Has(opt.ID) {
			if opt.IsCorrect {
				mark = MarkCorrectSelected
			} else {
				mark = MarkIncorrectSelected
			}
		}
		marks = append(marks, OptionMark{OptionID: opt.ID, Mark: mark})
	}
	return marks
}

// feedbackFor joins the feedback of the selected options, falling back to the explanation.
func feedbackFor(doc *models.QuizDocument, q *models.Question, optionOrder []int, selected models.IDSet) string {
	var parts []string
	for _, idx := range optionOrder {
		opt := q.Options[idx]
		if selected.Has(opt.ID) && strings.TrimSpace(opt.Feedback) != "" {
			parts = append(parts, opt.Feedback)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if doc.Settings.ShowExplanations {
		return q.Explanation
	}
	return ""
}

// Evaluate checks the current answer of a question. A non-silent check awards the question's
// points at most once per session and never after the session finished.
func (e *Engine) Evaluate(ctx context.Context, questionID models.ID, silent bool) (Evaluation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return Evaluation{}, ErrNotLoaded
	}
	return e.evaluateLocked(ctx, models.NewID(questionID.String()), silent), nil
}

func (e *Engine) evaluateLocked(ctx context.Context, questionID models.ID, silent bool) Evaluation {
	idx, ok := e.index[questionID]
	if !ok {
		return Evaluation{QuestionID: questionID, Silent: silent, Marks: []OptionMark{}}
	}

	eval := e.checkLocked(idx, silent)
	if silent {
		return eval
	}

	q := &e.doc.Questions[idx]
	selected := e.state.selected(q.ID)
	eval.Feedback = feedbackFor(e.doc, q, e.order.Options[idx], selected)
	if eval.Matched && !e.state.Completed && !e.state.Scored.Has(q.ID) {
		eval.Awarded = e.doc.PointsFor(q)
		e.state.Score += eval.Awarded
		e.state.Scored[q.ID] = struct{}{}
		e.persistLocked(ctx)
	}

	e.logger.DebugContext(ctx, "Evaluated answer",
		"quiz_id", e.doc.Metadata.ID,
		"question_id", q.ID,
		"matched", eval.Matched,
		"awarded", eval.Awarded,
		"score", e.state.Score)

	e.publish(ctx, events.NewAnswerEvaluatedEvent(events.AnswerEvaluatedEvent{
		QuizID:     e.doc.Metadata.ID.String(),
		QuestionID: q.ID.String(),
		Matched:    eval.Matched,
		Awarded:    eval.Awarded,
		Score:      e.state.Score,
	}))
	return eval
}

// checkLocked classifies the answer of the question at document index idx without side effects.
func (e *Engine) checkLocked(idx int, silent bool) Evaluation {
	q := &e.doc.Questions[idx]
	selected := e.state.selected(q.ID)
	return Evaluation{
		QuestionID: q.ID,
		Matched:    answeredMatch(q, selected),
		Silent:     silent,
		Marks:      classify(q, e.order.Options[idx], selected),
	}
}

// rescoreLocked recomputes score and scored markers from the current answers.
func (e *Engine) rescoreLocked() {
	score := 0.0
	scored := make(models.IDSet)
	for i := range e.doc.Questions {
		q := &e.doc.Questions[i]
		if answeredMatch(q, e.state.selected(q.ID)) {
			score += e.doc.PointsFor(q)
			scored[q.ID] = struct{}{}
		}
	}
	e.state.Score = score
	e.state.Scored = scored
}
