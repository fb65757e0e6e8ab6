package engine

import (
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// OptionView is an option as presented, without its correctness flag.
type OptionView struct {
	ID   models.ID `json:"id"`
	Text string    `json:"text"`
}

// QuestionView is the question at the current position, in display order.
type QuestionView struct {
	Position      int                 `json:"position"`
	QuestionCount int                 `json:"question_count"`
	ID            models.ID           `json:"id"`
	Type          models.QuestionType `json:"type"`
	Text          string              `json:"text"`
	PlainText     string              `json:"plain_text"`
	Difficulty    string              `json:"difficulty,omitempty"`
	Points        float64             `json:"points"`
	Media         []models.Media      `json:"media,omitempty"`
	Options       []OptionView        `json:"options"`
	Selected      []models.ID         `json:"selected"`
	IsFirst       bool                `json:"is_first"`
	IsLast        bool                `json:"is_last"`
	Completed     bool                `json:"completed"`
	ReviewMode    bool                `json:"review_mode"`
	// Evaluation is a silent check, present in review mode and after finishing.
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// Current returns the question at the current position.
func (e *Engine) Current() (QuestionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return QuestionView{}, ErrNotLoaded
	}

	position := e.state.Position
	idx := e.order.QuestionIndex(position)
	q := &e.doc.Questions[idx]
	optionOrder := e.order.Options[idx]
	n := len(e.doc.Questions)

	view := QuestionView{
		Position:      position,
		QuestionCount: n,
		ID:            q.ID,
		Type:          q.Type,
		Text:          q.DisplayText(),
		PlainText:     q.PlainText(),
		Difficulty:    q.Difficulty,
		Points:        e.doc.PointsFor(q),
		Options:       make([]OptionView, 0, len(optionOrder)),
		Selected:      displayIDs(q, optionOrder, e.state.selected(q.ID)),
		IsFirst:       position == 0,
		IsLast:        position == n-1,
		Completed:     e.state.Completed,
		ReviewMode:    e.state.ReviewMode,
	}
	for _, m := range q.Media {
		m.Src = e.doc.ResolveAsset(m.Src)
		view.Media = append(view.Media, m)
	}
	for _, oi := range optionOrder {
		view.Options = append(view.Options, OptionView{ID: q.Options[oi].ID, Text: q.Options[oi].Text})
	}

	if e.state.ReviewMode || e.state.Completed {
		eval := e.checkLocked(idx, true)
		view.Evaluation = &eval
	}
	return view, nil
}
