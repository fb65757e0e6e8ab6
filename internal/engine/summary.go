package engine

import (
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

type SummaryItem struct {
	Position     int         `json:"position"`
	QuestionID   models.ID   `json:"question_id"`
	Text         string      `json:"text"`
	Answered     bool        `json:"answered"`
	Correct      bool        `json:"correct"`
	Points       float64     `json:"points"`
	Selected     []models.ID `json:"selected"`
	CorrectIDs   []models.ID `json:"correct_ids"`
	SelectedText []string    `json:"selected_text"`
	CorrectText  []string    `json:"correct_text"`
	Explanation  string      `json:"explanation,omitempty"`
}

// Summary is the completion report, one item per question in presentation order.
type Summary struct {
	QuizID        models.ID     `json:"quiz_id"`
	Title         string        `json:"title"`
	Subject       string        `json:"subject"`
	QuestionCount int           `json:"question_count"`
	AnsweredCount int           `json:"answered_count"`
	Score         float64       `json:"score"`
	TotalPoints   float64       `json:"total_points"`
	Completed     bool          `json:"completed"`
	Perfect       bool          `json:"perfect"`
	Items         []SummaryItem `json:"items"`
}

func (e *Engine) Summary() (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.doc == nil {
		return Summary{}, ErrNotLoaded
	}

	summary := Summary{
		QuizID:        e.doc.Metadata.ID,
		Title:         e.doc.Metadata.Title,
		Subject:       e.doc.Metadata.Subject,
		QuestionCount: len(e.doc.Questions),
		AnsweredCount: e.state.answeredCount(e.doc),
		Score:         e.state.Score,
		TotalPoints:   e.doc.TotalPoints(),
		Completed:     e.state.Completed,
		Perfect:       e.perfectLocked(),
		Items:         make([]SummaryItem, 0, len(e.doc.Questions)),
	}

	for position, idx := range e.order.Questions {
		q := &e.doc.Questions[idx]
		optionOrder := e.order.Options[idx]
		selected := e.state.selected(q.ID)
		correct := models.NewIDSet(q.CorrectOptionIDs()...)

		item := SummaryItem{
			Position:    position,
			QuestionID:  q.ID,
			Text:        q.PlainText(),
			Answered:    len(selected) > 0,
			Correct:     answeredMatch(q, selected),
			Points:      e.doc.PointsFor(q),
			Selected:    displayIDs(q, optionOrder, selected),
			CorrectIDs:  displayIDs(q, optionOrder, correct),
			Explanation: q.Explanation,
		}
		item.SelectedText = optionTexts(q, item.Selected)
		item.CorrectText = optionTexts(q, item.CorrectIDs)
		summary.Items = append(summary.Items, item)
	}
	return summary, nil
}

func optionTexts(q *models.Question, ids []models.ID) []string {
	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		if opt, ok := q.Option(id); ok {
			texts = append(texts, opt.Text)
		}
	}
	return texts
}
