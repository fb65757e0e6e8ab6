package engine

import (
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// State is the mutable part of a session. It never lives on document entities.
type State struct {
	Position   int
	Answers    map[models.ID]models.IDSet
	Score      float64
	Scored     models.IDSet
	Completed  bool
	ReviewMode bool
}

func newState() *State {
	return &State{
		Answers: make(map[models.ID]models.IDSet),
		Scored:  make(models.IDSet),
	}
}

// Snapshot is a read-only copy of the session state plus derived totals.
type Snapshot struct {
	QuizID        models.ID                 `json:"quiz_id"`
	Title         string                    `json:"title"`
	Position      int                       `json:"position"`
	QuestionCount int                       `json:"question_count"`
	Answers       map[models.ID][]models.ID `json:"answers"`
	Scored        []models.ID               `json:"scored"`
	Score         float64                   `json:"score"`
	TotalPoints   float64                   `json:"total_points"`
	AnsweredCount int                       `json:"answered_count"`
	Completed     bool                      `json:"completed"`
	ReviewMode    bool                      `json:"review_mode"`
	Perfect       bool                      `json:"perfect"`
}

func (s *State) selected(questionID models.ID) models.IDSet {
	if set, ok := s.Answers[questionID]; ok {
		return set
	}
	return models.IDSet{}
}

func (s *State) isAnswered(questionID models.ID) bool {
	return len(s.Answers[questionID]) > 0
}

// choose applies one selection and reports whether the answer set changed.
// Single choice replaces the set; multi choice toggles and prunes empty sets.
func (s *State) choose(q *models.Question, optionID models.ID) bool {
	current := s.Answers[q.ID]
	if !q.IsMulti() {
		if len(current) == 1 && current.Has(optionID) {
			return false
		}
		s.Answers[q.ID] = models.NewIDSet(optionID)
		return true
	}

	next := make(models.IDSet, len(current)+1)
	for id := range current {
		next[id] = struct{}{}
	}
	if next.Has(optionID) {
		delete(next, optionID)
	} else {
		next[optionID] = struct{}{}
	}

	if len(next) == 0 {
		delete(s.Answers, q.ID)
	} else {
		s.Answers[q.ID] = next
	}
	return true
}

func (s *State) answeredCount(doc *models.QuizDocument) int {
	count := 0
	for i := range doc.Questions {
		if s.isAnswered(doc.Questions[i].ID) {
			count++
		}
	}
	return count
}

// displayIDs lists the selected option ids of a question in display order.
func displayIDs(q *models.Question, optionOrder []int, set models.IDSet) []models.ID {
	ids := make([]models.ID, 0, len(set))
	for _, idx := range optionOrder {
		if set.Has(q.Options[idx].ID) {
			ids = append(ids, q.Options[idx].ID)
		}
	}
	return ids
}

// record converts the state into its persisted form.
func (s *State) record(doc *models.QuizDocument, order Order) models.ProgressRecord {
	rec := models.ProgressRecord{
		Position:  s.Position,
		Answers:   make(map[models.ID][]models.ID, len(s.Answers)),
		Score:     s.Score,
		Finished:  s.Completed,
		Scored:    make([]models.ID, 0, len(s.Scored)),
		HasScored: true,
	}
	for i := range doc.Questions {
		q := &doc.Questions[i]
		if s.isAnswered(q.ID) {
			rec.Answers[q.ID] = displayIDs(q, order.Options[i], s.Answers[q.ID])
		}
		if s.Scored.Has(q.ID) {
			rec.Scored = append(rec.Scored, q.ID)
		}
	}
	return rec
}

// restoreState rebuilds a state from a persisted record, dropping everything the document
// does not know about.
func restoreState(doc *models.QuizDocument, rec models.ProgressRecord) *State {
	s := newState()
	s.Position = clamp(rec.Position, len(doc.Questions))
	s.Completed = rec.Finished
	if rec.Score > 0 {
		s.Score = rec.Score
	}

	for qid, ids := range rec.Answers {
		q, ok := doc.Question(models.NewID(qid.String()))
		if !ok {
			continue
		}
		set := make(models.IDSet)
		for _, raw := range ids {
			oid := models.NewID(raw.String())
			if _, ok := q.Option(oid); !ok {
				continue
			}
			set[oid] = struct{}{}
			if !q.IsMulti() {
				break
			}
		}
		if len(set) > 0 {
			s.Answers[q.ID] = set
		}
	}

	if rec.HasScored {
		for _, qid := range rec.Scored {
			if q, ok := doc.Question(models.NewID(qid.String())); ok {
				s.Scored[q.ID] = struct{}{}
			}
		}
	} else {
		for i := range doc.Questions {
			q := &doc.Questions[i]
			if answeredMatch(q, s.selected(q.ID)) {
				s.Scored[q.ID] = struct{}{}
			}
		}
	}
	return s
}

func clamp(position, n int) int {
	if n <= 0 || position < 0 {
		return 0
	}
	if position > n-1 {
		return n - 1
	}
	return position
}
