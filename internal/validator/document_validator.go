package validator

import (
	"fmt"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// DocumentValidator checks the identity invariants of a quiz document
type DocumentValidator struct{}

// NewDocumentValidator creates a new document validator
func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

// Validate reports duplicated question ids and duplicated option ids within a question
func (v *DocumentValidator) Validate(doc *models.QuizDocument) ValidationErrors {
	var errs ValidationErrors

	seenQuestions := make(map[models.ID]int, len(doc.Questions))
	for qi, q := range doc.Questions {
		if first, dup := seenQuestions[q.ID]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("questions[%d].id", qi),
				Message: fmt.Sprintf("duplicates questions[%d].id", first),
				Value:   q.ID.String(),
				Rule:    "unique",
			})
		} else {
			seenQuestions[q.ID] = qi
		}

		seenOptions := make(map[models.ID]int, len(q.Options))
		for oi, o := range q.Options {
			if first, dup := seenOptions[o.ID]; dup {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("questions[%d].options[%d].id", qi, oi),
					Message: fmt.Sprintf("duplicates questions[%d].options[%d].id", qi, first),
					Value:   o.ID.String(),
					Rule:    "unique",
				})
				continue
			}
			seenOptions[o.ID] = oi
		}
	}

	return errs
}
