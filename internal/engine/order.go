package engine

import (
	"math/rand/v2"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// RandSource supplies uniform integers in [0, n).
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// Order is the presentation order fixed for one load.
type Order struct {
	// Questions[position] is the document index of the question shown at that position.
	Questions []int
	// Options[questionIndex][displayPosition] is an option index of that question.
	Options [][]int
}

// NewOrder derives the presentation order of a document from its shuffle settings.
func NewOrder(doc *models.QuizDocument, rng RandSource) Order {
	if rng == nil {
		rng = globalRand{}
	}

	order := Order{Options: make([][]int, len(doc.Questions))}
	if doc.Settings.ShuffleQuestions {
		order.Questions = Shuffle(len(doc.Questions), rng)
	} else {
		order.Questions = identity(len(doc.Questions))
	}

	for i := range doc.Questions {
		n := len(doc.Questions[i].Options)
		if doc.Settings.ShuffleOptions || doc.Questions[i].ShuffleOptions {
			order.Options[i] = Shuffle(n, rng)
		} else {
			order.Options[i] = identity(n)
		}
	}
	return order
}

// Shuffle returns a uniform permutation of [0, n) using Fisher-Yates.
func Shuffle(n int, rng RandSource) []int {
	perm := identity(n)
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// QuestionIndex returns the document index shown at position.
func (o Order) QuestionIndex(position int) int {
	return o.Questions[position]
}
