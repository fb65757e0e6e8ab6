package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the quiz session lifecycle events
type EventType string

const (
	EventQuizLoaded      EventType = "quiz.loaded"
	EventAnswerEvaluated EventType = "quiz.answer_evaluated"
	EventQuizFinished    EventType = "quiz.finished"
	EventQuizReset       EventType = "quiz.reset"
)

const (
	eventSource  = "quiz-engine"
	eventVersion = "1.0"
)

// QuizEvent is the envelope for all session events
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type QuizLoadedEvent struct {
	QuizID        string `json:"quiz_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	Restored      bool   `json:"restored"`
}

type AnswerEvaluatedEvent struct {
	QuizID     string  `json:"quiz_id"`
	QuestionID string  `json:"question_id"`
	Matched    bool    `json:"matched"`
	Awarded    float64 `json:"awarded"`
	Score      float64 `json:"score"`
}

type QuizFinishedEvent struct {
	QuizID        string  `json:"quiz_id"`
	Score         float64 `json:"score"`
	TotalPoints   float64 `json:"total_points"`
	Answered      int     `json:"answered"`
	QuestionCount int     `json:"question_count"`
	Perfect       bool    `json:"perfect"`
}

type QuizResetEvent struct {
	QuizID string `json:"quiz_id"`
}

func newEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewQuizLoadedEvent(data QuizLoadedEvent) *QuizEvent {
	return newEvent(EventQuizLoaded, data)
}

func NewAnswerEvaluatedEvent(data AnswerEvaluatedEvent) *QuizEvent {
	return newEvent(EventAnswerEvaluated, data)
}

func NewQuizFinishedEvent(data QuizFinishedEvent) *QuizEvent {
	return newEvent(EventQuizFinished, data)
}

func NewQuizResetEvent(quizID string) *QuizEvent {
	return newEvent(EventQuizReset, QuizResetEvent{QuizID: quizID})
}

// GenerateEventID returns a unique event id
func GenerateEventID() string {
	return uuid.NewString()
}
