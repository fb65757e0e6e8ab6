package models

import (
	"strings"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice_multiple"
)

// DefaultPoints is used when neither the question nor the document scoring settings set points.
const DefaultPoints = 1.0

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type QuizDocument struct {
	Metadata  QuizMetadata `json:"metadata"`
	Settings  QuizSettings `json:"settings"`
	Assets    *QuizAssets  `json:"assets,omitempty"`
	Questions []Question   `json:"questions" validate:"required,min=1,dive"`
}

type QuizMetadata struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
}

type QuizSettings struct {
	ShuffleQuestions bool            `json:"shuffleQuestions"`
	ShuffleOptions   bool            `json:"shuffleOptions"`
	Scoring          *ScoringSetting `json:"scoring,omitempty"`
	ShowExplanations bool            `json:"showExplanations"`
}

type ScoringSetting struct {
	DefaultPoints *float64 `json:"defaultPoints,omitempty" validate:"omitempty,min=0"`
}

type QuizAssets struct {
	BaseURL string `json:"baseUrl"`
}

type QuestionText struct {
	Plain string `json:"plain,omitempty"`
	HTML  string `json:"html,omitempty"`
}

type Media struct {
	Type MediaType `json:"type"`
	Src  string    `json:"src"`
	Alt  string    `json:"alt,omitempty"`
}

type Question struct {
	ID             ID           `json:"id" validate:"required"`
	Type           QuestionType `json:"type" validate:"omitempty,question_type"`
	Text           QuestionText `json:"text"`
	Points         *float64     `json:"points,omitempty" validate:"omitempty,min=0"`
	Difficulty     string       `json:"difficulty,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
	ShuffleOptions bool         `json:"shuffleOptions,omitempty"`
	Media          []Media      `json:"media,omitempty"`
	Options        []Option     `json:"options" validate:"dive"`
}

type Option struct {
	ID        ID     `json:"id" validate:"required"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback,omitempty"`
}

// IsMulti reports whether the question uses checkbox semantics.
func (q *Question) IsMulti() bool {
	return q.Type == MultipleChoice
}

// DisplayText prefers the rich variant.
func (q *Question) DisplayText() string {
	if q.Text.HTML != "" {
		return q.Text.HTML
	}
	return q.Text.Plain
}

// PlainText prefers the plain variant.
func (q *Question) PlainText() string {
	if q.Text.Plain != "" {
		return q.Text.Plain
	}
	return q.Text.HTML
}

// Option returns the option with the given id.
func (q *Question) Option(id ID) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// CorrectOptionIDs returns the ids flagged correct, in document order.
func (q *Question) CorrectOptionIDs() []ID {
	ids := make([]ID, 0, len(q.Options))
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// PointsFor returns the points a question is worth under the document settings.
func (d *QuizDocument) PointsFor(q *Question) float64 {
	if q.Points != nil {
		return *q.Points
	}
	if d.Settings.Scoring != nil && d.Settings.Scoring.DefaultPoints != nil {
		return *d.Settings.Scoring.DefaultPoints
	}
	return DefaultPoints
}

// TotalPoints sums the points of every question.
func (d *QuizDocument) TotalPoints() float64 {
	total := 0.0
	for i := range d.Questions {
		total += d.PointsFor(&d.Questions[i])
	}
	return total
}

// Question returns the question with the given id.
func (d *QuizDocument) Question(id ID) (*Question, bool) {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return &d.Questions[i], true
		}
	}
	return nil, false
}

// ResolveAsset resolves a media source against the document asset base.
// Absolute http(s) and data: sources are returned as-is.
func (d *QuizDocument) ResolveAsset(src string) string {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(src, "data:") {
		return src
	}
	base := ""
	if d.Assets != nil {
		base = d.Assets.BaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(src, "/")
}

// Normalize fills defaults that parsing leaves empty.
func (d *QuizDocument) Normalize() {
	for i := range d.Questions {
		if d.Questions[i].Type == "" {
			d.Questions[i].Type = SingleChoice
		}
	}
}

// Clone returns a deep copy so callers never share slices or pointers with the engine.
func (d *QuizDocument) Clone() *QuizDocument {
	out := &QuizDocument{
		Metadata: d.Metadata,
		Settings: d.Settings,
	}
	if d.Settings.Scoring != nil {
		scoring := *d.Settings.Scoring
		if scoring.DefaultPoints != nil {
			pts := *scoring.DefaultPoints
			scoring.DefaultPoints = &pts
		}
		out.Settings.Scoring = &scoring
	}
	if d.Assets != nil {
		assets := *d.Assets
		out.Assets = &assets
	}
	out.Questions = make([]Question, len(d.Questions))
	for i, q := range d.Questions {
		out.Questions[i] = q.clone()
	}
	return out
}

func (q Question) clone() Question {
	if q.Points != nil {
		pts := *q.Points
		q.Points = &pts
	}
	if q.Media != nil {
		q.Media = append([]Media(nil), q.Media...)
	}
	if q.Options != nil {
		q.Options = append([]Option(nil), q.Options...)
	}
	return q
}
