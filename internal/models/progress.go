package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProgressRecord is the persisted form of a session. Field names are part of the stored format.
type ProgressRecord struct {
	Position int         `json:"i"`
	Answers  map[ID][]ID `json:"answers"`
	Score    float64     `json:"score"`
	Finished bool        `json:"finished"`
	Scored   []ID        `json:"scored"`
	// HasScored is false for records written before the scored list existed.
	HasScored bool `json:"-"`
}

// QuizProgress is the relational row holding one progress record.
type QuizProgress struct {
	StorageKey string         `json:"storage_key" gorm:"primaryKey;size:255"`
	Payload    datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (QuizProgress) TableName() string {
	return "quiz_progress"
}
