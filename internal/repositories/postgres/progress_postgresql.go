package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p ProgressPostgreSQL) Get(ctx context.Context, key string) ([]byte, error) {
	var row models.QuizProgress
	if err := p.db.WithContext(ctx).Where("storage_key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrProgressNotFound
		}
		return nil, err
	}
	return []byte(row.Payload), nil
}

func (p ProgressPostgreSQL) Save(ctx context.Context, key string, payload []byte) error {
	now := time.Now()
	row := models.QuizProgress{
		StorageKey: key,
		Payload:    datatypes.JSON(payload),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}

func (p ProgressPostgreSQL) Delete(ctx context.Context, key string) error {
	return p.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&models.QuizProgress{}).Error
}
