package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mockview/backend/internal/model/interview"
)

type ScoreRepository interface {
	// GetScores returns the scores recorded for the chat. Absent
	// dimensions are simply missing from the map.
	GetScores(ctx context.Context, chatID string) (map[interview.ScoreType]float64, error)
	// PutScoreIfAbsent atomically inserts the score unless a row for
	// (chat_id, score_type) already exists. Reports whether the row was
	// written; on false the caller should keep the previously stored
	// value.
	PutScoreIfAbsent(ctx context.Context, chatID, username string, scoreType interview.ScoreType, value float64) (bool, error)
	ListByUsername(ctx context.Context, username string) ([]interview.EvaluationScore, error)
}

type scoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) GetScores(ctx context.Context, chatID string) (map[interview.ScoreType]float64, error) {
	var rows []interview.EvaluationScore
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	scores := make(map[interview.ScoreType]float64, len(rows))
	for _, row := range rows {
		scores[row.ScoreType] = row.Value
	}
	return scores, nil
}

func (r *scoreRepository) PutScoreIfAbsent(ctx context.Context, chatID, username string, scoreType interview.ScoreType, value float64) (bool, error) {
	row := interview.EvaluationScore{
		ChatID:    chatID,
		Username:  username,
		ScoreType: scoreType,
		Value:     value,
	}
	// Conflict-ignore against the (chat_id, score_type) unique index, so
	// two racing analysis requests cannot both insert.
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "score_type"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *scoreRepository) ListByUsername(ctx context.Context, username string) ([]interview.EvaluationScore, error) {
	var rows []interview.EvaluationScore
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
