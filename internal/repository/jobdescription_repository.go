package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mockview/backend/internal/model/interview"
)

type JobDescriptionRepository interface {
	Create(ctx context.Context, jd *interview.JobDescription) error
	FindByID(ctx context.Context, id uint) (*interview.JobDescription, error)
	// FindByIDs resolves many job descriptions in one query; absent ids
	// are simply missing from the map.
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*interview.JobDescription, error)
}

type jobDescriptionRepository struct {
	db *gorm.DB
}

func NewJobDescriptionRepository(db *gorm.DB) JobDescriptionRepository {
	return &jobDescriptionRepository{db: db}
}

func (r *jobDescriptionRepository) Create(ctx context.Context, jd *interview.JobDescription) error {
	return r.db.WithContext(ctx).Create(jd).Error
}

func (r *jobDescriptionRepository) FindByID(ctx context.Context, id uint) (*interview.JobDescription, error) {
	var jd interview.JobDescription
	if err := r.db.WithContext(ctx).First(&jd, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &jd, nil
}

func (r *jobDescriptionRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*interview.JobDescription, error) {
	byID := make(map[uint]*interview.JobDescription, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	var rows []interview.JobDescription
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	return byID, nil
}
