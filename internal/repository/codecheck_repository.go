package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mockview/backend/internal/model/interview"
)

type CodeCheckRepository interface {
	Create(ctx context.Context, c *interview.CodeCheck) error
}

type codeCheckRepository struct {
	db *gorm.DB
}

func NewCodeCheckRepository(db *gorm.DB) CodeCheckRepository {
	return &codeCheckRepository{db: db}
}

func (r *codeCheckRepository) Create(ctx context.Context, c *interview.CodeCheck) error {
	return r.db.WithContext(ctx).Create(c).Error
}
