package repository

import (
	"context"
	"time"

	"blueprep_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) CreateTest(ctx context.Context, test *model.Test) error {
	test.Status = model.TestDraft
	return r.DB.WithContext(ctx).Create(test).Error
}

func (r *TestRepository) GetTest(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.DB.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &test, nil
}

func (r *TestRepository) ListTests(ctx context.Context, limit int) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&tests).Error
	return tests, err
}

func (r *TestRepository) SetAnswerKey(ctx context.Context, id uint, key string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Test{}).
		Where("id = ? AND status = ?", id, model.TestDraft).
		Update("answer_key", key)
	return res.RowsAffected == 1, res.Error
}

func (r *TestRepository) Activate(ctx context.Context, id uint, startAt, endAt time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Test{}).
		Where("id = ? AND status = ? AND answer_key IS NOT NULL AND answer_key <> ''", id, model.TestDraft).
		Updates(map[string]interface{}{
			"status":   model.TestActive,
			"start_at": startAt,
			"end_at":   endAt,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TestRepository) End(ctx context.Context, id uint, endedAt time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Test{}).
		Where("id = ? AND status = ?", id, model.TestActive).
		Updates(map[string]interface{}{
			"status":   model.TestEnded,
			"ended_at": endedAt,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *TestRepository) FindActiveExpiring(ctx context.Context, now time.Time) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.WithContext(ctx).
		Where("status = ? AND end_at <= ?", model.TestActive, now).
		Order("end_at asc").
		Find(&tests).Error
	return tests, err
}
