package repository

import (
	"context"

	"blueprep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

// UpsertParticipant inserts or refreshes the profile for p.Handle. A nil
// Region keeps the stored one. p.ID is filled from the stored row.
func (r *ParticipantRepository) UpsertParticipant(ctx context.Context, p *model.Participant) error {
	updates := clause.AssignmentColumns([]string{"username", "full_name", "updated_at"})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "region"},
		Value:  gorm.Expr("COALESCE(VALUES(region), region)"),
	})

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		DoUpdates: updates,
	}).Create(p).Error
	if err != nil {
		return err
	}

	stored, err := r.GetParticipantByHandle(ctx, p.Handle)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

func (r *ParticipantRepository) GetParticipantByHandle(ctx context.Context, handle int64) (*model.Participant, error) {
	var p model.Participant
	if err := r.DB.WithContext(ctx).Where("handle = ?", handle).First(&p).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &p, nil
}

func (r *ParticipantRepository) ListParticipantHandles(ctx context.Context) ([]int64, error) {
	var handles []int64
	err := r.DB.WithContext(ctx).Model(&model.Participant{}).Order("id asc").Pluck("handle", &handles).Error
	return handles, err
}

func (r *ParticipantRepository) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Participant{}).Count(&count).Error
	return count, err
}
