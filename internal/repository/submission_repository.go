package repository

import (
	"context"

	"blueprep_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// InsertSubmission relies on the unique (test_id, participant_id) index; no
// existence check is made beforehand.
func (r *SubmissionRepository) InsertSubmission(ctx context.Context, s *model.Submission) error {
	if err := r.DB.WithContext(ctx).Create(s).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSubmission
		}
		return err
	}
	return nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, testID, participantID uint) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.WithContext(ctx).
		Where("test_id = ? AND participant_id = ?", testID, participantID).
		First(&s).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &s, nil
}

func (r *SubmissionRepository) ListSubmissions(ctx context.Context, testID uint) ([]model.SubmissionRow, error) {
	var rows []model.SubmissionRow
	err := r.DB.WithContext(ctx).Table("submissions s").
		Select("s.*, p.handle, p.username, p.full_name, p.region").
		Joins("JOIN participants p ON p.id = s.participant_id").
		Where("s.test_id = ?", testID).
		Order("s.id asc").
		Scan(&rows).Error
	return rows, err
}
