package repository

import "gorm.io/gorm"

// GormStore bundles the MySQL-backed repositories behind the Store contract.
type GormStore struct {
	*TestRepository
	*SubmissionRepository
	*ParticipantRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		TestRepository:        NewTestRepository(db),
		SubmissionRepository:  NewSubmissionRepository(db),
		ParticipantRepository: NewParticipantRepository(db),
	}
}

var _ Store = (*GormStore)(nil)
