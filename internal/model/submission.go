package model

import "time"

// Submission is one participant's graded answer attempt. (test_id, participant_id)
// is unique; rows are never updated after insert.
//
// swagger:model Submission
type Submission struct {
	BaseModel
	TestID            uint      `gorm:"not null;uniqueIndex:idx_submissions_test_participant" json:"testId"`
	ParticipantID     uint      `gorm:"not null;uniqueIndex:idx_submissions_test_participant;index" json:"participantId"`
	RawAnswers        string    `gorm:"type:text" json:"rawAnswers"`
	NormalizedAnswers string    `gorm:"size:300" json:"normalizedAnswers"`
	CorrectCount      int       `json:"correctCount"`
	WrongCount        int       `json:"wrongCount"`
	Percent           float64   `gorm:"type:decimal(5,2)" json:"percent"`
	StartedAt         time.Time `json:"startedAt"`
	SubmittedAt       time.Time `json:"submittedAt"`
	TimeTakenSeconds  int64     `json:"timeTakenSeconds"`
}

func (Submission) TableName() string {
	return "submissions"
}

// SubmissionRow is a submission joined with the submitting participant's profile.
type SubmissionRow struct {
	Submission
	Handle   int64   `json:"handle"`
	Username string  `json:"username"`
	FullName string  `json:"fullName"`
	Region   *string `json:"region,omitempty"`
}
