package model

import "time"

type TestStatus string

const (
	TestDraft  TestStatus = "draft"
	TestActive TestStatus = "active"
	TestEnded  TestStatus = "ended"
)

const (
	MinQuestions     = 1
	MaxQuestions     = 300
	MinDurationHours = 1
	MaxDurationHours = 168
)

// swagger:model Test
type Test struct {
	BaseModel
	Title         string     `gorm:"size:255;not null" json:"title"`
	NumQuestions  int        `gorm:"not null" json:"numQuestions"`
	DurationHours int        `gorm:"not null" json:"durationHours"`
	AnswerKey     *string    `gorm:"size:300" json:"-"`
	Status        TestStatus `gorm:"type:enum('draft','active','ended');default:'draft';not null;index:idx_tests_status_end" json:"status"`
	StartAt       *time.Time `json:"startAt,omitempty"`
	EndAt         *time.Time `gorm:"index:idx_tests_status_end" json:"endAt,omitempty"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
	CreatedBy     int64      `gorm:"index" json:"createdBy"`
}

func (Test) TableName() string {
	return "tests"
}

func (t *Test) HasAnswerKey() bool {
	return t.AnswerKey != nil && *t.AnswerKey != ""
}

// Key returns the answer key or "" when none is set.
func (t *Test) Key() string {
	if t.AnswerKey == nil {
		return ""
	}
	return *t.AnswerKey
}

// Expired reports whether the active window closed at or before now.
func (t *Test) Expired(now time.Time) bool {
	return t.EndAt != nil && !t.EndAt.After(now)
}
