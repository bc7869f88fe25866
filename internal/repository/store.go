package repository

import (
	"context"
	"errors"
	"time"

	"blueprep_backend/internal/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateSubmission = errors.New("submission already exists for this participant")
)

// TestStore persists tests. The transition methods are conditional on the
// expected prior status and report whether this call made the change; a false
// result with a nil error means another caller got there first.
type TestStore interface {
	CreateTest(ctx context.Context, test *model.Test) error
	GetTest(ctx context.Context, id uint) (*model.Test, error)
	ListTests(ctx context.Context, limit int) ([]model.Test, error)
	SetAnswerKey(ctx context.Context, id uint, key string) (bool, error)
	Activate(ctx context.Context, id uint, startAt, endAt time.Time) (bool, error)
	End(ctx context.Context, id uint, endedAt time.Time) (bool, error)
	FindActiveExpiring(ctx context.Context, now time.Time) ([]model.Test, error)
}

// SubmissionStore persists submissions. InsertSubmission returns
// ErrDuplicateSubmission when (test_id, participant_id) already exists.
type SubmissionStore interface {
	InsertSubmission(ctx context.Context, s *model.Submission) error
	GetSubmission(ctx context.Context, testID, participantID uint) (*model.Submission, error)
	// ListSubmissions returns the test's submissions in arrival order.
	ListSubmissions(ctx context.Context, testID uint) ([]model.SubmissionRow, error)
}

type ParticipantStore interface {
	UpsertParticipant(ctx context.Context, p *model.Participant) error
	GetParticipantByHandle(ctx context.Context, handle int64) (*model.Participant, error)
	ListParticipantHandles(ctx context.Context) ([]int64, error)
	CountParticipants(ctx context.Context) (int64, error)
}

type Store interface {
	TestStore
	SubmissionStore
	ParticipantStore
}

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
