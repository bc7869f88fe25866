package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blueprep_backend/internal/grading"
	"blueprep_backend/internal/model"
	"blueprep_backend/internal/repository"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"
	"blueprep_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const (
	EndTriggerOperator = "operator"
	EndTriggerSweep    = "sweep"
)

// LifecycleService is the only writer of a test's status, window and key.
// Every transition is a conditional update in the store; a lost race is
// reported, never retried.
type LifecycleService struct {
	Tests     repository.TestStore
	Operators *OperatorSet
}

func NewLifecycleService(tests repository.TestStore, operators *OperatorSet) *LifecycleService {
	return &LifecycleService{Tests: tests, Operators: operators}
}

func (s *LifecycleService) CreateTest(ctx context.Context, operatorID int64, title string, numQuestions, durationHours int) (*model.Test, error) {
	if err := s.Operators.Require(operatorID); err != nil {
		return nil, err
	}
	if numQuestions < model.MinQuestions || numQuestions > model.MaxQuestions {
		return nil, fmt.Errorf("%w: question count must be between %d and %d", util.ErrInvalidTest, model.MinQuestions, model.MaxQuestions)
	}
	if durationHours < model.MinDurationHours || durationHours > model.MaxDurationHours {
		return nil, fmt.Errorf("%w: duration must be between %d and %d hours", util.ErrInvalidTest, model.MinDurationHours, model.MaxDurationHours)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = util.DefaultTestTitle
	}

	test := &model.Test{
		Title:         title,
		NumQuestions:  numQuestions,
		DurationHours: durationHours,
		CreatedBy:     operatorID,
	}
	if err := s.Tests.CreateTest(ctx, test); err != nil {
		return nil, err
	}

	logger.Log.Info("Test created",
		zap.Uint("test_id", test.ID),
		zap.Int64("operator", operatorID),
		zap.Int("questions", numQuestions),
		zap.Int("duration_hours", durationHours))
	return test, nil
}

// SetAnswerKey normalizes rawKey and stores it. Only drafts accept a key; a
// second call overwrites the first.
func (s *LifecycleService) SetAnswerKey(ctx context.Context, operatorID int64, testID uint, rawKey string) (*model.Test, error) {
	if err := s.Operators.Require(operatorID); err != nil {
		return nil, err
	}

	test, err := s.getTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.Status != model.TestDraft {
		return nil, fmt.Errorf("%w: answer key can only be set on a draft, test is %s", util.ErrInvalidTransition, test.Status)
	}

	key := grading.Normalize(rawKey)
	if n := grading.Length(key); n != test.NumQuestions {
		return nil, util.LengthMismatch(test.NumQuestions, n)
	}

	ok, err := s.Tests.SetAnswerKey(ctx, testID, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: test %d left draft concurrently", util.ErrInvalidTransition, testID)
	}

	test.AnswerKey = &key
	logger.Log.Info("Answer key set", zap.Uint("test_id", testID), zap.Int64("operator", operatorID))
	return test, nil
}

// Activate opens the test window at now for duration_hours.
func (s *LifecycleService) Activate(ctx context.Context, operatorID int64, testID uint, now time.Time) (*model.Test, error) {
	if err := s.Operators.Require(operatorID); err != nil {
		return nil, err
	}

	test, err := s.getTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.Status != model.TestDraft {
		return nil, fmt.Errorf("%w: test %d is already %s", util.ErrInvalidTransition, testID, test.Status)
	}
	if !test.HasAnswerKey() {
		return nil, util.ErrMissingKey
	}

	startAt := now
	endAt := now.Add(time.Duration(test.DurationHours) * time.Hour)
	ok, err := s.Tests.Activate(ctx, testID, startAt, endAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: test %d changed concurrently", util.ErrInvalidTransition, testID)
	}

	test.Status = model.TestActive
	test.StartAt, test.EndAt = &startAt, &endAt
	logger.Log.Info("Test activated",
		zap.Uint("test_id", testID),
		zap.Int64("operator", operatorID),
		zap.Time("end_at", endAt))
	return test, nil
}

// ForceEnd moves an active test to ended. changed is false when the test was
// already ended, which is not an error: the sweeper and operators race here.
func (s *LifecycleService) ForceEnd(ctx context.Context, testID uint, now time.Time, trigger string) (bool, error) {
	ok, err := s.Tests.End(ctx, testID, now)
	if err != nil {
		return false, err
	}
	if ok {
		monitoring.TestsEndedTotal.WithLabelValues(trigger).Inc()
		logger.Log.Info("Test ended", zap.Uint("test_id", testID), zap.String("trigger", trigger))
		return true, nil
	}

	test, err := s.getTest(ctx, testID)
	if err != nil {
		return false, err
	}
	switch test.Status {
	case model.TestEnded:
		return false, nil
	case model.TestDraft:
		return false, fmt.Errorf("%w: test %d was never activated", util.ErrInvalidTransition, testID)
	default:
		return false, fmt.Errorf("end of test %d did not apply, status is %s", testID, test.Status)
	}
}

// EndTest is the operator's "end now" action.
func (s *LifecycleService) EndTest(ctx context.Context, operatorID int64, testID uint, now time.Time) (bool, error) {
	if err := s.Operators.Require(operatorID); err != nil {
		return false, err
	}
	return s.ForceEnd(ctx, testID, now, EndTriggerOperator)
}

func (s *LifecycleService) GetTest(ctx context.Context, operatorID int64, testID uint) (*model.Test, error) {
	if err := s.Operators.Require(operatorID); err != nil {
		return nil, err
	}
	return s.getTest(ctx, testID)
}

// ListTests returns the newest tests first.
func (s *LifecycleService) ListTests(ctx context.Context, operatorID int64, limit int) ([]model.Test, error) {
	if err := s.Operators.Require(operatorID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = util.DefaultListLimit
	}
	return s.Tests.ListTests(ctx, limit)
}

func (s *LifecycleService) getTest(ctx context.Context, testID uint) (*model.Test, error) {
	test, err := s.Tests.GetTest(ctx, testID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.ErrTestNotFound
	}
	return test, err
}
