package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"blueprep_backend/internal/grading"
	"blueprep_backend/internal/model"
	"blueprep_backend/internal/repository"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"
	"blueprep_backend/pkg/monitoring"
	"blueprep_backend/pkg/tracing"

	"go.uber.org/zap"
)

// SubmissionService admits participant answers. The unique
// (test_id, participant_id) index decides duplicates; there is no prior read.
type SubmissionService struct {
	Participants repository.ParticipantStore
	Tests        repository.TestStore
	Submissions  repository.SubmissionStore

	lateTolerance atomic.Int64
}

type Outcome struct {
	TestID     uint              `json:"testId"`
	Result     grading.Result    `json:"result"`
	Submission *model.Submission `json:"submission"`
}

func NewSubmissionService(participants repository.ParticipantStore, tests repository.TestStore, submissions repository.SubmissionStore, lateTolerance time.Duration) *SubmissionService {
	s := &SubmissionService{
		Participants: participants,
		Tests:        tests,
		Submissions:  submissions,
	}
	s.SetLateTolerance(lateTolerance)
	return s
}

// SetLateTolerance changes how long after end_at answers are still admitted.
func (s *SubmissionService) SetLateTolerance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.lateTolerance.Store(int64(d))
}

func (s *SubmissionService) LateTolerance() time.Duration {
	return time.Duration(s.lateTolerance.Load())
}

// Submit validates, grades and stores one attempt. Checks run in a fixed order
// and the first failure wins. Refusals are *util.RejectionError; a store failure
// during the insert is util.ErrUnknownOutcome.
func (s *SubmissionService) Submit(ctx context.Context, handle int64, testID uint, raw string, now time.Time) (out *Outcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.Submit", testID)
	defer func() {
		tracing.EndSpan(span, err)
		result := "accepted"
		if reason, ok := util.RejectionReasonOf(err); ok {
			result = string(reason)
		} else if err != nil {
			result = "error"
		}
		monitoring.SubmissionsTotal.WithLabelValues(result).Inc()
	}()

	participant, err := s.Participants.GetParticipantByHandle(ctx, handle)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.Reject(util.ReasonUnregistered)
	}
	if err != nil {
		return nil, fmt.Errorf("load participant: %w", err)
	}

	test, err := s.Tests.GetTest(ctx, testID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.Reject(util.ReasonUnknownTest)
	}
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}

	if test.Status != model.TestActive {
		return nil, util.Reject(util.ReasonNotActive)
	}
	if !test.HasAnswerKey() {
		logger.Log.Error("Active test without answer key", zap.Uint("test_id", testID))
		return nil, util.Reject(util.ReasonMissingKey)
	}
	if test.EndAt == nil || now.After(test.EndAt.Add(s.LateTolerance())) {
		return nil, util.Reject(util.ReasonWindowExpired)
	}

	normalized := grading.Normalize(raw)
	if n := grading.Length(normalized); n != test.NumQuestions {
		return nil, util.LengthMismatch(test.NumQuestions, n)
	}

	result := grading.Grade(normalized, test.Key())

	startedAt := now
	if test.StartAt != nil {
		startedAt = *test.StartAt
	}
	taken := int64(now.Sub(startedAt) / time.Second)
	if taken < 0 {
		taken = 0
	}

	sub := &model.Submission{
		TestID:            testID,
		ParticipantID:     participant.ID,
		RawAnswers:        raw,
		NormalizedAnswers: normalized,
		CorrectCount:      result.Correct,
		WrongCount:        result.Wrong,
		Percent:           result.Percent,
		StartedAt:         startedAt,
		SubmittedAt:       now,
		TimeTakenSeconds:  taken,
	}

	if err := s.Submissions.InsertSubmission(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			return nil, util.Reject(util.ReasonDuplicate)
		}
		logger.Log.Warn("Submission insert failed",
			zap.Uint("test_id", testID),
			zap.Int64("handle", handle),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", util.ErrUnknownOutcome, err)
	}

	logger.Log.Info("Submission accepted",
		zap.Uint("test_id", testID),
		zap.Int64("handle", handle),
		zap.Int("correct", result.Correct),
		zap.Float64("percent", result.Percent))

	return &Outcome{TestID: testID, Result: result, Submission: sub}, nil
}

// GetSubmission returns the caller's own stored attempt for testID.
func (s *SubmissionService) GetSubmission(ctx context.Context, handle int64, testID uint) (*model.Submission, error) {
	participant, err := s.Participants.GetParticipantByHandle(ctx, handle)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.Reject(util.ReasonUnregistered)
	}
	if err != nil {
		return nil, err
	}

	sub, err := s.Submissions.GetSubmission(ctx, testID, participant.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, util.ErrSubmissionMissing
	}
	return sub, err
}

// ParseSubmissionText splits "<test_id>*<answers>" on the first separator.
func ParseSubmissionText(text string) (uint, string, error) {
	idPart, answers, found := strings.Cut(strings.TrimSpace(text), util.SubmissionSep)
	if !found {
		return 0, "", util.ErrBadSubmission
	}
	id, err := strconv.ParseUint(strings.TrimSpace(idPart), 10, 64)
	if err != nil || id == 0 {
		return 0, "", util.ErrBadSubmission
	}
	return uint(id), answers, nil
}
