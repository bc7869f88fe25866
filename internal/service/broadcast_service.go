package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"blueprep_backend/internal/repository"
	"blueprep_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyBroadcast = errors.New("broadcast text is empty")

// Messenger reaches one participant through the front-end channel.
type Messenger interface {
	SendMessage(ctx context.Context, handle int64, text string) error
}

// LogMessenger only logs; the front-end polls or is wired separately.
type LogMessenger struct{}

func (LogMessenger) SendMessage(ctx context.Context, handle int64, text string) error {
	logger.Log.Info("Broadcast message", zap.Int64("handle", handle), zap.Int("length", len(text)))
	return nil
}

type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type BroadcastService struct {
	Participants repository.ParticipantStore
	Messenger    Messenger
	Operators    *OperatorSet
	Concurrency  int
}

func NewBroadcastService(participants repository.ParticipantStore, messenger Messenger, operators *OperatorSet, concurrency int) *BroadcastService {
	return &BroadcastService{
		Participants: participants,
		Messenger:    messenger,
		Operators:    operators,
		Concurrency:  concurrency,
	}
}

// Broadcast sends text to every registered participant. A failed recipient is
// counted and does not stop the others.
func (s *BroadcastService) Broadcast(ctx context.Context, operatorID int64, text string) (*BroadcastResult, error) {
	if err := s.Operators.Require(operatorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyBroadcast
	}

	handles, err := s.Participants.ListParticipantHandles(ctx)
	if err != nil {
		return nil, err
	}

	var sent, failed int64
	var g errgroup.Group
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for _, h := range handles {
		h := h
		g.Go(func() error {
			if err := s.Messenger.SendMessage(ctx, h, text); err != nil {
				atomic.AddInt64(&failed, 1)
				logger.Log.Debug("Broadcast to participant failed", zap.Int64("handle", h), zap.Error(err))
				return nil
			}
			atomic.AddInt64(&sent, 1)
			return nil
		})
	}
	_ = g.Wait()

	logger.Log.Info("Broadcast finished",
		zap.Int64("operator", operatorID),
		zap.Int64("sent", sent),
		zap.Int64("failed", failed))
	return &BroadcastResult{Sent: int(sent), Failed: int(failed)}, nil
}
