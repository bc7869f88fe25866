package service

import (
	"context"
	"errors"
	"strings"

	"blueprep_backend/internal/model"
	"blueprep_backend/internal/repository"
	"blueprep_backend/pkg/logger"

	"go.uber.org/zap"
)

var ErrFullNameRequired = errors.New("full name is required")

type ParticipantService struct {
	Repo repository.ParticipantStore
}

func NewParticipantService(repo repository.ParticipantStore) *ParticipantService {
	return &ParticipantService{Repo: repo}
}

// Register creates the participant or refreshes the profile. An empty region
// keeps the stored one.
func (s *ParticipantService) Register(ctx context.Context, handle int64, username, fullName, region string) (*model.Participant, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}

	p := &model.Participant{
		Handle:   handle,
		Username: strings.TrimPrefix(strings.TrimSpace(username), "@"),
		FullName: fullName,
	}
	if region = strings.TrimSpace(region); region != "" {
		p.Region = &region
	}

	if err := s.Repo.UpsertParticipant(ctx, p); err != nil {
		return nil, err
	}
	logger.Log.Info("Participant registered", zap.Int64("handle", handle), zap.Uint("participant_id", p.ID))
	return p, nil
}

func (s *ParticipantService) Get(ctx context.Context, handle int64) (*model.Participant, error) {
	return s.Repo.GetParticipantByHandle(ctx, handle)
}

func (s *ParticipantService) Count(ctx context.Context) (int64, error) {
	return s.Repo.CountParticipants(ctx)
}
