package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blueprep_backend/internal/config"
	"blueprep_backend/internal/model"
	"blueprep_backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

const (
	opAlice int64 = 1
	opBob   int64 = 2
	nobody  int64 = 99
)

var t0 = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store       *memory.Store
	operators   *OperatorSet
	lifecycle   *LifecycleService
	submissions *SubmissionService
	leaderboard *LeaderboardService
	deliverer   *recordingDeliverer
	publisher   *ReportPublisher
	sweeper     *ExpirySweeper
	storageDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ops := NewOperatorSet([]config.Operator{
		{ID: opAlice, Name: "Alice", Email: "alice@example.com"},
		{ID: opBob, Name: "Bob", Email: "bob@example.com"},
	})
	dir := t.TempDir()
	storage := &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: dir}}}

	f := &fixture{
		store:       store,
		operators:   ops,
		lifecycle:   NewLifecycleService(store, ops),
		submissions: NewSubmissionService(store, store, store, 0),
		leaderboard: NewLeaderboardService(store, store, nil, 0),
		deliverer:   &recordingDeliverer{failFor: map[int64]bool{}},
		storageDir:  dir,
	}
	f.publisher = NewReportPublisher(f.leaderboard, storage, f.deliverer, ops, 2)
	f.sweeper = NewExpirySweeper(store, f.lifecycle, f.publisher)
	f.sweeper.Now = func() time.Time { return t0 }
	return f
}

// activeTest creates and activates a test at t0 with the given key.
func (f *fixture) activeTest(t *testing.T, key string, hours int) *model.Test {
	t.Helper()
	ctx := context.Background()
	test, err := f.lifecycle.CreateTest(ctx, opAlice, "Mock exam", len(key), hours)
	require.NoError(t, err)
	_, err = f.lifecycle.SetAnswerKey(ctx, opAlice, test.ID, key)
	require.NoError(t, err)
	test, err = f.lifecycle.Activate(ctx, opAlice, test.ID, t0)
	require.NoError(t, err)
	return test
}

func (f *fixture) register(t *testing.T, handle int64, name string) *model.Participant {
	t.Helper()
	p, err := NewParticipantService(f.store).Register(context.Background(), handle, "", name, "")
	require.NoError(t, err)
	return p
}

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []deliveryRecord
	failFor   map[int64]bool
}

type deliveryRecord struct {
	operator int64
	report   *Report
}

func (d *recordingDeliverer) DeliverReport(_ context.Context, recipient config.Operator, report *Report) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[recipient.ID] {
		return errors.New("smtp: connection refused")
	}
	d.delivered = append(d.delivered, deliveryRecord{operator: recipient.ID, report: report})
	return nil
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.delivered)
}
