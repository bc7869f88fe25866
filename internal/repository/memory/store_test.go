package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"blueprep_backend/internal/model"
	"blueprep_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestStore_TransitionsAreConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	test := &model.Test{Title: "mock", NumQuestions: 3, DurationHours: 1}
	require.NoError(t, s.CreateTest(ctx, test))
	assert.Equal(t, model.TestDraft, test.Status)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	ok, err := s.Activate(ctx, test.ID, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "activation without a key must not apply")

	ok, err = s.SetAnswerKey(ctx, test.ID, "ABC")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Activate(ctx, test.ID, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetAnswerKey(ctx, test.ID, "CBA")
	require.NoError(t, err)
	assert.False(t, ok, "key is frozen once active")

	ok, err = s.End(ctx, test.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.End(ctx, test.ID, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetTest(ctx, test.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TestEnded, got.Status)
	assert.Equal(t, "ABC", got.Key())
	assert.True(t, got.EndedAt.Equal(now.Add(time.Hour)))
}

func TestStore_ConcurrentEndHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	test := &model.Test{Title: "race", NumQuestions: 1, DurationHours: 1}
	require.NoError(t, s.CreateTest(ctx, test))
	_, _ = s.SetAnswerKey(ctx, test.ID, "A")
	now := time.Now()
	_, _ = s.Activate(ctx, test.ID, now, now)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.End(ctx, test.ID, now)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestStore_DuplicateSubmission(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := &model.Submission{TestID: 1, ParticipantID: 7, NormalizedAnswers: "AB"}
	require.NoError(t, s.InsertSubmission(ctx, first))

	err := s.InsertSubmission(ctx, &model.Submission{TestID: 1, ParticipantID: 7, NormalizedAnswers: "CD"})
	assert.ErrorIs(t, err, repository.ErrDuplicateSubmission)

	require.NoError(t, s.InsertSubmission(ctx, &model.Submission{TestID: 2, ParticipantID: 7}))

	got, err := s.GetSubmission(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "AB", got.NormalizedAnswers)
}

func TestStore_ListSubmissionsKeepsArrivalOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	alice := &model.Participant{Handle: 100, FullName: "Alice", Username: "alice"}
	bob := &model.Participant{Handle: 200, FullName: "Bob"}
	require.NoError(t, s.UpsertParticipant(ctx, alice))
	require.NoError(t, s.UpsertParticipant(ctx, bob))

	require.NoError(t, s.InsertSubmission(ctx, &model.Submission{TestID: 1, ParticipantID: bob.ID}))
	require.NoError(t, s.InsertSubmission(ctx, &model.Submission{TestID: 1, ParticipantID: alice.ID}))
	require.NoError(t, s.InsertSubmission(ctx, &model.Submission{TestID: 9, ParticipantID: alice.ID}))

	rows, err := s.ListSubmissions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[0].FullName)
	assert.Equal(t, "alice", rows[1].Username)
	assert.Equal(t, int64(100), rows[1].Handle)
}

func TestStore_UpsertKeepsRegionWhenOmitted(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.UpsertParticipant(ctx, &model.Participant{Handle: 5, FullName: "Old", Region: strPtr("Tashkent")}))

	p := &model.Participant{Handle: 5, FullName: "New"}
	require.NoError(t, s.UpsertParticipant(ctx, p))
	require.NotNil(t, p.Region)
	assert.Equal(t, "Tashkent", *p.Region)
	assert.Equal(t, "New", p.FullName)

	count, err := s.CountParticipants(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = s.GetParticipantByHandle(ctx, 6)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_FindActiveExpiring(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mk := func(hours int) uint {
		test := &model.Test{Title: "t", NumQuestions: 1, DurationHours: hours}
		require.NoError(t, s.CreateTest(ctx, test))
		_, _ = s.SetAnswerKey(ctx, test.ID, "A")
		_, _ = s.Activate(ctx, test.ID, base, base.Add(time.Duration(hours)*time.Hour))
		return test.ID
	}
	short := mk(1)
	_ = mk(5)
	draft := &model.Test{Title: "draft", NumQuestions: 1, DurationHours: 1}
	require.NoError(t, s.CreateTest(ctx, draft))

	due, err := s.FindActiveExpiring(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, short, due[0].ID)
}
