package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"blueprep_backend/internal/model"
	"blueprep_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTest_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		operator  int64
		questions int
		hours     int
		wantErr   error
	}{
		{"not an operator", nobody, 10, 1, util.ErrNotOperator},
		{"zero questions", opAlice, 0, 1, util.ErrInvalidTest},
		{"too many questions", opAlice, 301, 1, util.ErrInvalidTest},
		{"zero hours", opAlice, 10, 0, util.ErrInvalidTest},
		{"over a week", opAlice, 10, 169, util.ErrInvalidTest},
		{"upper bounds", opAlice, 300, 168, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test, err := f.lifecycle.CreateTest(ctx, tt.operator, "Algebra", tt.questions, tt.hours)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.TestDraft, test.Status)
			assert.Nil(t, test.StartAt)
			assert.Nil(t, test.EndAt)
		})
	}
}

func TestCreateTest_DefaultTitle(t *testing.T) {
	f := newFixture(t)
	test, err := f.lifecycle.CreateTest(context.Background(), opAlice, "   ", 5, 2)
	require.NoError(t, err)
	assert.Equal(t, util.DefaultTestTitle, test.Title)
}

func TestSetAnswerKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test, err := f.lifecycle.CreateTest(ctx, opAlice, "T", 3, 1)
	require.NoError(t, err)

	_, err = f.lifecycle.SetAnswerKey(ctx, opAlice, test.ID, "1a 2b")
	var rej *util.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, util.ReasonLengthMismatch, rej.Reason)
	assert.Equal(t, 3, rej.Expected)
	assert.Equal(t, 2, rej.Actual)

	_, err = f.lifecycle.SetAnswerKey(ctx, opAlice, test.ID, "abd")
	require.NoError(t, err)
	updated, err := f.lifecycle.SetAnswerKey(ctx, opBob, test.ID, "1a 2b 3c")
	require.NoError(t, err)
	assert.Equal(t, "ABC", updated.Key(), "a second key replaces the first")

	_, err = f.lifecycle.SetAnswerKey(ctx, opAlice, 4242, "ABC")
	assert.ErrorIs(t, err, util.ErrTestNotFound)

	_, err = f.lifecycle.Activate(ctx, opAlice, test.ID, t0)
	require.NoError(t, err)
	_, err = f.lifecycle.SetAnswerKey(ctx, opAlice, test.ID, "CCC")
	assert.ErrorIs(t, err, util.ErrInvalidTransition)
}

func TestActivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test, err := f.lifecycle.CreateTest(ctx, opAlice, "T", 2, 3)
	require.NoError(t, err)

	_, err = f.lifecycle.Activate(ctx, opAlice, test.ID, t0)
	assert.ErrorIs(t, err, util.ErrMissingKey)

	_, err = f.lifecycle.SetAnswerKey(ctx, opAlice, test.ID, "AB")
	require.NoError(t, err)

	_, err = f.lifecycle.Activate(ctx, nobody, test.ID, t0)
	assert.ErrorIs(t, err, util.ErrNotOperator)

	active, err := f.lifecycle.Activate(ctx, opAlice, test.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, model.TestActive, active.Status)
	assert.True(t, active.StartAt.Equal(t0))
	assert.True(t, active.EndAt.Equal(t0.Add(3*time.Hour)))

	_, err = f.lifecycle.Activate(ctx, opAlice, test.ID, t0)
	assert.ErrorIs(t, err, util.ErrInvalidTransition)
}

func TestForceEnd_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.activeTest(t, "ABC", 1)

	changed, err := f.lifecycle.ForceEnd(ctx, test.ID, t0.Add(time.Minute), EndTriggerOperator)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.lifecycle.ForceEnd(ctx, test.ID, t0.Add(2*time.Minute), EndTriggerSweep)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := f.lifecycle.GetTest(ctx, opAlice, test.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TestEnded, got.Status)

	_, err = f.lifecycle.Activate(ctx, opAlice, test.ID, t0)
	assert.ErrorIs(t, err, util.ErrInvalidTransition, "ended is terminal")
}

func TestForceEnd_DraftIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test, err := f.lifecycle.CreateTest(ctx, opAlice, "T", 2, 1)
	require.NoError(t, err)

	_, err = f.lifecycle.EndTest(ctx, opAlice, test.ID, t0)
	assert.ErrorIs(t, err, util.ErrInvalidTransition)

	_, err = f.lifecycle.EndTest(ctx, opAlice, 777, t0)
	assert.ErrorIs(t, err, util.ErrTestNotFound)
}

func TestForceEnd_ConcurrentCallersSingleTransition(t *testing.T) {
	f := newFixture(t)
	test := f.activeTest(t, "AB", 1)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := f.lifecycle.ForceEnd(context.Background(), test.ID, t0, EndTriggerSweep)
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, changes)
}

func TestListTests_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.lifecycle.CreateTest(ctx, opAlice, "", 1, 1)
		require.NoError(t, err)
	}

	tests, err := f.lifecycle.ListTests(ctx, opBob, 2)
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Greater(t, tests[0].ID, tests[1].ID)

	_, err = f.lifecycle.ListTests(ctx, nobody, 2)
	assert.ErrorIs(t, err, util.ErrNotOperator)
}
