package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"blueprep_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversToEveryOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.activeTest(t, "ABC", 1)
	f.register(t, 1, "First")
	f.register(t, 2, "Second")
	_, err := f.submissions.Submit(ctx, 2, test.ID, "abd", t0.Add(time.Minute))
	require.NoError(t, err)
	_, err = f.submissions.Submit(ctx, 1, test.ID, "abc", t0.Add(2*time.Minute))
	require.NoError(t, err)

	result, err := f.publisher.Publish(ctx, test.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 0, result.Failed)

	report := result.Report
	assert.Regexp(t, `^leaderboard_test_\d+_1000_[0-9a-f]{8}\.html$`, report.Filename)
	assert.Contains(t, report.Summary, "1. First - 100.00% (3/3)")
	assert.Equal(t, "/reports/leaderboards/"+report.Filename, result.URL)

	archived, err := os.ReadFile(filepath.Join(f.storageDir, "leaderboards", report.Filename))
	require.NoError(t, err)
	assert.Equal(t, report.Content, archived)
}

func TestPublish_FailedRecipientDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.activeTest(t, "A", 1)
	f.register(t, 1, "Only")
	_, err := f.submissions.Submit(ctx, 1, test.ID, "a", t0)
	require.NoError(t, err)

	f.deliverer.failFor[opAlice] = true
	result, err := f.publisher.Publish(ctx, test.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 1, result.Failed)
	require.Equal(t, 1, f.deliverer.count())
	assert.Equal(t, opBob, f.deliverer.delivered[0].operator)
}

func TestPublish_NoSubmissions(t *testing.T) {
	f := newFixture(t)
	test := f.activeTest(t, "A", 1)

	_, err := f.publisher.Publish(context.Background(), test.ID, t0)
	assert.ErrorIs(t, err, util.ErrNoSubmissions)
	assert.Zero(t, f.deliverer.count())
}
