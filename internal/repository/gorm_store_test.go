package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"blueprep_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openIntegrationDB connects to BLUEPREP_TEST_DSN. The DSN must include
// clientFoundRows=true and parseTime=true.
func openIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("BLUEPREP_INTEGRATION") != "1" {
		t.Skip("set BLUEPREP_INTEGRATION=1 and BLUEPREP_TEST_DSN to run MySQL tests")
	}
	dsn := os.Getenv("BLUEPREP_TEST_DSN")
	require.NotEmpty(t, dsn)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&model.Submission{}, &model.Participant{}, &model.Test{}))
	require.NoError(t, db.AutoMigrate(&model.Test{}, &model.Participant{}, &model.Submission{}))
	return db
}

func TestGormStore_Lifecycle(t *testing.T) {
	store := NewGormStore(openIntegrationDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	test := &model.Test{Title: "integration", NumQuestions: 2, DurationHours: 1}
	require.NoError(t, store.CreateTest(ctx, test))

	ok, err := store.Activate(ctx, test.ID, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.SetAnswerKey(ctx, test.ID, "AB")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.SetAnswerKey(ctx, test.ID, "AB")
	require.NoError(t, err)
	assert.True(t, ok, "identical rewrite still matches")

	ok, err = store.Activate(ctx, test.ID, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	due, err := store.FindActiveExpiring(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)

	ok, err = store.End(ctx, test.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.End(ctx, test.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.GetTest(ctx, 987654)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_UniqueSubmission(t *testing.T) {
	store := NewGormStore(openIntegrationDB(t))
	ctx := context.Background()

	region := "Fergana"
	p := &model.Participant{Handle: 77, FullName: "Racer", Region: &region}
	require.NoError(t, store.UpsertParticipant(ctx, p))
	again := &model.Participant{Handle: 77, FullName: "Racer 2"}
	require.NoError(t, store.UpsertParticipant(ctx, again))
	assert.Equal(t, p.ID, again.ID)
	require.NotNil(t, again.Region)
	assert.Equal(t, "Fergana", *again.Region)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		dups int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InsertSubmission(ctx, &model.Submission{
				TestID: 1, ParticipantID: p.ID, StartedAt: time.Now(), SubmittedAt: time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				oks++
			case err == ErrDuplicateSubmission:
				dups++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, oks)
	assert.Equal(t, 7, dups)

	rows, err := store.ListSubmissions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(77), rows[0].Handle)
	assert.Equal(t, "Racer 2", rows[0].FullName)
}
