// Package memory is an in-process implementation of the repository contracts.
// It is used by the "memory" database driver and by service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"blueprep_backend/internal/model"
	"blueprep_backend/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	tests        map[uint]*model.Test
	participants map[uint]*model.Participant
	byHandle     map[int64]uint
	submissions  []*model.Submission
	submitted    map[[2]uint]bool

	nextTestID        uint
	nextParticipantID uint
	nextSubmissionID  uint

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		tests:        make(map[uint]*model.Test),
		participants: make(map[uint]*model.Participant),
		byHandle:     make(map[int64]uint),
		submitted:    make(map[[2]uint]bool),
		now:          time.Now,
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) CreateTest(_ context.Context, test *model.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTestID++
	now := s.now()
	test.ID = s.nextTestID
	test.Status = model.TestDraft
	test.CreatedAt, test.UpdatedAt = now, now

	stored := cloneTest(test)
	s.tests[test.ID] = stored
	return nil
}

func (s *Store) GetTest(_ context.Context, id uint) (*model.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTest(t), nil
}

func (s *Store) ListTests(_ context.Context, limit int) ([]model.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tests := make([]model.Test, 0, len(s.tests))
	for _, t := range s.tests {
		tests = append(tests, *cloneTest(t))
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].ID > tests[j].ID })
	if limit > 0 && len(tests) > limit {
		tests = tests[:limit]
	}
	return tests, nil
}

func (s *Store) SetAnswerKey(_ context.Context, id uint, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tests[id]
	if !ok || t.Status != model.TestDraft {
		return false, nil
	}
	k := key
	t.AnswerKey = &k
	t.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) Activate(_ context.Context, id uint, startAt, endAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tests[id]
	if !ok || t.Status != model.TestDraft || !t.HasAnswerKey() {
		return false, nil
	}
	t.Status = model.TestActive
	t.StartAt, t.EndAt = &startAt, &endAt
	t.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) End(_ context.Context, id uint, endedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tests[id]
	if !ok || t.Status != model.TestActive {
		return false, nil
	}
	t.Status = model.TestEnded
	t.EndedAt = &endedAt
	t.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) FindActiveExpiring(_ context.Context, now time.Time) ([]model.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []model.Test
	for _, t := range s.tests {
		if t.Status == model.TestActive && t.Expired(now) {
			due = append(due, *cloneTest(t))
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EndAt.Before(*due[j].EndAt) })
	return due, nil
}

func (s *Store) InsertSubmission(_ context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]uint{sub.TestID, sub.ParticipantID}
	if s.submitted[key] {
		return repository.ErrDuplicateSubmission
	}
	s.submitted[key] = true

	s.nextSubmissionID++
	now := s.now()
	sub.ID = s.nextSubmissionID
	sub.CreatedAt, sub.UpdatedAt = now, now

	stored := *sub
	s.submissions = append(s.submissions, &stored)
	return nil
}

func (s *Store) GetSubmission(_ context.Context, testID, participantID uint) (*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.submissions {
		if sub.TestID == testID && sub.ParticipantID == participantID {
			found := *sub
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListSubmissions(_ context.Context, testID uint) ([]model.SubmissionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []model.SubmissionRow
	for _, sub := range s.submissions {
		if sub.TestID != testID {
			continue
		}
		row := model.SubmissionRow{Submission: *sub}
		if p, ok := s.participants[sub.ParticipantID]; ok {
			row.Handle = p.Handle
			row.Username = p.Username
			row.FullName = p.FullName
			row.Region = p.Region
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) UpsertParticipant(_ context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id, ok := s.byHandle[p.Handle]; ok {
		stored := s.participants[id]
		stored.Username = p.Username
		stored.FullName = p.FullName
		if p.Region != nil {
			region := *p.Region
			stored.Region = &region
		}
		stored.UpdatedAt = now
		*p = *stored
		return nil
	}

	s.nextParticipantID++
	p.ID = s.nextParticipantID
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	s.participants[p.ID] = &stored
	s.byHandle[p.Handle] = p.ID
	return nil
}

func (s *Store) GetParticipantByHandle(_ context.Context, handle int64) (*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHandle[handle]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := *s.participants[id]
	return &p, nil
}

func (s *Store) ListParticipantHandles(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handles := make([]int64, 0, len(s.participants))
	for id := uint(1); id <= s.nextParticipantID; id++ {
		if p, ok := s.participants[id]; ok {
			handles = append(handles, p.Handle)
		}
	}
	return handles, nil
}

func (s *Store) CountParticipants(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.participants)), nil
}

func cloneTest(t *model.Test) *model.Test {
	c := *t
	if t.AnswerKey != nil {
		k := *t.AnswerKey
		c.AnswerKey = &k
	}
	if t.StartAt != nil {
		v := *t.StartAt
		c.StartAt = &v
	}
	if t.EndAt != nil {
		v := *t.EndAt
		c.EndAt = &v
	}
	if t.EndedAt != nil {
		v := *t.EndedAt
		c.EndedAt = &v
	}
	return &c
}
