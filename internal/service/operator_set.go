package service

import (
	"sort"
	"sync/atomic"

	"blueprep_backend/internal/config"
	"blueprep_backend/internal/util"
)

type operatorIndex struct {
	byID map[int64]config.Operator
	list []config.Operator
}

// OperatorSet is the operator allow-list. It is swapped atomically on config
// reload; readers never block.
type OperatorSet struct {
	idx atomic.Pointer[operatorIndex]
}

func NewOperatorSet(ops []config.Operator) *OperatorSet {
	s := &OperatorSet{}
	s.Replace(ops)
	return s
}

func (s *OperatorSet) Replace(ops []config.Operator) {
	idx := &operatorIndex{byID: make(map[int64]config.Operator, len(ops))}
	for _, op := range ops {
		if _, dup := idx.byID[op.ID]; dup {
			continue
		}
		idx.byID[op.ID] = op
		idx.list = append(idx.list, op)
	}
	sort.Slice(idx.list, func(i, j int) bool { return idx.list[i].ID < idx.list[j].ID })
	s.idx.Store(idx)
}

func (s *OperatorSet) IsOperator(id int64) bool {
	_, ok := s.idx.Load().byID[id]
	return ok
}

// Require returns util.ErrNotOperator unless id is on the allow-list.
func (s *OperatorSet) Require(id int64) error {
	if !s.IsOperator(id) {
		return util.ErrNotOperator
	}
	return nil
}

func (s *OperatorSet) List() []config.Operator {
	list := s.idx.Load().list
	out := make([]config.Operator, len(list))
	copy(out, list)
	return out
}
