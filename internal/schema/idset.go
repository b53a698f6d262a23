package schema

import (
	"bytes"
	"sort"

	"github.com/benbjohnson/immutable"
	"github.com/google/uuid"
)

// IDSet is a persistent set of object ids. The zero value is empty.
type IDSet struct {
	m *immutable.Map[uuid.UUID, struct{}]
}

func newIDSet(ids ...uuid.UUID) IDSet {
	var s IDSet
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

// Len returns the number of ids in the set.
func (s IDSet) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Has reports whether id is a member.
func (s IDSet) Has(id uuid.UUID) bool {
	if s.m == nil {
		return false
	}
	_, ok := s.m.Get(id)
	return ok
}

// Add returns a set that also contains id.
func (s IDSet) Add(id uuid.UUID) IDSet {
	m := s.m
	if m == nil {
		m = immutable.NewMap[uuid.UUID, struct{}](uuidHasher{})
	}
	return IDSet{m: m.Set(id, struct{}{})}
}

// Remove returns a set without id.
func (s IDSet) Remove(id uuid.UUID) IDSet {
	if s.m == nil {
		return s
	}
	return IDSet{m: s.m.Delete(id)}
}

// Sorted returns the members in byte order of their ids.
func (s IDSet) Sorted() []uuid.UUID {
	out := make([]uuid.UUID, 0, s.Len())
	if s.m != nil {
		itr := s.m.Iterator()
		for !itr.Done() {
			id, _, _ := itr.Next()
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

// diffIDs returns the ids only in next and the ids only in prev.
func diffIDs(prev, next []uuid.UUID) (added, removed []uuid.UUID) {
	before := make(map[uuid.UUID]bool, len(prev))
	for _, id := range prev {
		before[id] = true
	}
	after := make(map[uuid.UUID]bool, len(next))
	for _, id := range next {
		after[id] = true
	}
	for id := range after {
		if !before[id] {
			added = append(added, id)
		}
	}
	for id := range before {
		if !after[id] {
			removed = append(removed, id)
		}
	}
	sortIDs(added)
	sortIDs(removed)
	return added, removed
}
