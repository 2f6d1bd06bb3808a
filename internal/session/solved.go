package session

import (
	"encoding/json"
	"slices"
)

// SolvedSet is the set of global question indices answered correctly in a
// progress-tracking mode. It serializes as a sorted list of ints.
type SolvedSet map[int]struct{}

func NewSolvedSet(indices ...int) SolvedSet {
	s := make(SolvedSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

func (s SolvedSet) Add(i int) bool {
	if _, ok := s[i]; ok {
		return false
	}
	s[i] = struct{}{}
	return true
}

func (s SolvedSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Sorted returns the indices in ascending order.
func (s SolvedSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy.
func (s SolvedSet) Clone() SolvedSet {
	out := make(SolvedSet, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	return out
}

func (s SolvedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *SolvedSet) UnmarshalJSON(data []byte) error {
	var indices []int
	if err := json.Unmarshal(data, &indices); err != nil {
		return err
	}
	*s = NewSolvedSet(indices...)
	return nil
}
