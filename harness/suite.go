package harness

import (
	"github.com/pkg/errors"
)

// Suite is an explicit registry of test cases. Callers populate it at
// startup with Add or MustAdd; there is no runtime discovery.
type Suite struct {
	cases []*TestCase
	index map[string]struct{}
}

func NewSuite() *Suite {
	return &Suite{
		index: make(map[string]struct{}),
	}
}

// Add registers tc. Registration order is the tiebreak order used when
// independent cases are scheduled.
func (s *Suite) Add(tc TestCase) error {
	if tc.ID == "" {
		return errors.New("test case identifier must not be empty")
	}
	if _, ok := s.index[tc.ID]; ok {
		return errors.Errorf("test case %q already registered", tc.ID)
	}
	if tc.Run == nil && !tc.Skip {
		return errors.Errorf("test case %q has no body", tc.ID)
	}

	c := tc
	s.cases = append(s.cases, &c)
	s.index[tc.ID] = struct{}{}
	return nil
}

// MustAdd is Add for static registration blocks; it panics on a bad case.
func (s *Suite) MustAdd(tc TestCase) {
	if err := s.Add(tc); err != nil {
		panic(err)
	}
}

// Len returns the number of registered cases.
func (s *Suite) Len() int {
	return len(s.cases)
}

// Cases returns the registered cases in registration order.
func (s *Suite) Cases() []*TestCase {
	out := make([]*TestCase, len(s.cases))
	copy(out, s.cases)
	return out
}
