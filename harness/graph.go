package harness

import "fmt"

// WarningKind classifies the non-fatal problems found while ordering.
type WarningKind string

const (
	WarnDependencyUnresolved WarningKind = "dependency-unresolved"
	WarnCycleDetected        WarningKind = "cycle-detected"
	WarnAmbiguousShortName   WarningKind = "ambiguous-short-name"
)

// Warning records a dropped edge or a lookup ambiguity. Warnings never
// abort a run; the harness keeps making progress with the edge removed.
type Warning struct {
	Kind       WarningKind
	TestID     string
	Dependency string
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnDependencyUnresolved:
		return fmt.Sprintf("%s: dependency %q of %q matches no known test; treating it as satisfied", w.Kind, w.Dependency, w.TestID)
	case WarnCycleDetected:
		return fmt.Sprintf("%s: dropping edge %q -> %q to break a dependency cycle", w.Kind, w.TestID, w.Dependency)
	case WarnAmbiguousShortName:
		return fmt.Sprintf("%s: short name %q is declared by more than one test; keeping the first", w.Kind, w.Dependency)
	}
	return fmt.Sprintf("%s: %s -> %s", w.Kind, w.TestID, w.Dependency)
}

// lookup is the two-tier identifier table: exact IDs first, then the
// trailing "Suite.Method" short form.
type lookup struct {
	exact map[string]*TestCase
	short map[string]*TestCase
}

func newLookup(cases []*TestCase) (lookup, []Warning) {
	var warnings []Warning

	idx := lookup{
		exact: make(map[string]*TestCase, len(cases)),
		short: make(map[string]*TestCase, len(cases)),
	}
	for _, tc := range cases {
		idx.exact[tc.ID] = tc

		s := shortID(tc.ID)
		if s == "" || s == tc.ID {
			continue
		}
		if _, ok := idx.short[s]; ok {
			warnings = append(warnings, Warning{
				Kind:       WarnAmbiguousShortName,
				TestID:     tc.ID,
				Dependency: s,
			})
			continue
		}
		idx.short[s] = tc
	}
	return idx, warnings
}

func (l lookup) resolve(dep string) (*TestCase, bool) {
	if tc, ok := l.exact[dep]; ok {
		return tc, true
	}
	if tc, ok := l.short[dep]; ok {
		return tc, true
	}
	return nil, false
}

// Order produces an execution order over cases in which every resolvable
// dependency precedes its dependents. Unresolvable dependencies and
// cycle-closing edges are dropped with a warning rather than failing the
// run. Independent cases keep their registration order, so an unchanged
// suite always orders the same way.
func Order(cases []*TestCase) ([]*TestCase, []Warning) {
	idx, warnings := newLookup(cases)

	// Resolve declared dependencies up front so the visit below only ever
	// sees known nodes.
	deps := make(map[string][]*TestCase, len(cases))
	for _, tc := range cases {
		for _, dep := range tc.DependsOn {
			target, ok := idx.resolve(dep)
			if !ok {
				warnings = append(warnings, Warning{
					Kind:       WarnDependencyUnresolved,
					TestID:     tc.ID,
					Dependency: dep,
				})
				continue
			}
			if target.ID == tc.ID {
				warnings = append(warnings, Warning{
					Kind:       WarnCycleDetected,
					TestID:     tc.ID,
					Dependency: dep,
				})
				continue
			}
			deps[tc.ID] = append(deps[tc.ID], target)
		}
	}

	order := make([]*TestCase, 0, len(cases))
	visited := make(map[string]bool, len(cases))
	onPath := make(map[string]bool, len(cases))

	var visit func(tc *TestCase)
	visit = func(tc *TestCase) {
		if visited[tc.ID] {
			return
		}
		onPath[tc.ID] = true
		for _, dep := range deps[tc.ID] {
			if onPath[dep.ID] {
				// Re-entering the active path would recurse forever; drop
				// the edge that closes the cycle.
				warnings = append(warnings, Warning{
					Kind:       WarnCycleDetected,
					TestID:     tc.ID,
					Dependency: dep.ID,
				})
				continue
			}
			visit(dep)
		}
		onPath[tc.ID] = false
		visited[tc.ID] = true
		order = append(order, tc)
	}

	for _, tc := range cases {
		visit(tc)
	}

	return order, warnings
}
