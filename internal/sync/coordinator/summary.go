package coordinator

import (
	pkgsync "github.com/stacklok/plugin-updater/internal/sync"
)

// Summary is the outcome of a run, in plugin order
type Summary struct {
	Results  []*pkgsync.Result
	Failures map[string]*pkgsync.Error

	Updated   int
	Available int
	UpToDate  int
}

// Changed reports whether any plugin was installed
func (s *Summary) Changed() bool {
	return s.Updated > 0
}

// Failed reports whether any plugin failed
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

func (s *Summary) add(plugin string, result *pkgsync.Result, err *pkgsync.Error) {
	if err != nil {
		if s.Failures == nil {
			s.Failures = make(map[string]*pkgsync.Error)
		}
		s.Failures[plugin] = err
		return
	}
	if result == nil {
		return
	}

	s.Results = append(s.Results, result)
	switch result.Outcome {
	case pkgsync.OutcomeSuccess:
		s.Updated++
	case pkgsync.OutcomeAvailable:
		s.Available++
	case pkgsync.OutcomeNoUpdate:
		s.UpToDate++
	}
}
