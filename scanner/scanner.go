// wpatui/scanner/scanner.go
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// ErrScanFailed is returned by Finish when no pass produced results.
var ErrScanFailed = errors.New("scan failed")

// Backend is the part of the supplicant client a scan needs.
type Backend interface {
	ScanTrigger(ctx context.Context) error
	ScanResults(ctx context.Context) ([]string, error)
}

// Results is the outcome of a scan cycle, split into the two list panels.
type Results struct {
	Visible []ScanResult
	Hidden  []ScanResult
}

// All returns visible then hidden results.
func (r Results) All() []ScanResult {
	out := make([]ScanResult, 0, len(r.Visible)+len(r.Hidden))
	out = append(out, r.Visible...)
	return append(out, r.Hidden...)
}

// Scanner runs a fixed number of scan passes and merges them by BSSID.
// Pass results may be fetched from any goroutine with RunPass, but Record
// and Finish must be called from one goroutine.
type Scanner struct {
	backend  Backend
	logger   *logrus.Logger
	passes   int
	current  int
	failures int
	lastErr  error
	merged   map[string]ScanResult
}

// New returns a scanner that merges passes scan passes per cycle.
func New(backend Backend, passes int, logger *logrus.Logger) *Scanner {
	if passes < 1 {
		passes = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		backend: backend,
		logger:  logger,
		passes:  passes,
		current: 1,
		merged:  make(map[string]ScanResult),
	}
}

// Passes is the configured number of passes per cycle.
func (s *Scanner) Passes() int { return s.passes }

// Current is the 1-based pass the next Record call completes.
func (s *Scanner) Current() int { return s.current }

// Reset discards merged results and restarts at pass 1.
func (s *Scanner) Reset() {
	s.current = 1
	s.failures = 0
	s.lastErr = nil
	s.merged = make(map[string]ScanResult)
}

// RunPass triggers a scan and parses whatever results the daemon holds.
// Malformed lines are logged and skipped. It does not touch scanner state.
func (s *Scanner) RunPass(ctx context.Context) ([]ScanResult, error) {
	if err := s.backend.ScanTrigger(ctx); err != nil {
		return nil, fmt.Errorf("scan trigger failed: %w", err)
	}
	lines, err := s.backend.ScanResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan results failed: %w", err)
	}
	results := make([]ScanResult, 0, len(lines))
	for _, line := range lines {
		r, err := ParseLine(line)
		if err != nil {
			s.logger.Warnf("Skipping scan line: %v", err)
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// Record merges one pass into the cycle and reports whether the cycle has
// reached its configured pass count. A later sighting of a BSSID replaces
// the earlier one.
func (s *Scanner) Record(results []ScanResult, err error) bool {
	if err != nil {
		s.failures++
		s.lastErr = err
		s.logger.Warnf("Scan pass %d/%d failed: %v", s.current, s.passes, err)
	} else {
		for _, r := range results {
			s.merged[r.BSSID] = r
		}
		s.logger.Debugf("Scan pass %d/%d: %d results, %d merged", s.current, s.passes, len(results), len(s.merged))
	}
	if s.current >= s.passes {
		return true
	}
	s.current++
	return false
}

// Finish returns the merged, sorted results and resets the scanner for the
// next cycle. If every pass failed it returns ErrScanFailed.
func (s *Scanner) Finish() (Results, error) {
	defer s.Reset()
	if s.failures >= s.current {
		return Results{}, fmt.Errorf("%w: %w", ErrScanFailed, s.lastErr)
	}
	var res Results
	for _, r := range s.merged {
		if r.Hidden() {
			res.Hidden = append(res.Hidden, r)
		} else {
			res.Visible = append(res.Visible, r)
		}
	}
	SortResults(res.Visible)
	SortResults(res.Hidden)
	return res, nil
}

// SortResults orders by quality, best first, then by BSSID.
func SortResults(results []ScanResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Quality != results[j].Quality {
			return results[i].Quality > results[j].Quality
		}
		return results[i].BSSID < results[j].BSSID
	})
}
