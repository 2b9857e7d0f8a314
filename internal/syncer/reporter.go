package syncer

import "sync"

// Reporter receives fractional progress increments during a sync.
// Increments over one whole run sum to 100 regardless of how many
// assets the gallery has. Implementations need not be goroutine safe;
// the syncer serialises calls itself.
type Reporter interface {
	Report(increment float64, message string)
}

// ReporterFunc adapts a plain function to the Reporter interface
type ReporterFunc func(increment float64, message string)

// Report implements Reporter
func (f ReporterFunc) Report(increment float64, message string) {
	f(increment, message)
}

// lockedReporter serialises reports arriving from the download pool
// and tolerates a nil underlying reporter
type lockedReporter struct {
	mu sync.Mutex
	r  Reporter
}

func newLockedReporter(r Reporter) *lockedReporter {
	return &lockedReporter{r: r}
}

func (l *lockedReporter) Report(increment float64, message string) {

	if l.r == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.r.Report(increment, message)
}
