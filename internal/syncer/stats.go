package syncer

import (
	"sync"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"
)

// downloadStats accumulates running statistics over downloaded asset
// sizes; safe for use from the download pool
type downloadStats struct {
	mu    sync.Mutex
	bytes *welford.Stats
}

func newDownloadStats() *downloadStats {
	return &downloadStats{bytes: welford.New()}
}

// Add records the size of one downloaded asset
func (d *downloadStats) Add(n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bytes.Add(float64(n))
}

// Fields summarises the accumulated statistics for logging
func (d *downloadStats) Fields() log.Fields {
	d.mu.Lock()
	defer d.mu.Unlock()

	f := log.Fields{"count": d.bytes.Count()}

	if d.bytes.Count() > 0 {
		f["bytesMin"] = d.bytes.Min()
		f["bytesMax"] = d.bytes.Max()
		f["bytesMean"] = d.bytes.Mean()
		f["bytesStddev"] = d.bytes.Stddev()
	}

	return f
}
