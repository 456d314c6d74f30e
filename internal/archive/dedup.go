package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/PentesterFlow/harspec/internal/capture"
)

// Deduplicator skips exact-duplicate exchanges when several captures are
// merged into one run. A Bloom filter front-ends an exact map: the filter
// answers "definitely new" cheaply, the map resolves its false positives.
type Deduplicator struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
	count  int
}

// NewDeduplicator creates a deduplicator sized for the estimated number of
// exchanges.
func NewDeduplicator(estimatedItems int) *Deduplicator {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}
	return &Deduplicator{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Signature identifies an exchange by method, URL, status, and body content.
func Signature(ex *capture.Exchange) string {
	h := sha256.New()
	h.Write([]byte(ex.RequestBody.Text))
	h.Write([]byte{0})
	h.Write([]byte(ex.ResponseBody.Text))
	bodies := hex.EncodeToString(h.Sum(nil)[:12])

	var sb strings.Builder
	sb.WriteString(ex.Method)
	sb.WriteByte(' ')
	sb.WriteString(ex.RebuildURL())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(ex.Status))
	sb.WriteByte(' ')
	sb.WriteString(bodies)
	return sb.String()
}

// SeenBefore reports whether an identical exchange was already observed and
// records this one.
func (d *Deduplicator) SeenBefore(ex *capture.Exchange) bool {
	sig := Signature(ex)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestString(sig) {
		if _, exists := d.exact[sig]; exists {
			return true
		}
	}
	d.filter.AddString(sig)
	d.exact[sig] = struct{}{}
	d.count++
	return false
}

// Count returns the number of distinct exchanges observed.
func (d *Deduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Reset clears the deduplicator.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter.ClearAll()
	d.exact = make(map[string]struct{})
	d.count = 0
}
