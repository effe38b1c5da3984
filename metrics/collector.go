package metrics

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/atomic"
	"google.golang.org/protobuf/proto"

	"github.com/krisalay/expiring-cache/types"
)

// Metric names exported by Collector, before the namespace prefix.
const (
	nameHits     = "hits_total"
	nameMisses   = "misses_total"
	nameExpired  = "expired_total"
	nameRequeued = "requeued_records_total"
	nameDropped  = "discarded_records_total"
	nameEntries  = "entries"
)

// Collector is a concurrency-safe types.Metrics implementation.
type Collector struct {
	namespace string

	hits     atomic.Uint64
	misses   atomic.Uint64
	expired  atomic.Uint64
	requeued atomic.Uint64
	dropped  atomic.Uint64

	// size, when set, reports the current number of cached entries as a gauge.
	size func() int
}

var _ types.Metrics = (*Collector)(nil)

// NewCollector returns a Collector whose metric names are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{namespace: namespace}
}

// SetSizeFunc registers fn as the source of the entries gauge.
func (c *Collector) SetSizeFunc(fn func() int) {
	c.size = fn
}

func (c *Collector) Hit()     { c.hits.Inc() }
func (c *Collector) Miss()    { c.misses.Inc() }
func (c *Collector) Expire()  { c.expired.Inc() }
func (c *Collector) Requeue() { c.requeued.Inc() }
func (c *Collector) Discard() { c.dropped.Inc() }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Hits, Misses, Expired, Requeued, Discarded uint64
}

// Snapshot reads every counter.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Expired:   c.expired.Load(),
		Requeued:  c.requeued.Load(),
		Discarded: c.dropped.Load(),
	}
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s Snapshot) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Gather returns the current values as metric families sorted by name.
func (c *Collector) Gather() []*dto.MetricFamily {
	s := c.Snapshot()
	mfs := []*dto.MetricFamily{
		c.counter(nameHits, "Lookups that found a live entry.", s.Hits),
		c.counter(nameMisses, "Lookups that found nothing.", s.Misses),
		c.counter(nameExpired, "Entries evicted because their last access was older than the TTL.", s.Expired),
		c.counter(nameRequeued, "Stale access records requeued at the entry's real last access.", s.Requeued),
		c.counter(nameDropped, "Access records dropped because their key had been removed.", s.Discarded),
	}
	if c.size != nil {
		mfs = append(mfs, c.gauge(nameEntries, "Entries currently held, including expired ones not yet cleaned up.", float64(c.size())))
	}
	sort.Slice(mfs, func(i, j int) bool { return mfs[i].GetName() < mfs[j].GetName() })
	return mfs
}

// WriteText renders Gather in the Prometheus text format.
func (c *Collector) WriteText(w io.Writer) error {
	for _, mf := range c.Gather() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Handler serves WriteText over HTTP.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		if err := c.WriteText(&buf); err != nil {
			slog.Error("metrics: render failed", "err", err)
			http.Error(w, "metrics unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		_, _ = w.Write(buf.Bytes())
	})
}

func (c *Collector) fullName(name string) string {
	if c.namespace == "" {
		return name
	}
	return c.namespace + "_" + name
}

func (c *Collector) counter(name, help string, v uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(c.fullName(name)),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{
			Counter: &dto.Counter{Value: proto.Float64(float64(v))},
		}},
	}
}

func (c *Collector) gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(c.fullName(name)),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		}},
	}
}
