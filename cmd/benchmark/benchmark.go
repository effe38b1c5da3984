package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	cache "github.com/krisalay/expiring-cache"
	"github.com/krisalay/expiring-cache/metrics"
)

// ================= BENCHMARK =================

func main() {
	shards := flag.Int("shards", 8, "number of shards")
	ttl := flag.Duration("ttl", 50*time.Millisecond, "entry ttl; keep it short so cleanup does real work")
	preloadKeys := flag.Int("keys", 100000, "keys inserted before the run")
	goroutines := flag.Int("goroutines", 200, "concurrent workers")
	opsPerG := flag.Int("ops", 5000, "operations per worker")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	slog.Info("benchmark config",
		"shards", *shards,
		"ttl", *ttl,
		"preload_keys", *preloadKeys,
		"goroutines", *goroutines,
		"ops_per_goroutine", *opsPerG,
	)

	collector := metrics.NewCollector("bench")
	c := cache.NewShardedCache[string, int](*shards, *ttl, cache.WithMetrics(collector))
	collector.SetSizeFunc(c.Len)

	keys := make([]string, *preloadKeys)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	// ---------------- Preload ----------------
	for i, k := range keys {
		c.Insert(k, i)
	}
	slog.Info("preload complete", "entries", c.Len())

	// ---------------- Load Test ----------------
	// Mix of 3 reads to 1 write. With a short ttl some reads land on expired keys,
	// so the run exercises hits, misses, requeues and evictions together.
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(*goroutines)
	for g := 0; g < *goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < *opsPerG; j++ {
				key := keys[(id*7919+j)%len(keys)]
				if j%4 == 0 {
					c.Insert(key, j)
				} else {
					c.Get(key)
				}
			}
		}(g)
	}
	wg.Wait()

	duration := time.Since(start)
	totalOps := *goroutines * *opsPerG
	s := collector.Snapshot()

	slog.Info("benchmark results",
		"total_ops", totalOps,
		"total_time", duration,
		"ops_per_sec", fmt.Sprintf("%.2f", float64(totalOps)/duration.Seconds()),
		"hit_ratio", fmt.Sprintf("%.3f", s.HitRatio()),
		"expired", s.Expired,
		"requeued", s.Requeued,
		"discarded", s.Discarded,
		"entries_left", c.Len(),
	)

	if err := collector.WriteText(os.Stdout); err != nil {
		slog.Error("write metrics", "err", err)
		os.Exit(1)
	}
}
