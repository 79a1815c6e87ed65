// Package mgmt implements the status/metrics HTTP endpoint. It never
// touches the forwarder's live tables directly - the single cooperative
// task periodically calls Update with a snapshot, and every HTTP request
// only ever reads that snapshot.
package mgmt

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Snapshot is a point-in-time copy of the forwarder's face/table sizes
// and packet counters.
type Snapshot struct {
	Faces      int
	PitEntries int
	PetEntries int
	CsEntries  int
	CsCapacity int

	InInterests, InData            uint64
	OutInterests, OutData          uint64
	SatisfiedInterests             uint64
	UnsatisfiedInterests           uint64
	DuplicateNonce, NameCollisions uint64
	DuplicateContent               uint64
	Dropped                        uint64
}

// statusQuery is decoded from the status page's optional query string
// (?prefix=&verbose=) with gorilla/schema.
type statusQuery struct {
	Prefix  string `schema:"prefix"`
	Verbose bool   `schema:"verbose"`
}

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// Module serves the status JSON page and the /metrics Prometheus endpoint.
// It implements prometheus.Collector itself, reading the current snapshot
// only at scrape time - there is no separate gauge-update path to keep in
// sync.
type Module struct {
	snap atomic.Pointer[Snapshot]
	reg  *prometheus.Registry
}

// NewModule returns a Module with an empty initial snapshot.
func NewModule() *Module {
	m := &Module{reg: prometheus.NewRegistry()}
	m.snap.Store(&Snapshot{})
	m.reg.MustRegister(m)
	return m
}

func (m *Module) String() string { return "mgmt-status" }

// Update replaces the snapshot the HTTP handlers read. Called from the
// forwarder's own task - never from a handler goroutine.
func (m *Module) Update(s Snapshot) {
	m.snap.Store(&s)
}

var (
	descFaces      = prometheus.NewDesc("ccnfwd_faces", "Live face count", nil, nil)
	descPit        = prometheus.NewDesc("ccnfwd_pit_entries", "Interest-prefix table entries", nil, nil)
	descPet        = prometheus.NewDesc("ccnfwd_pet_entries", "Propagating-interest table entries", nil, nil)
	descCs         = prometheus.NewDesc("ccnfwd_cs_entries", "Content store entries", nil, nil)
	descCsCapacity = prometheus.NewDesc("ccnfwd_cs_capacity", "Content store by-accession capacity", nil, nil)
	descCounter    = prometheus.NewDesc("ccnfwd_packets_total", "Forwarder packet counters", []string{"kind"}, nil)
)

// Describe implements prometheus.Collector.
func (m *Module) Describe(ch chan<- *prometheus.Desc) {
	ch <- descFaces
	ch <- descPit
	ch <- descPet
	ch <- descCs
	ch <- descCsCapacity
	ch <- descCounter
}

// Collect implements prometheus.Collector, reading the latest snapshot.
func (m *Module) Collect(ch chan<- prometheus.Metric) {
	s := m.snap.Load()
	ch <- prometheus.MustNewConstMetric(descFaces, prometheus.GaugeValue, float64(s.Faces))
	ch <- prometheus.MustNewConstMetric(descPit, prometheus.GaugeValue, float64(s.PitEntries))
	ch <- prometheus.MustNewConstMetric(descPet, prometheus.GaugeValue, float64(s.PetEntries))
	ch <- prometheus.MustNewConstMetric(descCs, prometheus.GaugeValue, float64(s.CsEntries))
	ch <- prometheus.MustNewConstMetric(descCsCapacity, prometheus.GaugeValue, float64(s.CsCapacity))

	counters := []struct {
		kind string
		val  uint64
	}{
		{"in_interests", s.InInterests},
		{"in_data", s.InData},
		{"out_interests", s.OutInterests},
		{"out_data", s.OutData},
		{"satisfied_interests", s.SatisfiedInterests},
		{"unsatisfied_interests", s.UnsatisfiedInterests},
		{"duplicate_nonce", s.DuplicateNonce},
		{"name_collisions", s.NameCollisions},
		{"duplicate_content", s.DuplicateContent},
		{"dropped", s.Dropped},
	}
	for _, c := range counters {
		ch <- prometheus.MustNewConstMetric(descCounter, prometheus.CounterValue, float64(c.val), c.kind)
	}
}

// Handler returns the mux this module serves: /metrics for Prometheus
// scraping, / for the JSON status page.
func (m *Module) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", m.serveStatus)
	return mux
}

func (m *Module) serveStatus(w http.ResponseWriter, r *http.Request) {
	var q statusQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		http.Error(w, "bad query parameters", http.StatusBadRequest)
		return
	}

	s := m.snap.Load()
	body := map[string]any{
		"faces_by_fd": s.Faces,
		"content_tab": map[string]any{
			"entries":  s.CsEntries,
			"capacity": s.CsCapacity,
		},
		"pit_entries": s.PitEntries,
		"pet_entries": s.PetEntries,
		"counters": map[string]uint64{
			"in_interests":          s.InInterests,
			"in_data":               s.InData,
			"out_interests":         s.OutInterests,
			"out_data":              s.OutData,
			"satisfied_interests":   s.SatisfiedInterests,
			"unsatisfied_interests": s.UnsatisfiedInterests,
			"duplicate_nonce":       s.DuplicateNonce,
			"name_collisions":       s.NameCollisions,
			"duplicate_content":     s.DuplicateContent,
			"dropped":               s.Dropped,
		},
	}
	if q.Prefix != "" && !q.Verbose {
		// The snapshot carries no per-name detail, so a prefix query gets
		// the same totals as any other; verbose=1 adds nothing either.
		body["note"] = "per-prefix detail is not available"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
