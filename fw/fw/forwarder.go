// Package fw joins the face table, content store, and interest tables
// into the matching engine and the epoll-driven event loop.
package fw

import (
	"math/rand"
	"time"

	"github.com/ccnfwd/ccnfwd/fw/core"
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	"github.com/ccnfwd/ccnfwd/fw/mgmt"
	"github.com/ccnfwd/ccnfwd/fw/scheduler"
	"github.com/ccnfwd/ccnfwd/fw/table"
)

// CCNUnitInterest is the quantum one Interest arrival adds to its face's
// counter in an InterestPrefixEntry.
const CCNUnitInterest = table.UnitInterest

// Counters are the forwarder-wide packet counters the status endpoint
// reports.
type Counters struct {
	InInterests, InData            uint64
	OutInterests, OutData          uint64
	SatisfiedInterests             uint64
	UnsatisfiedInterests           uint64
	DuplicateNonce, NameCollisions uint64
	DuplicateContent               uint64
	Dropped                        uint64
}

// Forwarder owns every live table and drives the matching engine and
// event loop. Not safe for concurrent use - the whole point of the
// single-task model is that it never needs to be.
type Forwarder struct {
	Cfg   *core.Config
	Sched *scheduler.Scheduler
	Faces *face.Table
	CS    *table.ContentStore
	PIT   *table.PrefixTable
	PET   *table.PropagatingTable

	Counters Counters

	rng *rand.Rand

	epfd           int
	streamListenFd int
	udpFd          int
	socketPath     string
}

func (fw *Forwarder) String() string { return "forwarder" }

// New builds a Forwarder with empty tables, wired to cfg's sizing
// parameters. Sockets are not opened here - call Listen.
func New(cfg *core.Config) *Forwarder {
	sched := scheduler.New()
	return &Forwarder{
		Cfg:   cfg,
		Sched: sched,
		Faces: face.NewTable(64, 1<<16),
		CS:    table.NewContentStore(sched, cfg.Forwarder.ContentStoreByAccessionCapacity),
		PIT:   table.NewPrefixTable(),
		PET:   table.NewPropagatingTable(sched),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),

		epfd:           -1,
		streamListenFd: -1,
		udpFd:          -1,
	}
}

// StartBackgroundTasks arms the periodic aging, reaping, and cleaning
// timers, each driven by the scheduler rather than its own goroutine.
func (fw *Forwarder) StartBackgroundTasks(halfLifeMicros int64) {
	agingPeriod := halfLifeMicros / 4
	if agingPeriod <= 0 {
		agingPeriod = 1_000_000
	}
	fw.Sched.Schedule(agingPeriod, func(any) { fw.PIT.Age() }, nil, agingPeriod)
	fw.Sched.Schedule(2*halfLifeMicros, func(any) { fw.reap() }, nil, 2*halfLifeMicros)
	fw.Sched.Schedule(15_000_000, func(any) { fw.clean() }, nil, 15_000_000)
}

// reap evicts datagram faces whose RecvCount is 0. A face that did
// receive has its count folded down rather than cleared outright: a count
// above 1 becomes 1 and a count of 1 becomes 0. A face that received a
// single datagram is therefore evicted by the tick after the one that
// found it active, unless it receives again in between; a busier face
// gets one tick more.
func (fw *Forwarder) reap() {
	var stale []*face.Face
	fw.Faces.All(func(f *face.Face) {
		// Only datagram children age out this way - the listener itself
		// (PeerKey == "") stays up for the life of the process.
		if f.Kind != defn.KindDatagram || f.PeerKey == "" {
			return
		}
		if f.RecvCount == 0 {
			stale = append(stale, f)
		} else if f.RecvCount > 1 {
			f.RecvCount = 1
		} else {
			f.RecvCount = 0
		}
	})
	for _, f := range stale {
		fw.Faces.ShutdownFace(f)
	}

	fw.PIT.All(func(ipe *table.InterestPrefixEntry) {
		var stale []*table.PropagatingEntry
		for _, pe := range ipe.Propagating {
			if pe.Reapable() {
				stale = append(stale, pe)
			}
		}
		for _, pe := range stale {
			fw.PET.Remove(pe)
		}
	})
}

// clean rewrites each live ContentEntry's face list in place, dropping
// faces that no longer resolve.
func (fw *Forwarder) clean() {
	fw.cleanContentStore()
}

// StatusSnapshot copies the current table sizes and packet counters for
// the status endpoint - the only view of forwarder state anything outside
// the single cooperative task is allowed to see.
func (fw *Forwarder) StatusSnapshot() mgmt.Snapshot {
	return mgmt.Snapshot{
		Faces:                fw.Faces.Len(),
		PitEntries:           fw.PIT.Len(),
		PetEntries:           fw.PET.Len(),
		CsEntries:            fw.CS.Len(),
		CsCapacity:           fw.Cfg.Forwarder.ContentStoreByAccessionCapacity,
		InInterests:          fw.Counters.InInterests,
		InData:               fw.Counters.InData,
		OutInterests:         fw.Counters.OutInterests,
		OutData:              fw.Counters.OutData,
		SatisfiedInterests:   fw.Counters.SatisfiedInterests,
		UnsatisfiedInterests: fw.Counters.UnsatisfiedInterests,
		DuplicateNonce:       fw.Counters.DuplicateNonce,
		NameCollisions:       fw.Counters.NameCollisions,
		DuplicateContent:     fw.Counters.DuplicateContent,
		Dropped:              fw.Counters.Dropped,
	}
}
