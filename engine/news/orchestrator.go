package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/natsutil"
)

const (
	// IntervalMarket is the cycle cadence while the market is open.
	IntervalMarket = 10 * time.Minute
	// IntervalOff is the cycle cadence outside market hours.
	IntervalOff = 30 * time.Minute
	// ArchiveEveryN runs the archiver only on every Nth cycle, since
	// vector recall is far less time-sensitive than sentiment scoring.
	ArchiveEveryN = 3
	// tickInterval is how often the loop checks whether a cycle is due,
	// matching the original daemon's coarse polling granularity.
	tickInterval = 1 * time.Second

	// AnalyzerBudgetSlack is added to a cycle's collected count to size
	// the analyzer's per-cycle budget, so a cycle that collects more than
	// the analyzer's batch size still drains in the same cycle.
	AnalyzerBudgetSlack = 50
	// ArchiverCycleBudget bounds how many messages the archiver drains on
	// the cycles it runs on.
	ArchiverCycleBudget = 1000
	// AnalyzeHTTPBudget bounds a standalone POST /analyze trigger.
	AnalyzeHTTPBudget = 500

	// CycleEventSubject is the ancillary (non-critical) broadcast emitted
	// after each completed cycle. Subscribers are informational only;
	// nothing in the delivery-guarantee path depends on this subject.
	CycleEventSubject = "news.cycle.completed"
)

// errPipelineAlreadyRunning is returned by RunCycle and every HTTP trigger
// when a cycle or another trigger is already in flight.
var errPipelineAlreadyRunning = errors.New("Pipeline already running")

// CycleEvent is broadcast over NATS core pub/sub after every cycle.
type CycleEvent struct {
	Cycle     int64     `json:"cycle"`
	Collected int       `json:"collected"`
	Analyzed  int       `json:"analyzed"`
	Archived  int       `json:"archived"`
	At        time.Time `json:"at"`
}

// MarketClock reports whether the market is currently open, isolating the
// orchestrator's cadence decision from any one calendar implementation.
type MarketClock interface {
	IsOpen(t time.Time) bool
}

// statusSnapshot is the single mutable record of the pipeline's last-known
// counts and timestamps — the "global mutable status" every phase writes
// to and /status reads from under statusMu, so a concurrent writer and
// reader never race.
type statusSnapshot struct {
	Cycle         int64
	Collected     int
	Analyzed      int
	Archived      int
	LastCollectAt time.Time
	LastAnalyzeAt time.Time
	LastArchiveAt time.Time
}

// Orchestrator drives the collect/analyze/archive cycle on a market-aware
// schedule and exposes the same cycle as HTTP-triggered one-shot
// operations.
type Orchestrator struct {
	universe  domain.UniverseSource
	collector *Collector
	analyzer  *Analyzer
	archiver  *Archiver
	clock     MarketClock
	nc        *nats.Conn
	log       *slog.Logger

	running     atomic.Bool // a cycle or HTTP trigger is in flight
	loopRunning atomic.Bool // RunLoop is alive
	cycleCount  atomic.Int64
	lastCycle   atomic.Int64 // unix nanos

	statusMu sync.RWMutex
	status   statusSnapshot
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(universe domain.UniverseSource, collector *Collector, analyzer *Analyzer, archiver *Archiver, clock MarketClock, nc *nats.Conn, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		universe:  universe,
		collector: collector,
		analyzer:  analyzer,
		archiver:  archiver,
		clock:     clock,
		nc:        nc,
		log:       log,
	}
}

// RunLoop ticks once a second, running a full cycle whenever the
// market-aware interval has elapsed, until ctx is cancelled or a
// *domain.FatalError surfaces from a cycle — mirroring the original
// daemon's split between recoverable Exceptions (logged, loop continues)
// and a fatal BaseException (loop terminates).
func (o *Orchestrator) RunLoop(ctx context.Context) error {
	o.loopRunning.Store(true)
	defer o.loopRunning.Store(false)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			interval := o.intervalFor(time.Now())
			last := time.Unix(0, o.lastCycle.Load())
			if time.Since(last) < interval {
				continue
			}
			if err := o.RunCycle(ctx); err != nil {
				var fatal *domain.FatalError
				if errors.As(err, &fatal) {
					o.log.ErrorContext(ctx, "fatal error, stopping orchestrator", "error", err)
					return err
				}
				o.log.ErrorContext(ctx, "cycle error, continuing", "error", err)
			}
		}
	}
}

func (o *Orchestrator) intervalFor(t time.Time) time.Duration {
	if o.clock != nil && o.clock.IsOpen(t) {
		return IntervalMarket
	}
	return IntervalOff
}

// RunCycle executes one collect -> analyze -> (maybe) archive pass. It
// guards against overlap with a single atomic flag: a cycle already in
// flight causes this call to return immediately rather than queue up,
// matching the original daemon's single in-flight run invariant.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return errPipelineAlreadyRunning
	}
	defer o.running.Store(false)
	defer o.lastCycle.Store(time.Now().UnixNano())

	universe, err := o.universe.Active(ctx)
	if err != nil {
		return fmt.Errorf("news: resolve universe: %w", err)
	}

	o.analyzer.SetUniverse(universe, nil)

	var collected, analyzed, archived int

	collected, err = o.collector.Run(ctx, universe)
	if err != nil {
		o.log.WarnContext(ctx, "collector cycle had errors", "error", err)
	}
	o.recordCollect(collected)

	analyzed, err = o.analyzer.Run(ctx, collected+AnalyzerBudgetSlack)
	if err != nil {
		o.log.WarnContext(ctx, "analyzer cycle failed", "error", err)
	}
	o.recordAnalyze(analyzed)

	cycle := o.cycleCount.Add(1)
	if cycle%ArchiveEveryN == 0 {
		archived, err = o.archiver.Run(ctx, ArchiverCycleBudget)
		if err != nil {
			o.log.WarnContext(ctx, "archiver cycle failed", "error", err)
		}
		o.recordArchive(archived)
	}

	o.statusMu.Lock()
	o.status.Cycle = cycle
	o.statusMu.Unlock()

	o.broadcast(ctx, CycleEvent{Cycle: cycle, Collected: collected, Analyzed: analyzed, Archived: archived, At: time.Now()})
	return nil
}

func (o *Orchestrator) recordCollect(n int) {
	o.statusMu.Lock()
	o.status.Collected = n
	o.status.LastCollectAt = time.Now()
	o.statusMu.Unlock()
}

func (o *Orchestrator) recordAnalyze(n int) {
	o.statusMu.Lock()
	o.status.Analyzed = n
	o.status.LastAnalyzeAt = time.Now()
	o.statusMu.Unlock()
}

func (o *Orchestrator) recordArchive(n int) {
	o.statusMu.Lock()
	o.status.Archived = n
	o.status.LastArchiveAt = time.Now()
	o.statusMu.Unlock()
}

func (o *Orchestrator) broadcast(ctx context.Context, ev CycleEvent) {
	if o.nc == nil {
		return
	}
	if err := natsutil.Publish(ctx, o.nc, CycleEventSubject, ev); err != nil {
		o.log.WarnContext(ctx, "cycle event broadcast failed", "error", err)
	}
}

// Status is the /status response body.
type Status struct {
	Running         bool      `json:"running"`
	DaemonRunning   bool      `json:"daemon_running"`
	Cycle           int64     `json:"cycle"`
	Collected       int       `json:"collected"`
	Analyzed        int       `json:"analyzed"`
	Archived        int       `json:"archived"`
	LastCollectAt   time.Time `json:"last_collect_at"`
	LastAnalyzeAt   time.Time `json:"last_analyze_at"`
	LastArchiveAt   time.Time `json:"last_archive_at"`
	AnalyzerPending int       `json:"analyzer_pending"`
	ArchiverPending int       `json:"archiver_pending"`
}

// RegisterRoutes wires the orchestrator's HTTP triggers onto mux.
func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /collect", o.handleCollect)
	mux.HandleFunc("POST /analyze", o.handleAnalyze)
	mux.HandleFunc("POST /archive", o.handleArchive)
	mux.HandleFunc("GET /status", o.handleStatus)
	mux.HandleFunc("GET /health", o.handleHealth)
}

// handleCollect runs a synchronous Collect+Analyze pass, the same phases
// RunCycle performs minus the archiver, gated on the same reentrancy guard
// so a trigger can never overlap the loop's own cycle.
func (o *Orchestrator) handleCollect(w http.ResponseWriter, r *http.Request) {
	if !o.running.CompareAndSwap(false, true) {
		writeJSONResult(w, map[string]any{"message": errPipelineAlreadyRunning.Error()}, errPipelineAlreadyRunning)
		return
	}
	defer o.running.Store(false)

	ctx := r.Context()
	universe, err := o.universe.Active(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	o.analyzer.SetUniverse(universe, nil)

	collected, err := o.collector.Run(ctx, universe)
	if err != nil {
		writeJSONResult(w, map[string]any{"collected": collected}, err)
		return
	}
	o.recordCollect(collected)

	analyzed, err := o.analyzer.Run(ctx, collected+AnalyzerBudgetSlack)
	o.recordAnalyze(analyzed)
	writeJSONResult(w, map[string]any{
		"collected": collected,
		"analyzed":  analyzed,
		"message":   "collect+analyze complete",
	}, err)
}

func (o *Orchestrator) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !o.running.CompareAndSwap(false, true) {
		writeJSONResult(w, map[string]any{"message": errPipelineAlreadyRunning.Error()}, errPipelineAlreadyRunning)
		return
	}
	defer o.running.Store(false)

	n, err := o.analyzer.Run(r.Context(), AnalyzeHTTPBudget)
	o.recordAnalyze(n)
	writeJSONResult(w, map[string]any{"analyzed": n}, err)
}

func (o *Orchestrator) handleArchive(w http.ResponseWriter, r *http.Request) {
	if !o.running.CompareAndSwap(false, true) {
		writeJSONResult(w, map[string]any{"message": errPipelineAlreadyRunning.Error()}, errPipelineAlreadyRunning)
		return
	}
	defer o.running.Store(false)

	n, err := o.archiver.Run(r.Context(), ArchiverCycleBudget)
	o.recordArchive(n)
	writeJSONResult(w, map[string]any{"archived": n}, err)
}

func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
	analyzerPending, _ := o.analyzer.Pending(r.Context())
	archiverPending, _ := o.archiver.Pending(r.Context())

	o.statusMu.RLock()
	snap := o.status
	o.statusMu.RUnlock()

	status := Status{
		Running:         o.running.Load(),
		DaemonRunning:   o.loopRunning.Load(),
		Cycle:           o.cycleCount.Load(),
		Collected:       snap.Collected,
		Analyzed:        snap.Analyzed,
		Archived:        snap.Archived,
		LastCollectAt:   snap.LastCollectAt,
		LastAnalyzeAt:   snap.LastAnalyzeAt,
		LastArchiveAt:   snap.LastArchiveAt,
		AnalyzerPending: analyzerPending,
		ArchiverPending: archiverPending,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (o *Orchestrator) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSONResult(w http.ResponseWriter, body map[string]any, err error) {
	if err != nil {
		body["error"] = err.Error()
		w.WriteHeader(http.StatusInternalServerError)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
