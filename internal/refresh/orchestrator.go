// Package refresh rebuilds the tab trees in the background whenever either
// side's listing changes and swaps the newest result in on the owning
// context.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"packsync/internal/events"
	"packsync/internal/logging"
	"packsync/internal/synctree"
)

// MinDebounce is the shortest coalescing window for local change bursts.
const MinDebounce = 200 * time.Millisecond

// State is the coarse phase of the orchestrator.
type State int32

const (
	Idle State = iota
	Building
	Applying
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Applying:
		return "applying"
	default:
		return "idle"
	}
}

// Builder turns two listings into tabs. It must not touch shared state.
type Builder func(local, remote []synctree.Entry, mode synctree.Mode) []synctree.Tab

// Source produces a fresh listing of one side.
type Source interface {
	Scan(ctx context.Context) ([]synctree.Entry, error)
}

// Fetcher produces a fresh listing of the remote side.
type Fetcher interface {
	Fetch(ctx context.Context) ([]synctree.Entry, error)
}

// Applied describes a swap that reached the owning context.
type Applied struct {
	Version  uint64
	Tabs     []synctree.Tab
	Selected int
}

// Options configures an Orchestrator. Dispatcher is required.
type Options struct {
	Mode         synctree.Mode
	Filter       synctree.Filter
	Debounce     time.Duration
	FetchTimeout time.Duration
	SelectedTab  int

	Builder    Builder
	Dispatcher Dispatcher
	Local      Source
	Remote     Fetcher

	// Listener is attached to every tab root after each swap.
	Listener synctree.Listener
	// OnApplied runs on the owning context after each swap.
	OnApplied func(Applied)

	Bus    EventBus.Bus
	Logger *zap.Logger
}

type attachment struct {
	root *synctree.Node
	id   int
}

// Orchestrator owns the versioned rebuild protocol. Version, cancel and the
// two listing snapshots are shared with background goroutines under mu.
// Everything else belongs to the owning context and is only touched from
// functions run through the Dispatcher.
type Orchestrator struct {
	opts  Options
	log   *zap.Logger
	state atomic.Int32

	ctx    context.Context
	stop   context.CancelFunc
	mu     sync.Mutex
	ver    uint64
	cancel context.CancelFunc
	local  []synctree.Entry
	remote []synctree.Entry
	// localGen counts change notifications; scannedGen is the generation the
	// local snapshot reflects.
	localGen   uint64
	scannedGen uint64
	// inflight counts issued versions whose run has not finished.
	inflight int

	// owning context only
	tabs     []synctree.Tab
	selected int
	filter   synctree.Filter
	attached []attachment
	applied  uint64
}

// New returns an idle orchestrator with empty listings and no tabs.
func New(opts Options) (*Orchestrator, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("refresh: dispatcher is required")
	}
	if opts.Builder == nil {
		opts.Builder = synctree.BuildTabs
	}
	if opts.Debounce < MinDebounce {
		opts.Debounce = MinDebounce
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.Filter == nil {
		opts.Filter = synctree.AllChanges()
	}
	if opts.Bus == nil {
		opts.Bus = events.GlobalBus
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		opts:     opts,
		log:      logging.OrNop(opts.Logger).Named("refresh"),
		ctx:      ctx,
		stop:     stop,
		selected: opts.SelectedTab,
		filter:   opts.Filter,
	}, nil
}

// State returns the current phase.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Version returns the latest issued version.
func (o *Orchestrator) Version() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ver
}

// Snapshots returns the current local and remote listings.
func (o *Orchestrator) Snapshots() (local, remote []synctree.Entry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.local, o.remote
}

// LocalGen returns the number of change notifications received so far.
// Read it before scanning and hand it to SetLocalAt with the result.
func (o *Orchestrator) LocalGen() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.localGen
}

// SetLocal replaces the local listing and issues a rebuild. Change
// notifications that are still pending trigger a rescan in that rebuild.
func (o *Orchestrator) SetLocal(entries []synctree.Entry) uint64 {
	o.mu.Lock()
	o.local = entries
	o.mu.Unlock()
	return o.issue("local", 0)
}

// SetLocalAt replaces the local listing with a scan that started when
// LocalGen returned gen. Notifications received after that still trigger a
// rescan. A scan older than the current listing is ignored and returns 0.
func (o *Orchestrator) SetLocalAt(gen uint64, entries []synctree.Entry) uint64 {
	o.mu.Lock()
	if gen < o.scannedGen {
		o.mu.Unlock()
		o.log.Debug("ignoring outdated local listing", zap.Uint64("gen", gen))
		return 0
	}
	o.local = entries
	o.scannedGen = gen
	o.mu.Unlock()
	return o.issue("local", 0)
}

// SetRemote replaces the remote listing and issues a rebuild.
func (o *Orchestrator) SetRemote(entries []synctree.Entry) uint64 {
	o.mu.Lock()
	o.remote = entries
	o.mu.Unlock()
	return o.issue("remote", 0)
}

// Rebuild issues a rebuild from the current listings.
func (o *Orchestrator) Rebuild() uint64 { return o.issue("explicit", 0) }

// NotifyLocalChanged marks the local listing stale and issues a rebuild that
// first waits the debounce window. A burst of notifications cancels every
// wait but the last, so it collapses into one rescan.
func (o *Orchestrator) NotifyLocalChanged(path string) uint64 {
	o.mu.Lock()
	o.localGen++
	o.mu.Unlock()
	o.opts.Bus.Publish(events.EventLocalChanged, path)
	return o.issue("local-change", o.opts.Debounce)
}

// Refetch asks the remote fetcher for a new listing. A failed or cancelled
// fetch leaves the previous remote listing in place.
func (o *Orchestrator) Refetch(ctx context.Context) error {
	if o.opts.Remote == nil {
		return errors.New("refresh: no remote fetcher configured")
	}
	ctx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	defer cancel()

	entries, err := o.opts.Remote.Fetch(ctx)
	if err != nil {
		o.log.Warn("remote fetch failed", zap.Error(err))
		o.opts.Bus.Publish(events.EventRemoteFailed, err)
		return fmt.Errorf("refetch: %w", err)
	}
	o.log.Info("remote fetched", zap.Int("entries", len(entries)))
	o.opts.Bus.Publish(events.EventRemoteFetched, len(entries))
	o.SetRemote(entries)
	return nil
}

// Close cancels pending work. Results that are still in flight are dropped.
func (o *Orchestrator) Close() {
	o.stop()
	o.state.Store(int32(Idle))
}

func (o *Orchestrator) issue(reason string, delay time.Duration) uint64 {
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.ver++
	o.inflight++
	v := o.ver
	ctx, cancel := context.WithCancel(o.ctx)
	o.cancel = cancel
	o.mu.Unlock()

	o.log.Debug("rebuild requested", zap.Uint64("version", v), zap.String("reason", reason))
	o.opts.Bus.Publish(events.EventRefreshRequested, v, reason)
	go o.run(ctx, v, delay)
	return v
}

// localScan is a rescan made by one version. It becomes the shared local
// listing only if that version is applied.
type localScan struct {
	gen     uint64
	entries []synctree.Entry
}

func (o *Orchestrator) run(ctx context.Context, v uint64, delay time.Duration) {
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			o.dropped(v, "superseded during debounce")
			return
		case <-t.C:
		}
	}
	if ctx.Err() != nil {
		o.dropped(v, "superseded before build")
		return
	}

	o.state.Store(int32(Building))
	local, remote := o.Snapshots()
	scan := o.rescanIfStale(ctx)
	if ctx.Err() != nil {
		o.dropped(v, "superseded during rescan")
		return
	}
	if scan != nil {
		local = scan.entries
	}

	start := time.Now()
	tabs := o.opts.Builder(local, remote, o.opts.Mode)
	o.log.Debug("rebuild finished",
		zap.Uint64("version", v),
		zap.Int("local", len(local)),
		zap.Int("remote", len(remote)),
		zap.Duration("took", time.Since(start)))

	o.opts.Dispatcher.Dispatch(func() { o.apply(v, tabs, scan) })
}

// rescanIfStale scans the local side when a change notification arrived
// since the last published scan. It returns nil when nothing was scanned or
// the scan failed, in which case the build uses the current listing.
func (o *Orchestrator) rescanIfStale(ctx context.Context) *localScan {
	if o.opts.Local == nil {
		return nil
	}
	o.mu.Lock()
	gen, stale := o.localGen, o.localGen != o.scannedGen
	o.mu.Unlock()
	if !stale {
		return nil
	}

	entries, err := o.opts.Local.Scan(ctx)
	if err != nil {
		o.log.Warn("local rescan failed", zap.Error(err))
		return nil
	}
	return &localScan{gen: gen, entries: entries}
}

// commit reports whether v is still the latest version and, if so,
// publishes its rescan as the shared local listing.
func (o *Orchestrator) commit(v uint64, scan *localScan) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v != o.ver {
		return false
	}
	if scan != nil && scan.gen >= o.scannedGen {
		o.local = scan.entries
		o.scannedGen = scan.gen
	}
	return true
}

// finish marks one run as done and settles the state to Idle when no other
// run is left.
func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.inflight--
	idle := o.inflight == 0
	o.mu.Unlock()
	if idle {
		o.state.Store(int32(Idle))
	}
}

func (o *Orchestrator) dropped(v uint64, why string) {
	o.finish()
	o.log.Debug("rebuild dropped", zap.Uint64("version", v), zap.String("why", why))
	o.opts.Bus.Publish(events.EventRefreshDropped, v)
}

// apply runs on the owning context.
func (o *Orchestrator) apply(v uint64, tabs []synctree.Tab, scan *localScan) {
	if o.ctx.Err() != nil {
		o.state.Store(int32(Idle))
		o.dropped(v, "closed")
		return
	}
	if !o.commit(v, scan) {
		o.dropped(v, "stale")
		return
	}
	o.state.Store(int32(Applying))
	defer func() {
		o.finish()
		o.state.CompareAndSwap(int32(Applying), int32(Building))
	}()

	expanded := expandedPaths(o.tabs)
	o.detach()
	o.tabs = tabs
	restoreExpanded(o.tabs, expanded)
	o.attach()
	o.selected = clamp(o.selected, len(o.tabs))
	synctree.ApplyFilterTabs(o.tabs, o.filter)
	o.applied = v

	o.log.Debug("rebuild applied", zap.Uint64("version", v), zap.Int("tabs", len(tabs)))
	o.opts.Bus.Publish(events.EventRefreshApplied, v, len(tabs))
	if o.opts.OnApplied != nil {
		o.opts.OnApplied(Applied{Version: v, Tabs: o.tabs, Selected: o.selected})
	}
}

func (o *Orchestrator) detach() {
	for _, a := range o.attached {
		a.root.RemoveListener(a.id)
	}
	o.attached = nil
}

func (o *Orchestrator) attach() {
	if o.opts.Listener == nil {
		return
	}
	for _, t := range o.tabs {
		id := t.Root.AddListener(o.opts.Listener)
		o.attached = append(o.attached, attachment{root: t.Root, id: id})
	}
}

// The methods below must run on the owning context.

// Tabs returns the current tab list.
func (o *Orchestrator) Tabs() []synctree.Tab { return o.tabs }

// Applied returns the version of the tabs currently shown, 0 before the
// first swap.
func (o *Orchestrator) Applied() uint64 { return o.applied }

// SelectedTab returns the selected tab index.
func (o *Orchestrator) SelectedTab() int { return o.selected }

// SelectTab changes the selected tab, clamped to the tab count.
func (o *Orchestrator) SelectTab(i int) int {
	o.selected = clamp(i, len(o.tabs))
	return o.selected
}

// Filter returns a copy of the active filter.
func (o *Orchestrator) Filter() synctree.Filter {
	f := make(synctree.Filter, len(o.filter))
	for k, v := range o.filter {
		f[k] = v
	}
	return f
}

// SetFilter replaces the filter and recomputes visibility without a rebuild.
func (o *Orchestrator) SetFilter(f synctree.Filter) {
	o.filter = f
	synctree.ApplyFilterTabs(o.tabs, f)
}

func clamp(i, n int) int {
	switch {
	case n == 0 || i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}

type nodeKey struct {
	path  string
	isDir bool
}

func expandedPaths(tabs []synctree.Tab) map[nodeKey]bool {
	out := map[nodeKey]bool{}
	for _, t := range tabs {
		t.Root.Walk(func(n *synctree.Node) bool {
			if n.IsExpanded() {
				out[nodeKey{n.Path(), n.IsDir()}] = true
			}
			return true
		})
	}
	return out
}

func restoreExpanded(tabs []synctree.Tab, expanded map[nodeKey]bool) {
	if len(expanded) == 0 {
		return
	}
	for _, t := range tabs {
		t.Root.Walk(func(n *synctree.Node) bool {
			if expanded[nodeKey{n.Path(), n.IsDir()}] {
				n.SetExpanded(true)
			}
			return true
		})
	}
}
