// Package signal implements the Signal Registry and Callback Dispatcher:
// named booleans with direction, edge-triggered FIFO-ordered subscriber
// notification, and a deferred-write queue that lets a callback toggle
// further signals without recursing into the dispatcher.
package signal

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/stev4501/e84ctl/internal/e84err"
)

// token authorizes writes to one signal. It is issued to whichever
// collaborator registered the signal and is never exposed directly;
// only Handle carries it.
type token struct{}

// Handle identifies a registered signal and authorizes writes to it. It
// is returned by Register and must be presented to Write; a Handle
// obtained for one signal cannot be used to write a different one.
type Handle struct {
	name      string
	direction Direction
	tok       *token
}

// Name returns the signal's name.
func (h Handle) Name() string { return h.name }

// Direction returns the signal's owning direction.
func (h Handle) Direction() Direction { return h.direction }

type entry struct {
	direction  Direction
	activeLow  bool
	level      bool
	lastChange time.Time
	tok        *token
}

// Snapshot is a consistent, immutable (copied) read of one signal for
// diagnostics.
type Snapshot struct {
	Name       string
	Direction  Direction
	Level      bool
	LastChange time.Time
}

type deferredWrite struct {
	handle Handle
	level  bool
}

// Registry is the mapping from signal name to Signal plus its
// subscription set. It is designed to be touched only by the single
// dispatch goroutine (§5); it does not lock internally.
type Registry struct {
	signals    map[string]*entry
	dispatcher *dispatcher
	deferred   []deferredWrite
	notifying  bool
	draining   bool
	log        zerolog.Logger
}

// New constructs an empty Registry.
func New(opts *RegistryOptions, log zerolog.Logger) *Registry {
	if opts == nil {
		opts = NewRegistryOptions()
	}
	return &Registry{
		signals:    make(map[string]*entry, opts.initialCapacity),
		dispatcher: newDispatcher(),
		log:        log.With().Str("component", "signal.Registry").Logger(),
	}
}

// Register creates a new signal with the given name, direction, and
// polarity, returning a Handle that authorizes future writes to it. It
// fails with e84err.KindDuplicateSignal if name is already registered.
func (r *Registry) Register(name string, direction Direction, opts *RegisterOptions) (Handle, error) {
	if opts == nil {
		opts = NewRegisterOptions()
	}
	if _, exists := r.signals[name]; exists {
		return Handle{}, e84err.New(e84err.KindDuplicateSignal, name)
	}
	tok := &token{}
	r.signals[name] = &entry{
		direction:  direction,
		activeLow:  opts.activeLow,
		lastChange: time.Now(),
		tok:        tok,
	}
	return Handle{name: name, direction: direction, tok: tok}, nil
}

// Read returns the current logical level of the signal identified by h.
// Total: never fails given a handle this Registry issued.
func (r *Registry) Read(h Handle) bool {
	e, ok := r.signals[h.name]
	if !ok {
		return false
	}
	return e.level
}

// ReadByName reads a signal's level by name, for collaborators that only
// have the name (e.g. guard predicates evaluated over a snapshot).
func (r *Registry) ReadByName(name string) bool {
	e, ok := r.signals[name]
	if !ok {
		return false
	}
	return e.level
}

// ActiveLow reports the registered polarity of the signal.
func (r *Registry) ActiveLow(name string) bool {
	e, ok := r.signals[name]
	if !ok {
		return false
	}
	return e.activeLow
}

// Write sets the logical level of the signal h authorizes. Writing the
// same level the signal already holds is a no-op and does not notify
// subscribers. A write arriving while the Registry is already dispatching
// a notification (i.e. from inside a subscriber callback) is queued and
// applied, in write order, once the current notification finishes — this
// is the one level of reentrancy the design permits; anything deeper
// fails with e84err.KindReentrantDispatch.
func (r *Registry) Write(h Handle, level bool) error {
	e, ok := r.signals[h.name]
	if !ok || e.tok != h.tok {
		return e84err.New(e84err.KindWrongDirection, h.name)
	}
	if e.level == level {
		return nil
	}
	if r.notifying {
		if r.draining {
			return e84err.New(e84err.KindReentrantDispatch, h.name)
		}
		r.deferred = append(r.deferred, deferredWrite{handle: h, level: level})
		return nil
	}
	r.apply(h.name, e, level)
	return r.drainDeferred()
}

func (r *Registry) apply(name string, e *entry, level bool) {
	e.level = level
	e.lastChange = time.Now()
	r.notifying = true
	r.log.Debug().Str("signal", name).Bool("level", level).Msg("signal changed")
	r.dispatcher.fanOut(name, level)
	r.notifying = false
}

func (r *Registry) drainDeferred() error {
	if r.draining {
		return e84err.New(e84err.KindReentrantDispatch, "drainDeferred")
	}
	r.draining = true
	defer func() { r.draining = false }()
	for len(r.deferred) > 0 {
		dw := r.deferred[0]
		r.deferred = r.deferred[1:]
		e, ok := r.signals[dw.handle.name]
		if !ok || e.level == dw.level {
			continue
		}
		r.apply(dw.handle.name, e, dw.level)
	}
	return nil
}

// Subscribe registers callback to be invoked synchronously, in FIFO
// registration order relative to other subscribers of the same name, on
// every real level change of the named signal.
func (r *Registry) Subscribe(name string, callback func(level bool)) SubscriptionID {
	return r.dispatcher.subscribe(name, callback)
}

// Unsubscribe removes a subscription. Idempotent.
func (r *Registry) Unsubscribe(id SubscriptionID) {
	r.dispatcher.unsubscribe(id)
}

// Snapshot returns a consistent, independent copy of every registered
// signal, for diagnostics and guard evaluation.
func (r *Registry) Snapshot() map[string]Snapshot {
	out := make(map[string]Snapshot, len(r.signals))
	for name, e := range r.signals {
		out[name] = Snapshot{
			Name:       name,
			Direction:  e.direction,
			Level:      e.level,
			LastChange: e.lastChange,
		}
	}
	return out
}
