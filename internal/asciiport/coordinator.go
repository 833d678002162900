package asciiport

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stev4501/e84ctl/internal/loadport"
)

// defaultTimeout is the response deadline spec.md §6 names for any
// ASCII verb.
const defaultTimeout = 5 * time.Second

// request is one queued command awaiting its at-most-one-in-flight
// turn.
type request struct {
	verb Verb
	cb   func(Response, error)
}

// Coordinator is the ASCII-serial Load Port Coordinator variant
// (spec.md §4.4): a request queue with at-most-one in-flight command,
// a per-command timeout, and a single retry on transport error before
// the command is given up as a port fault.
type Coordinator struct {
	transport Transport
	model     *loadport.Model
	timeout   time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	queue   []request
	sending bool

	statusStop chan struct{}
}

// New constructs a Coordinator talking over transport and, when
// statusInterval > 0, starts a background poller issuing STATUS requests
// every statusInterval to keep the port model
// current (the ASCII protocol has no unsolicited sensor push; spec.md
// §4.4's on_change contract is satisfied by polling).
func New(transport Transport, timeout time.Duration, statusInterval time.Duration, log zerolog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Coordinator{
		transport:  transport,
		model:      loadport.NewModel(),
		timeout:    timeout,
		log:        log.With().Str("component", "asciiport.Coordinator").Logger(),
		statusStop: make(chan struct{}),
	}
	if statusInterval > 0 {
		go c.pollStatus(statusInterval)
	}
	return c
}

func (c *Coordinator) pollStatus(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.statusStop:
			return
		case <-t.C:
			c.enqueue(VerbStatus, func(r Response, err error) {
				if err != nil || r.Kind != RespStatus {
					return
				}
				c.model.Apply(r.StatusBits.CarrierPresent, r.StatusBits.Clamped, r.StatusBits.Docked, r.StatusBits.PlacementOK)
			})
		}
	}
}

// Stop halts the background status poller.
func (c *Coordinator) Stop() {
	close(c.statusStop)
}

func (c *Coordinator) enqueue(verb Verb, cb func(Response, error)) {
	c.mu.Lock()
	c.queue = append(c.queue, request{verb: verb, cb: cb})
	sending := c.sending
	c.mu.Unlock()
	if !sending {
		go c.drain()
	}
}

func (c *Coordinator) drain() {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return
	}
	c.sending = true
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.sending = false
			c.mu.Unlock()
			return
		}
		req := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		resp, err := c.sendWithRetry(req.verb)
		req.cb(resp, err)
	}
}

// sendWithRetry implements the "single retry on transport error" policy
// of spec.md §4.4: a transport-level failure (timeout, write error)
// is retried exactly once before being surfaced.
func (c *Coordinator) sendWithRetry(verb Verb) (Response, error) {
	resp, err := c.send(verb)
	if err == nil {
		return resp, nil
	}
	c.log.Warn().Str("verb", string(verb)).Err(err).Msg("retrying after transport error")
	return c.send(verb)
}

func (c *Coordinator) send(verb Verb) (Response, error) {
	if err := c.transport.WriteRequest(encode(verb)); err != nil {
		return Response{}, err
	}
	line, err := c.transport.ReadResponse(c.timeout)
	if err != nil {
		return Response{}, err
	}
	return parseResponse(line), nil
}

func (c *Coordinator) prepare(verb Verb, cb func(loadport.Result)) {
	c.enqueue(verb, func(resp Response, err error) {
		if err != nil {
			cb(loadport.Result{Reason: loadport.FaultTransport})
			return
		}
		switch resp.Kind {
		case RespOK, RespReady, RespDone:
			cb(loadport.Result{Ready: true})
		case RespErr:
			cb(loadport.Result{Reason: faultReasonFor(resp.ErrCode)})
		default:
			cb(loadport.Result{Reason: loadport.FaultSensorInconsistent})
		}
	})
}

func faultReasonFor(code string) loadport.FaultReason {
	switch code {
	case "DOCK_FAIL":
		return loadport.FaultDockFailure
	case "UNK":
		return loadport.FaultTransport
	default:
		return loadport.FaultPlacementFailure
	}
}

func (c *Coordinator) PrepareForLoad(cb func(loadport.Result))   { c.prepare(VerbLoad, cb) }
func (c *Coordinator) PrepareForUnload(cb func(loadport.Result)) { c.prepare(VerbUnload, cb) }

func (c *Coordinator) Report() loadport.PortReport { return c.model.Report() }

func (c *Coordinator) OnChange(cb func(loadport.PortReport)) { c.model.OnChange(cb) }

// EmergencySafe sends STOP and forces the model to StateFault; it does
// not wait for a response since it must be synchronous and re-entrant.
func (c *Coordinator) EmergencySafe() {
	_ = c.transport.WriteRequest(encode(VerbStop))
	c.model.ForceFault()
}
