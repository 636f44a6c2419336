package contact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the state of one contact form.
type Status int

const (
	Idle Status = iota
	Sending
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what Submit reports back to the caller. Honeypot submissions
// report OutcomeSent so a bot cannot tell it was dropped.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeFailed
	OutcomeIgnored
	OutcomeIncomplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// DefaultResetDelay is how long Success is displayed before the form goes
// back to Idle.
const DefaultResetDelay = 3 * time.Second

// Config carries the relay account identifiers. They are opaque to the
// controller.
type Config struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	ResetDelay time.Duration
}

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithAfterFunc replaces the timer used for the Success to Idle reset.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// WithObserver registers fn to be called on every status transition. fn
// runs with the controller locked and must not call back into it.
func WithObserver(fn func(from, to Status)) Option {
	return func(c *Controller) { c.observer = fn }
}

// Controller owns one contact form: its fields, its status and the single
// in-flight relay call.
type Controller struct {
	relay    Relay
	notifier Notifier
	cfg      Config

	logger    *zap.Logger
	afterFunc AfterFunc
	observer  func(from, to Status)

	mu     sync.Mutex
	sub    Submission
	status Status
	reset  Timer
	gen    uint64
}

// New creates a controller in the Idle state.
func New(relay Relay, notifier Notifier, cfg Config, opts ...Option) *Controller {
	if cfg.ResetDelay <= 0 {
		cfg.ResetDelay = DefaultResetDelay
	}
	c := &Controller{
		relay:     relay,
		notifier:  notifier,
		cfg:       cfg,
		logger:    zap.NewNop(),
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Submission returns a copy of the current field values.
func (c *Controller) Submission() Submission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

// UpdateField sets a single field. Inputs are disabled while sending, so
// updates during Sending are refused with ErrBusy.
func (c *Controller) UpdateField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == Sending {
		return ErrBusy
	}
	return c.sub.set(field, value)
}

// SubmitForm replaces every field with s and submits. It is ignored while a
// submission is in flight, in which case the fields are left alone.
func (c *Controller) SubmitForm(ctx context.Context, s Submission) Outcome {
	c.mu.Lock()
	if c.status == Sending {
		c.mu.Unlock()
		c.logger.Debug("submit ignored while sending")
		return OutcomeIgnored
	}
	c.sub = s
	return c.submitLocked(ctx)
}

// Submit dispatches the current submission to the relay.
//
// A filled honeypot short-circuits with a fake success toast and no relay
// call. Otherwise the form moves to Sending for the duration of the relay
// call; success clears the fields and schedules the return to Idle, failure
// returns to Idle at once with the fields intact. Relay errors and panics
// are reported through the notifier, never to the caller.
func (c *Controller) Submit(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.status == Sending {
		c.mu.Unlock()
		c.logger.Debug("submit ignored while sending")
		return OutcomeIgnored
	}
	return c.submitLocked(ctx)
}

// submitLocked is entered with c.mu held and not Sending. It releases the
// lock before calling the relay.
func (c *Controller) submitLocked(ctx context.Context) Outcome {
	sub := c.sub
	if sub.IsSpam() {
		c.mu.Unlock()
		c.logger.Info("honeypot filled, dropping submission")
		c.notify(notifySpam)
		return OutcomeSent
	}
	if !sub.Complete() {
		c.mu.Unlock()
		return OutcomeIncomplete
	}
	c.stopResetLocked()
	c.transitionLocked(Sending)
	c.mu.Unlock()

	err := c.dispatch(ctx, Dispatch{
		ServiceID:  c.cfg.ServiceID,
		TemplateID: c.cfg.TemplateID,
		Params:     sub.Payload(),
		Token:      c.cfg.PublicKey,
	})

	c.mu.Lock()
	if err != nil {
		c.transitionLocked(Failed)
		c.transitionLocked(Idle)
		c.mu.Unlock()
		c.logger.Error("relay dispatch failed", zap.Error(err))
		c.notify(notifyFailed)
		return OutcomeFailed
	}
	c.transitionLocked(Success)
	c.sub = Submission{}
	c.gen++
	gen := c.gen
	c.reset = c.afterFunc(c.cfg.ResetDelay, func() { c.expireSuccess(gen) })
	c.mu.Unlock()

	c.logger.Info("contact message relayed")
	c.notify(notifySent)
	return OutcomeSent
}

// Close stops a pending Success reset.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopResetLocked()
}

func (c *Controller) dispatch(ctx context.Context, d Dispatch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRelayPanic, r)
		}
	}()
	return c.relay.Send(ctx, d)
}

func (c *Controller) expireSuccess(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.status != Success {
		return
	}
	c.reset = nil
	c.transitionLocked(Idle)
}

func (c *Controller) stopResetLocked() {
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
	c.gen++
}

func (c *Controller) transitionLocked(to Status) {
	from := c.status
	c.status = to
	if c.observer != nil && from != to {
		c.observer(from, to)
	}
}

func (c *Controller) notify(n Notification) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}
