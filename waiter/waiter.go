// Package waiter polls a condition until it holds or a deadline passes.
package waiter

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/pageprobe/probe"
)

// DefaultMessage is used when a wait has no message of its own. The single %s
// is replaced with the timeout in seconds.
const DefaultMessage = "Waited %s seconds for callback."

// Condition is evaluated on every poll. Errors are treated as "not yet".
type Condition func(ctx context.Context) (bool, error)

// OutcomeFunc observes every finished wait
type OutcomeFunc func(ctx context.Context, outcome *Outcome)

// Outcome of a single wait
type Outcome struct {
	Subject   string
	Message   string
	Satisfied bool
	Cancelled bool
	Attempts  int
	Failures  int
	LastErr   error
	Started   time.Time
	Elapsed   time.Duration
	Timeout   time.Duration
}

// Outcome results
const (
	ResultSatisfied = "satisfied"
	ResultTimeout   = "timeout"
	ResultCancelled = "cancelled"
)

// TimedOut neither satisfied nor cancelled
func (o *Outcome) TimedOut() bool {
	return !o.Satisfied && !o.Cancelled
}

// Result name of the outcome
func (o *Outcome) Result() string {
	switch {
	case o.Satisfied:
		return ResultSatisfied
	case o.Cancelled:
		return ResultCancelled
	}
	return ResultTimeout
}

// Waiter carries the default timeout and interval for its waits
type Waiter struct {
	timeout  time.Duration
	interval time.Duration

	obsMutex  sync.RWMutex
	observers []OutcomeFunc
}

type settings struct {
	timeout  time.Duration
	interval time.Duration
	message  string
	subject  string
}

// Option for New or a single Until call
type Option func(s *settings)

// WithTimeout how long to poll before failing
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// WithInterval between polls
func WithInterval(interval time.Duration) Option {
	return func(s *settings) {
		s.interval = interval
	}
}

// WithMessage template for the timeout error, must contain exactly one %s
func WithMessage(template string) Option {
	return func(s *settings) {
		s.message = template
	}
}

// WithSubject what is being waited on, for observers
func WithSubject(subject string) Option {
	return func(s *settings) {
		s.subject = subject
	}
}

// New waiter, defaults to a 5 second timeout polled every 100ms
func New(opts ...Option) *Waiter {
	s := &settings{
		timeout:  probe.DefaultWaitSeconds * time.Second,
		interval: probe.DefaultIntervalMillis * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return &Waiter{timeout: s.timeout, interval: s.interval}
}

// FromConfig waiter using the config's wait settings
func FromConfig(cfg *probe.Config) *Waiter {
	return New(WithTimeout(cfg.WaitTimeout()), WithInterval(cfg.WaitInterval()))
}

// Timeout default for waits
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

// Interval default for waits
func (w *Waiter) Interval() time.Duration {
	return w.interval
}

// OnOutcome registers fn to be called after every wait finishes
func (w *Waiter) OnOutcome(fn OutcomeFunc) {
	w.obsMutex.Lock()
	defer w.obsMutex.Unlock()
	w.observers = append(w.observers, fn)
}

func (w *Waiter) notify(ctx context.Context, outcome *Outcome) {
	w.obsMutex.RLock()
	defer w.obsMutex.RUnlock()
	for _, fn := range w.observers {
		fn(ctx, outcome)
	}
}

// Until evaluates cond every interval until it returns true. It pauses one
// interval before starting the clock, and checks the deadline only after an
// evaluation, so cond always runs at least once. Evaluation errors are
// swallowed. On timeout a *probe.TimeoutErr with the rendered message is
// returned.
func (w *Waiter) Until(ctx context.Context, cond Condition, opts ...Option) error {
	s := &settings{timeout: w.timeout, interval: w.interval, message: DefaultMessage}
	for _, opt := range opts {
		opt(s)
	}
	logger := log.Ctx(ctx)

	outcome := &Outcome{Subject: s.subject, Timeout: s.timeout}
	finish := func(err error) error {
		outcome.Elapsed = time.Since(outcome.Started)
		w.notify(ctx, outcome)
		return err
	}

	// let the page settle before the clock starts
	if err := pause(ctx, s.interval); err != nil {
		outcome.Started = time.Now()
		outcome.Cancelled = true
		outcome.LastErr = err
		return finish(err)
	}
	outcome.Started = time.Now()

	for {
		if err := pause(ctx, s.interval); err != nil {
			outcome.Cancelled = true
			outcome.LastErr = err
			return finish(err)
		}

		outcome.Attempts++
		ok, err := cond(ctx)
		if err != nil {
			outcome.Failures++
			outcome.LastErr = err
			logger.Debug().Err(err).Str("subject", s.subject).Int("attempt", outcome.Attempts).Msg("condition failed, retrying")
		} else if ok {
			outcome.Satisfied = true
			outcome.Message = fmt.Sprintf(s.message, seconds(s.timeout))
			return finish(nil)
		}

		if time.Since(outcome.Started) > s.timeout {
			outcome.Message = fmt.Sprintf(s.message, seconds(s.timeout))
			logger.Debug().Str("subject", s.subject).Int("attempts", outcome.Attempts).Msg(outcome.Message)
			return finish(&probe.TimeoutErr{Message: outcome.Message, Timeout: s.timeout})
		}
	}
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait cancelled")
	}
}

// seconds renders d the way timeout messages show it: 5, 0.5, 1.25
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
