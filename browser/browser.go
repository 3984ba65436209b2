// Package browser is a fluent facade over a probe.Page: navigation, element
// interaction and waits built on the resolver and waiter.
package browser

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/pageprobe/metrics"
	"gitlab.com/pageprobe/probe"
	"gitlab.com/pageprobe/remote"
	"gitlab.com/pageprobe/resolver"
	"gitlab.com/pageprobe/store"
	"gitlab.com/pageprobe/waiter"
)

// Browser drives a single page
type Browser struct {
	page     probe.Page
	cfg      *probe.Config
	resolver *resolver.Resolver
	waiter   *waiter.Waiter
	journal  *store.Journal
	metrics  *metrics.Metrics
	owned    []func() error // closed with the browser
}

// Option for New
type Option func(b *Browser)

// WithResolver replaces the default resolver
func WithResolver(r *resolver.Resolver) Option {
	return func(b *Browser) {
		b.resolver = r
	}
}

// WithWaiter replaces the waiter built from the config
func WithWaiter(w *waiter.Waiter) Option {
	return func(b *Browser) {
		b.waiter = w
	}
}

// WithJournal records every wait outcome in j
func WithJournal(j *store.Journal) Option {
	return func(b *Browser) {
		b.journal = j
	}
}

// WithMetrics observes every wait outcome in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Browser) {
		b.metrics = m
	}
}

// New browser over page. A nil cfg uses probe.DefaultConfig.
func New(page probe.Page, cfg *probe.Config, opts ...Option) *Browser {
	if cfg == nil {
		cfg = probe.DefaultConfig()
	}
	b := &Browser{page: page, cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.resolver == nil {
		b.resolver = resolver.New(page, resolver.WithPrefix(cfg.Prefix))
	}
	if b.waiter == nil {
		b.waiter = waiter.FromConfig(cfg)
	}
	if b.journal != nil {
		b.waiter.OnOutcome(b.journal.Observer(b.currentURL))
	}
	if b.metrics != nil {
		b.waiter.OnOutcome(b.metrics.Observer())
	}
	return b
}

// Open connects to the browser described by cfg. If cfg.JournalPath is set a
// journal is opened there and closed with the browser.
func Open(ctx context.Context, cfg *probe.Config, opts ...Option) (*Browser, error) {
	tab, err := remote.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var journal *store.Journal
	if cfg.JournalPath != "" {
		journal, err = store.OpenJournal(cfg.JournalPath)
		if err != nil {
			tab.Close()
			return nil, err
		}
		opts = append([]Option{WithJournal(journal)}, opts...)
	}

	b := New(tab, cfg, opts...)
	if journal != nil {
		b.owned = append(b.owned, journal.Close)
	}
	log.Ctx(ctx).Info().Int64("tab", tab.ID()).Str("host", cfg.Driver.Host).Str("port", cfg.Driver.Port).Msg("browser opened")
	return b, nil
}

// Page the browser drives
func (b *Browser) Page() probe.Page {
	return b.page
}

// Resolver used for every selector
func (b *Browser) Resolver() *resolver.Resolver {
	return b.resolver
}

// Waiter used for every wait
func (b *Browser) Waiter() *waiter.Waiter {
	return b.waiter
}

// Config the browser was built with
func (b *Browser) Config() *probe.Config {
	return b.cfg
}

// Visit url
func (b *Browser) Visit(ctx context.Context, url string) error {
	return b.page.Navigate(ctx, url)
}

// Refresh the page
func (b *Browser) Refresh(ctx context.Context) error {
	return b.page.Reload(ctx)
}

// Back in history
func (b *Browser) Back(ctx context.Context) error {
	return b.page.Back(ctx)
}

// Forward in history
func (b *Browser) Forward(ctx context.Context) error {
	return b.page.Forward(ctx)
}

// Blank navigates to about:blank
func (b *Browser) Blank(ctx context.Context) error {
	return b.page.Navigate(ctx, "about:blank")
}

// CurrentURL of the page
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	return b.page.CurrentURL(ctx)
}

func (b *Browser) currentURL(ctx context.Context) string {
	url, err := b.page.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return url
}

// Title of the page
func (b *Browser) Title(ctx context.Context) (string, error) {
	return b.page.Title(ctx)
}

// Script evaluates script on the page
func (b *Browser) Script(ctx context.Context, script string) (interface{}, error) {
	return b.page.ExecuteScript(ctx, script)
}

// Close the page and anything Open created for it
func (b *Browser) Close() error {
	err := b.page.Close()
	for _, closeFn := range b.owned {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Pause for d or until ctx is done
func (b *Browser) Pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "pause cancelled")
	}
}

// PauseIf cond is true
func (b *Browser) PauseIf(ctx context.Context, cond bool, d time.Duration) error {
	if cond {
		return b.Pause(ctx, d)
	}
	return nil
}

// PauseUnless cond is true
func (b *Browser) PauseUnless(ctx context.Context, cond bool, d time.Duration) error {
	if !cond {
		return b.Pause(ctx, d)
	}
	return nil
}
