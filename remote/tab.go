// Package remote implements probe.Page over a Chrome DevTools connection to
// an already running browser.
package remote

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/pageprobe/probe"
)

const objectGroup = "pageprobe"

// Tab is a chromium browser tab driven over the debugger protocol
type Tab struct {
	g                 *gcd.Gcd
	t                 *gcd.ChromeTarget
	id                int64
	ownsTarget        bool          // opened by Connect, closed with the tab
	topNodeID         atomic.Value  // the nodeID of the current top level #document
	generation        int64         // bumped on every DOM.documentUpdated, stales element handles
	isNavigatingFlag  atomic.Value  // between Page.navigate and Page.loadEventFired
	navigationCh      chan struct{} // load event while isNavigating is true
	crashedCh         chan string   // the chrome tab crashed with a reason
	exitCh            chan struct{} // for when we close the tab, kill go routines
	shutdown          int32         // have we already shut down
	navigationTimeout time.Duration // amount of time to wait before failing navigation
}

// TabOption for NewTab
type TabOption func(t *Tab)

// WithNavigationTimeout to wait for the load event before failing navigation
func WithNavigationTimeout(timeout time.Duration) TabOption {
	return func(t *Tab) {
		t.navigationTimeout = timeout
	}
}

// Connect to the debugger endpoint in cfg and open a new tab. Connection
// attempts are retried cfg.Driver.ConnectRetries times.
func Connect(ctx context.Context, cfg *probe.Config) (*Tab, error) {
	g := gcd.NewChromeDebugger()
	tries := cfg.Driver.ConnectRetries
	if tries < 1 {
		tries = 1
	}

	rt := retry.NewRetrier(tries, 100*time.Millisecond, time.Second)
	err := rt.RunContext(ctx, func(ctx context.Context) error {
		if err := g.ConnectToInstance(cfg.Driver.Host, cfg.Driver.Port); err != nil {
			log.Warn().Err(err).Str("host", cfg.Driver.Host).Str("port", cfg.Driver.Port).Msg("failed to connect to instance")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to browser")
	}

	target, err := g.NewTab()
	if err != nil {
		return nil, errors.Wrap(err, "opening tab")
	}

	t := NewTab(ctx, g, target, WithNavigationTimeout(cfg.NavigationTimeout()))
	t.ownsTarget = true
	return t, nil
}

// NewTab wraps an existing target
func NewTab(ctx context.Context, gcdBrowser *gcd.Gcd, target *gcd.ChromeTarget, opts ...TabOption) *Tab {
	t := &Tab{
		g:                 gcdBrowser,
		t:                 target,
		id:                probe.GetSessionID(),
		navigationCh:      make(chan struct{}, 1),
		crashedCh:         make(chan string, 1),
		exitCh:            make(chan struct{}),
		navigationTimeout: probe.DefaultNavigationTimeout * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.setTopNodeID(-1)
	t.setIsNavigating(false)
	t.subscribeBrowserEvents(ctx)
	return t
}

// ID of this tab
func (t *Tab) ID() int64 {
	return t.id
}

// Close the tab and stop waiting on events
func (t *Tab) Close() error {
	if !atomic.CompareAndSwapInt32(&t.shutdown, 0, 1) {
		return nil
	}
	close(t.exitCh)
	if t.ownsTarget && t.g != nil {
		return t.g.CloseTab(t.t)
	}
	return nil
}

func (t *Tab) closing() bool {
	return atomic.LoadInt32(&t.shutdown) == 1
}

func (t *Tab) subscribeBrowserEvents(ctx context.Context) {
	t.t.DOM.Enable()
	t.t.Inspector.Enable()
	t.t.Page.Enable()

	t.t.Subscribe("Inspector.targetCrashed", func(target *gcd.ChromeTarget, payload []byte) {
		t.signalCrash("crashed")
	})

	t.t.Subscribe("Inspector.detached", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.InspectorDetachedEvent{}
		reason := "detached"
		if err := json.Unmarshal(payload, header); err == nil {
			reason = header.Params.Reason
		}
		t.signalCrash(reason)
	})

	t.t.Subscribe("Page.loadEventFired", func(target *gcd.ChromeTarget, payload []byte) {
		if !t.IsNavigating() {
			return
		}
		select {
		case t.navigationCh <- struct{}{}:
		default:
		}
	})

	t.t.Subscribe("DOM.documentUpdated", func(target *gcd.ChromeTarget, payload []byte) {
		log.Ctx(ctx).Debug().Int64("tab", t.id).Msg("document updated")
		t.documentUpdated()
	})
}

func (t *Tab) signalCrash(reason string) {
	log.Warn().Int64("tab", t.id).Str("reason", reason).Msg("tab disconnected")
	select {
	case t.crashedCh <- reason:
	default:
	}
}

func (t *Tab) documentUpdated() {
	atomic.AddInt64(&t.generation, 1)
	t.setTopNodeID(-1)
}

func (t *Tab) currentGeneration() int64 {
	return atomic.LoadInt64(&t.generation)
}

func (t *Tab) setIsNavigating(set bool) {
	t.isNavigatingFlag.Store(set)
}

// IsNavigating answers if we currently navigating
func (t *Tab) IsNavigating() bool {
	if flag, ok := t.isNavigatingFlag.Load().(bool); ok {
		return flag
	}
	return false
}

func (t *Tab) setTopNodeID(nodeID int) {
	t.topNodeID.Store(nodeID)
}

// GetTopNodeID returns the current top node ID of this Tab.
func (t *Tab) GetTopNodeID() int {
	if topNodeID, ok := t.topNodeID.Load().(int); ok {
		return topNodeID
	}
	return -1
}

// documentNodeID fetching the document again if it was invalidated
func (t *Tab) documentNodeID() (int, error) {
	if id := t.GetTopNodeID(); id > 0 {
		return id, nil
	}
	doc, err := t.t.DOM.GetDocument(1, false)
	if err != nil {
		return 0, errors.Wrap(err, "getting document")
	}
	t.setTopNodeID(doc.NodeId)
	return doc.NodeId, nil
}

// Navigate to url and wait for the load event
func (t *Tab) Navigate(ctx context.Context, url string) error {
	return t.navigation(ctx, func() error {
		navParams := &gcdapi.PageNavigateParams{Url: url, TransitionType: "typed"}
		_, _, errText, err := t.t.Page.NavigateWithParams(navParams)
		if err != nil {
			return err
		}
		if errText != "" {
			return errors.Wrap(probe.ErrNavigating, errText)
		}
		return nil
	})
}

// Reload the page and wait for the load event
func (t *Tab) Reload(ctx context.Context) error {
	return t.navigation(ctx, func() error {
		_, err := t.t.Page.Reload(false, "")
		return err
	})
}

// Forward to the next history entry
func (t *Tab) Forward(ctx context.Context) error {
	next, err := t.ForwardEntry()
	if err != nil {
		return err
	}
	return t.navigation(ctx, func() error {
		_, err := t.t.Page.NavigateToHistoryEntry(next.Id)
		return err
	})
}

// Back to the previous history entry
func (t *Tab) Back(ctx context.Context) error {
	prev, err := t.BackEntry()
	if err != nil {
		return err
	}
	return t.navigation(ctx, func() error {
		_, err := t.t.Page.NavigateToHistoryEntry(prev.Id)
		return err
	})
}

// NavigationHistory the current navigation index, history entries or error
func (t *Tab) NavigationHistory() (int, []*gcdapi.PageNavigationEntry, error) {
	return t.t.Page.GetNavigationHistory()
}

// ForwardEntry the next entry in our navigation history for this tab.
func (t *Tab) ForwardEntry() (*gcdapi.PageNavigationEntry, error) {
	idx, entries, err := t.NavigationHistory()
	if err != nil {
		return nil, err
	}
	if idx+1 < len(entries) {
		return entries[idx+1], nil
	}
	return nil, &InvalidNavigationErr{Message: "Unable to navigate forward as we are on the latest navigation entry"}
}

// BackEntry the previous entry in our navigation history for this tab.
func (t *Tab) BackEntry() (*gcdapi.PageNavigationEntry, error) {
	idx, entries, err := t.NavigationHistory()
	if err != nil {
		return nil, err
	}
	if idx > 0 && idx-1 < len(entries) {
		return entries[idx-1], nil
	}
	return nil, &InvalidNavigationErr{Message: "Unable to navigate backward as we are on the first navigation entry"}
}

// navigation runs start and waits for the load event it triggers
func (t *Tab) navigation(ctx context.Context, start func() error) error {
	if t.closing() {
		return probe.ErrTabClosing
	}
	// drop a stale load event from an earlier navigation
	select {
	case <-t.navigationCh:
	default:
	}

	t.setIsNavigating(true)
	defer t.setIsNavigating(false)

	if err := start(); err != nil {
		return err
	}
	return t.waitLoad(ctx)
}

func (t *Tab) waitLoad(ctx context.Context) error {
	navTimer := time.NewTimer(t.navigationTimeout)
	defer navTimer.Stop()

	select {
	case <-navTimer.C:
		return probe.ErrNavigationTimedOut
	case <-ctx.Done():
		return ctx.Err()
	case <-t.exitCh:
		return probe.ErrTabClosing
	case reason := <-t.crashedCh:
		return errors.Wrap(probe.ErrTabCrashed, reason)
	case <-t.navigationCh:
		return nil
	}
}

// CurrentURL of the current history entry
func (t *Tab) CurrentURL(ctx context.Context) (string, error) {
	entry, err := t.currentEntry()
	if err != nil {
		return "", err
	}
	return entry.Url, nil
}

// Title of the current history entry
func (t *Tab) Title(ctx context.Context) (string, error) {
	entry, err := t.currentEntry()
	if err != nil {
		return "", err
	}
	return entry.Title, nil
}

func (t *Tab) currentEntry() (*gcdapi.PageNavigationEntry, error) {
	if t.closing() {
		return nil, probe.ErrTabClosing
	}
	idx, entries, err := t.NavigationHistory()
	if err != nil {
		return nil, errors.Wrap(err, "getting navigation history")
	}
	if idx < 0 || idx >= len(entries) {
		return nil, &InvalidNavigationErr{Message: "no current navigation entry"}
	}
	return entries[idx], nil
}

// ExecuteScript evaluates script in the global context, only the caller knows
// what the result type will be.
func (t *Tab) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	if t.closing() {
		return nil, probe.ErrTabClosing
	}
	params := &gcdapi.RuntimeEvaluateParams{
		Expression:    script,
		ObjectGroup:   objectGroup,
		Silent:        true,
		ReturnByValue: true,
		AwaitPromise:  false,
		Timeout:       1000,
	}
	r, exp, err := t.t.Runtime.EvaluateWithParams(params)
	if err != nil {
		return nil, errors.Wrap(err, "evaluating script")
	}
	if exp != nil {
		return nil, exceptionErr("failed to evaluate script", exp)
	}
	return r.Value, nil
}

// FindElement first match of the css selector in the top document
func (t *Tab) FindElement(ctx context.Context, selector string) (probe.Element, error) {
	if t.closing() {
		return nil, probe.ErrTabClosing
	}
	gen := t.currentGeneration()
	docID, err := t.documentNodeID()
	if err != nil {
		return nil, err
	}
	nodeID, err := t.t.DOM.QuerySelector(docID, selector)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", selector)
	}
	if nodeID == 0 {
		return nil, errors.Wrap(probe.ErrNoSuchElement, selector)
	}
	return t.element(nodeID, gen), nil
}

// FindElementByID element whose id attribute is exactly id
func (t *Tab) FindElementByID(ctx context.Context, id string) (probe.Element, error) {
	return t.FindElement(ctx, "[id="+probe.QuoteAttr(id)+"]")
}

// FindElements every match of the css selector in document order
func (t *Tab) FindElements(ctx context.Context, selector string) ([]probe.Element, error) {
	if t.closing() {
		return nil, probe.ErrTabClosing
	}
	gen := t.currentGeneration()
	docID, err := t.documentNodeID()
	if err != nil {
		return nil, err
	}
	nodeIDs, err := t.t.DOM.QuerySelectorAll(docID, selector)
	if err != nil {
		return nil, errors.Wrapf(err, "querying all %s", selector)
	}
	elements := make([]probe.Element, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		elements = append(elements, t.element(nodeID, gen))
	}
	return elements, nil
}

func (t *Tab) element(nodeID int, generation int64) *Element {
	return &Element{tab: t, nodeID: nodeID, generation: generation}
}
