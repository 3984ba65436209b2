// Package static implements probe.Page over parsed HTML documents. Pages are
// fetched over http(s), read from file:// urls or loaded from a reader. No
// scripts run, so the document only changes through navigation, typing and
// form submission.
package static

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/pageprobe/probe"
	"golang.org/x/net/html"
)

// BlankURL the empty document
const BlankURL = "about:blank"

type entry struct {
	url  string
	body []byte
}

// Document is a probe.Page over a history of parsed HTML pages
type Document struct {
	mu         sync.Mutex
	id         int64
	client     *http.Client
	history    []*entry
	index      int
	doc        *goquery.Document
	generation int64
	values     map[*html.Node]string // typed values for form controls
	closed     bool
}

// Option for New
type Option func(d *Document)

// WithHTTPClient used for http(s) navigation
func WithHTTPClient(client *http.Client) Option {
	return func(d *Document) {
		d.client = client
	}
}

// New document session on about:blank
func New(opts ...Option) *Document {
	d := &Document{
		id:     probe.GetSessionID(),
		client: &http.Client{Timeout: probe.DefaultNavigationTimeout * time.Second},
		index:  -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.push(BlankURL, nil); err != nil {
		log.Error().Err(err).Msg("failed to parse blank document")
	}
	return d
}

// ID of this session
func (d *Document) ID() int64 {
	return d.id
}

// Load html from r as the page at rawURL, adding it to history
func (d *Document) Load(rawURL string, r io.Reader) error {
	body, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading document")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return probe.ErrTabClosing
	}
	return d.push(rawURL, body)
}

// push a new history entry after the current one, dropping forward history
func (d *Document) push(rawURL string, body []byte) error {
	e := &entry{url: rawURL, body: body}
	if err := d.parse(e); err != nil {
		return err
	}
	d.history = append(d.history[:d.index+1], e)
	d.index = len(d.history) - 1
	return nil
}

// parse e into the live document, invalidating every handle
func (d *Document) parse(e *entry) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(e.body))
	if err != nil {
		return errors.Wrap(err, "parsing document")
	}
	if u, err := url.Parse(e.url); err == nil {
		doc.Url = u
	}
	d.doc = doc
	d.generation++
	d.values = make(map[*html.Node]string)
	return nil
}

func (d *Document) current() *entry {
	return d.history[d.index]
}

// Navigate to rawURL, relative urls resolve against the current page
func (d *Document) Navigate(ctx context.Context, rawURL string) error {
	return d.request(ctx, http.MethodGet, rawURL, nil)
}

func (d *Document) request(ctx context.Context, method, rawURL string, form url.Values) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return probe.ErrTabClosing
	}
	target, err := d.resolve(rawURL)
	d.mu.Unlock()
	if err != nil {
		return err
	}

	body, err := d.fetch(ctx, method, target, form)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Int64("session", d.id).Str("url", target).Str("method", method).Msg("navigated")

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.push(target, body)
}

func (d *Document) resolve(rawURL string) (string, error) {
	if rawURL == BlankURL {
		return rawURL, nil
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(probe.ErrNavigating, err.Error())
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(d.current().url)
	if err != nil || !base.IsAbs() || base.Scheme == "about" {
		return "", errors.Wrapf(probe.ErrNavigating, "relative url %s without a base", rawURL)
	}
	return base.ResolveReference(ref).String(), nil
}

// fetch the body of target without holding the lock
func (d *Document) fetch(ctx context.Context, method, target string, form url.Values) ([]byte, error) {
	if target == BlankURL {
		return nil, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrap(probe.ErrNavigating, err.Error())
	}

	switch u.Scheme {
	case "file":
		body, err := ioutil.ReadFile(u.Path)
		if err != nil {
			return nil, errors.Wrap(probe.ErrNavigating, err.Error())
		}
		return body, nil
	case "http", "https":
	default:
		return nil, errors.Wrapf(probe.ErrNavigating, "unsupported scheme %s", u.Scheme)
	}

	var reqBody io.Reader
	if method == http.MethodPost {
		reqBody = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.Wrap(probe.ErrNavigating, err.Error())
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "navigation cancelled")
		}
		return nil, errors.Wrap(probe.ErrNavigating, err.Error())
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(probe.ErrNavigating, err.Error())
	}
	return body, nil
}

// Back to the previous history entry
func (d *Document) Back(ctx context.Context) error {
	return d.move(-1, "Unable to navigate backward as we are on the first navigation entry")
}

// Forward to the next history entry
func (d *Document) Forward(ctx context.Context) error {
	return d.move(1, "Unable to navigate forward as we are on the latest navigation entry")
}

func (d *Document) move(delta int, msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return probe.ErrTabClosing
	}
	next := d.index + delta
	if next < 0 || next >= len(d.history) {
		return errors.Wrap(probe.ErrNavigating, msg)
	}
	if err := d.parse(d.history[next]); err != nil {
		return err
	}
	d.index = next
	return nil
}

// Reload fetches the current url again. Pages that were loaded from a reader
// are re-parsed from the stored body.
func (d *Document) Reload(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return probe.ErrTabClosing
	}
	cur := d.current()
	d.mu.Unlock()

	body := cur.body
	if u, err := url.Parse(cur.url); err == nil && (u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "file") {
		fetched, err := d.fetch(ctx, http.MethodGet, cur.url, nil)
		if err != nil {
			return err
		}
		body = fetched
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	cur.body = body
	return d.parse(cur)
}

// Close the session, further calls fail with probe.ErrTabClosing
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// CurrentURL of the page
func (d *Document) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", probe.ErrTabClosing
	}
	return d.current().url, nil
}

// Title of the page
func (d *Document) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", probe.ErrTabClosing
	}
	return strings.TrimSpace(d.doc.Find("title").First().Text()), nil
}

// ExecuteScript always fails, documents do not run scripts
func (d *Document) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	return nil, probe.ErrScriptUnsupported
}

// FindElement first match of the css selector
func (d *Document) FindElement(ctx context.Context, selector string) (probe.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, probe.ErrTabClosing
	}
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, errors.Wrap(probe.ErrNoSuchElement, selector)
	}
	return d.element(sel.Get(0)), nil
}

// FindElementByID element whose id attribute is exactly id
func (d *Document) FindElementByID(ctx context.Context, id string) (probe.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, probe.ErrTabClosing
	}
	sel := d.doc.Find("[id]").FilterFunction(func(i int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
	if sel.Length() == 0 {
		return nil, errors.Wrap(probe.ErrNoSuchElement, "#"+id)
	}
	return d.element(sel.Get(0)), nil
}

// FindElements every match in document order
func (d *Document) FindElements(ctx context.Context, selector string) ([]probe.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, probe.ErrTabClosing
	}
	elements := make([]probe.Element, 0)
	d.doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		elements = append(elements, d.element(s.Get(0)))
	})
	return elements, nil
}

func (d *Document) element(node *html.Node) *Element {
	return &Element{doc: d, node: node, generation: d.generation}
}
