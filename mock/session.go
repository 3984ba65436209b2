package mock

import (
	"context"
	"sync"

	"gitlab.com/pageprobe/probe"
)

// Query kinds recorded by Session
const (
	QueryCSS   = "css"
	QueryID    = "id"
	QueryAll   = "all"
	QueryURL   = "url"
	QueryTitle = "title"
)

// Query a single lookup the session was asked to perform
type Query struct {
	Kind  string
	Value string
}

// Session is a scripted probe.Page. Lookups consult the XxxFn hook if set,
// otherwise the ByCSS / ByID tables. Every lookup is recorded in Queries.
type Session struct {
	mu sync.Mutex

	URL          string
	PageTitle    string
	ByCSS        map[string][]*Element
	ByID         map[string]*Element
	Errors       map[string]error // css selector or id -> error returned for it
	ScriptResult interface{}
	ScriptErr    error

	FindElementFn     func(ctx context.Context, selector string) (probe.Element, error)
	FindElementByIDFn func(ctx context.Context, id string) (probe.Element, error)
	FindElementsFn    func(ctx context.Context, selector string) ([]probe.Element, error)
	CurrentURLFn      func(ctx context.Context) (string, error)

	Queries []Query
	Visited []string
	History []string // Back, Forward, Reload calls in order
	Closed  bool
}

// MakeMockSession with empty lookup tables on the given url
func MakeMockSession(url string) *Session {
	return &Session{
		URL:    url,
		ByCSS:  make(map[string][]*Element),
		ByID:   make(map[string]*Element),
		Errors: make(map[string]error),
	}
}

// Add elements matched by a css selector
func (s *Session) Add(selector string, elements ...*Element) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ByCSS == nil {
		s.ByCSS = make(map[string][]*Element)
	}
	s.ByCSS[selector] = append(s.ByCSS[selector], elements...)
	return s
}

// AddID registers an element under a raw id
func (s *Session) AddID(id string, element *Element) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ByID == nil {
		s.ByID = make(map[string]*Element)
	}
	s.ByID[id] = element
	return s
}

// Remove every element registered for selector
func (s *Session) Remove(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ByCSS, selector)
}

func (s *Session) record(kind, value string) {
	s.mu.Lock()
	s.Queries = append(s.Queries, Query{Kind: kind, Value: value})
	s.mu.Unlock()
}

// QueriesOf returns the values of every recorded query of kind
func (s *Session) QueriesOf(kind string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := make([]string, 0)
	for _, q := range s.Queries {
		if q.Kind == kind {
			values = append(values, q.Value)
		}
	}
	return values
}

// FindElement first element registered for selector
func (s *Session) FindElement(ctx context.Context, selector string) (probe.Element, error) {
	s.record(QueryCSS, selector)
	if s.FindElementFn != nil {
		return s.FindElementFn(ctx, selector)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.Errors[selector]; ok {
		return nil, err
	}
	if found := s.ByCSS[selector]; len(found) > 0 {
		return found[0], nil
	}
	return nil, probe.ErrNoSuchElement
}

// FindElementByID element registered for the raw id
func (s *Session) FindElementByID(ctx context.Context, id string) (probe.Element, error) {
	s.record(QueryID, id)
	if s.FindElementByIDFn != nil {
		return s.FindElementByIDFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.Errors[id]; ok {
		return nil, err
	}
	if found, ok := s.ByID[id]; ok {
		return found, nil
	}
	return nil, probe.ErrNoSuchElement
}

// FindElements every element registered for selector
func (s *Session) FindElements(ctx context.Context, selector string) ([]probe.Element, error) {
	s.record(QueryAll, selector)
	if s.FindElementsFn != nil {
		return s.FindElementsFn(ctx, selector)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.Errors[selector]; ok {
		return nil, err
	}
	found := s.ByCSS[selector]
	elements := make([]probe.Element, 0, len(found))
	for _, ele := range found {
		elements = append(elements, ele)
	}
	return elements, nil
}

// CurrentURL of the session
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	s.record(QueryURL, "")
	if s.CurrentURLFn != nil {
		return s.CurrentURLFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.URL, nil
}

// Title of the session
func (s *Session) Title(ctx context.Context) (string, error) {
	s.record(QueryTitle, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PageTitle, nil
}

// ExecuteScript returns ScriptResult, ScriptErr
func (s *Session) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	return s.ScriptResult, s.ScriptErr
}

// Navigate records url and makes it the current url
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Visited = append(s.Visited, url)
	s.URL = url
	return nil
}

// Back records the call
func (s *Session) Back(ctx context.Context) error {
	return s.historyCall("back")
}

// Forward records the call
func (s *Session) Forward(ctx context.Context) error {
	return s.historyCall("forward")
}

// Reload records the call
func (s *Session) Reload(ctx context.Context) error {
	return s.historyCall("reload")
}

func (s *Session) historyCall(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, name)
	return nil
}

// Close marks the session closed
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
