// Package resolver turns logical selectors, field names and button labels
// into element handles on a probe.Session.
package resolver

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"gitlab.com/pageprobe/probe"
)

// Resolver resolves selectors against a single session. The scope prefix is
// per instance; callers that share a Resolver must not change it concurrently.
type Resolver struct {
	session probe.Session
	prefix  string
}

// Option for New
type Option func(r *Resolver)

// WithPrefix overrides the default "body" scope prefix
func WithPrefix(prefix string) Option {
	return func(r *Resolver) {
		r.prefix = prefix
	}
}

// New resolver over session
func New(session probe.Session, opts ...Option) *Resolver {
	r := &Resolver{session: session, prefix: probe.DefaultPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session this resolver queries
func (r *Resolver) Session() probe.Session {
	return r.session
}

// Prefix currently applied to generic selectors
func (r *Resolver) Prefix() string {
	return r.prefix
}

// SetPrefix for every subsequent generic selector
func (r *Resolver) SetPrefix(prefix string) {
	r.prefix = prefix
}

// Format the selector with the scope prefix
func (r *Resolver) Format(selector string) string {
	return strings.TrimSpace(r.prefix + " " + selector)
}

// Find the element for selector, reporting false instead of an error.
func (r *Resolver) Find(ctx context.Context, selector string) (probe.Element, bool) {
	ele, err := r.FindOrFail(ctx, selector)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("selector", selector).Msg("find missed")
		return nil, false
	}
	return ele, true
}

// FindByID looks up an id shorthand selector by its raw id. The prefix is not
// applied. Any other selector returns false without querying the session.
func (r *Resolver) FindByID(ctx context.Context, selector string) (probe.Element, bool) {
	id, ok := probe.IDFromShorthand(selector)
	if !ok {
		return nil, false
	}
	ele, err := r.session.FindElementByID(ctx, id)
	if err != nil || ele == nil {
		return nil, false
	}
	return ele, true
}

// FindOrFail resolves an id shorthand by id first, then falls back to the
// prefixed CSS selector.
func (r *Resolver) FindOrFail(ctx context.Context, selector string) (probe.Element, error) {
	if ele, ok := r.FindByID(ctx, selector); ok {
		return ele, nil
	}

	ele, err := r.session.FindElement(ctx, r.Format(selector))
	if err == nil && ele != nil {
		return ele, nil
	}
	log.Ctx(ctx).Debug().Err(err).Str("selector", r.Format(selector)).Msg("css lookup missed")
	return nil, r.notFound(ctx, selector)
}

func (r *Resolver) notFound(ctx context.Context, selector string) error {
	url, err := r.session.CurrentURL(ctx)
	if err != nil {
		url = ""
	}
	return &probe.ElementNotFoundErr{Selector: selector, URL: url}
}

// All elements matching the prefixed selector. Session failures yield an
// empty slice.
func (r *Resolver) All(ctx context.Context, selector string) []probe.Element {
	elements, err := r.session.FindElements(ctx, r.Format(selector))
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("selector", r.Format(selector)).Msg("find all failed")
		return make([]probe.Element, 0)
	}
	if elements == nil {
		return make([]probe.Element, 0)
	}
	return elements
}

// FirstOrFail returns the first selector that resolves. Later selectors are
// not tried once one succeeds. If none resolve the last failure is returned.
func (r *Resolver) FirstOrFail(ctx context.Context, selectors []string) (probe.Element, error) {
	if len(selectors) == 0 {
		return nil, &probe.InvalidInputErr{Message: "no selectors to resolve"}
	}

	var lastErr error
	for _, selector := range selectors {
		ele, err := r.FindOrFail(ctx, selector)
		if err == nil {
			return ele, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// TypingCandidates in the order they are tried for a field name
func TypingCandidates(field string) []string {
	q := probe.QuoteAttr(field)
	return []string{
		"input[name=" + q + "]",
		"input[id=" + q + "]",
		"input[type=" + q + "]",
		"textarea[name=" + q + "]",
		"textarea[id=" + q + "]",
		"textarea[type=" + q + "]",
		field,
	}
}

// ResolveForTyping finds the text field a value should be typed into
func (r *Resolver) ResolveForTyping(ctx context.Context, field string) (probe.Element, error) {
	if ele, ok := r.FindByID(ctx, field); ok {
		return ele, nil
	}
	return r.FirstOrFail(ctx, TypingCandidates(field))
}
