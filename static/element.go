package static

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/pageprobe/probe"
	"golang.org/x/net/html"
)

// Element is a node of the document it was found in. Handles go stale once
// the document navigates, reloads or submits a form.
type Element struct {
	doc        *Document
	node       *html.Node
	generation int64
}

// check must be called with doc.mu held
func (e *Element) check() error {
	if e.doc.closed {
		return probe.ErrTabClosing
	}
	if e.generation != e.doc.generation {
		return probe.ErrStaleElement
	}
	return nil
}

// Text rendered text of the element, hidden descendants excluded
func (e *Element) Text(ctx context.Context) (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	if !displayed(e.node) {
		return "", nil
	}
	return visibleText(e.node), nil
}

// Attribute returns "" for unset attributes. "value" reflects typed input.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	if strings.EqualFold(name, "value") {
		return e.doc.valueOf(e.node), nil
	}
	v, _ := attr(e.node, name)
	return v, nil
}

// IsDisplayed unless the element or an ancestor is hidden
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return displayed(e.node), nil
}

// IsEnabled unless a form control is disabled directly or by its fieldset
func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return enabled(e.node), nil
}

// TagName lower case tag
func (e *Element) TagName(ctx context.Context) (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return strings.ToLower(e.node.Data), nil
}

// SendKeys appends text to the value of a text field. \b deletes the last
// character; a trailing newline in an input submits its form.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	e.doc.mu.Lock()
	if err := e.check(); err != nil {
		e.doc.mu.Unlock()
		return err
	}
	if !isTextControl(e.node) {
		e.doc.mu.Unlock()
		return &probe.InvalidInputErr{Message: "element <" + e.node.Data + "> does not accept keys"}
	}
	if !enabled(e.node) {
		e.doc.mu.Unlock()
		return &probe.InvalidInputErr{Message: "element is disabled"}
	}

	value := []rune(e.doc.valueOf(e.node))
	submit := false
	for _, r := range text {
		switch r {
		case '\b':
			if len(value) > 0 {
				value = value[:len(value)-1]
			}
		case '\r', '\n':
			if e.node.Data == "textarea" {
				value = append(value, '\n')
			} else {
				submit = true
			}
		default:
			value = append(value, r)
		}
	}
	e.doc.values[e.node] = string(value)

	var method, action string
	var form url.Values
	if submit {
		method, action, form = e.doc.submission(e.node, nil)
	}
	e.doc.mu.Unlock()

	if submit && action != "" {
		return e.doc.request(ctx, method, action, form)
	}
	return nil
}

// Click follows links, submits forms and toggles checkboxes and radios
func (e *Element) Click(ctx context.Context) error {
	e.doc.mu.Lock()
	if err := e.check(); err != nil {
		e.doc.mu.Unlock()
		return err
	}

	var method, action string
	var form url.Values
	switch {
	case e.node.Data == "a":
		if href, ok := attr(e.node, "href"); ok && !strings.HasPrefix(href, "#") && !strings.HasPrefix(strings.ToLower(href), "javascript:") {
			method, action = http.MethodGet, href
		}
	case isSubmitter(e.node):
		if enabled(e.node) {
			method, action, form = e.doc.submission(e.node, e.node)
		}
	case e.node.Data == "input":
		typ, _ := attr(e.node, "type")
		switch strings.ToLower(typ) {
		case "checkbox":
			toggle(e.node, "checked")
		case "radio":
			e.doc.checkRadio(e.node)
		}
	}
	e.doc.mu.Unlock()

	if action == "" {
		return nil
	}
	return e.doc.request(ctx, method, action, form)
}
