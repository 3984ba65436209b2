package mock

import (
	"context"
	"strings"
	"sync"
)

// Element is a scripted probe.Element. If Err is set every operation returns
// it. TextFn, DisplayedFn and EnabledFn override the static fields so tests
// can change state between polls.
type Element struct {
	mu sync.Mutex

	Tag      string
	Content  string
	Attrs    map[string]string
	Hidden   bool
	Disabled bool
	Err      error

	TextFn      func() (string, error)
	DisplayedFn func() (bool, error)
	EnabledFn   func() (bool, error)
	ClickFn     func() error

	Keys   string
	Clicks int
}

// MakeMockElement of tag with text content and attributes given as name, value pairs
func MakeMockElement(tag, text string, attrs ...string) *Element {
	e := &Element{Tag: tag, Content: text, Attrs: make(map[string]string)}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs[attrs[i]] = attrs[i+1]
	}
	return e
}

// Text content
func (e *Element) Text(ctx context.Context) (string, error) {
	if e.Err != nil {
		return "", e.Err
	}
	if e.TextFn != nil {
		return e.TextFn()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Content, nil
}

// Attribute from Attrs, "value" includes typed keys
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if e.Err != nil {
		return "", e.Err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	value := e.Attrs[strings.ToLower(name)]
	if strings.EqualFold(name, "value") {
		value += e.Keys
	}
	return value, nil
}

// IsDisplayed unless Hidden
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if e.Err != nil {
		return false, e.Err
	}
	if e.DisplayedFn != nil {
		return e.DisplayedFn()
	}
	return !e.Hidden, nil
}

// IsEnabled unless Disabled
func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	if e.Err != nil {
		return false, e.Err
	}
	if e.EnabledFn != nil {
		return e.EnabledFn()
	}
	return !e.Disabled, nil
}

// TagName lower cased
func (e *Element) TagName(ctx context.Context) (string, error) {
	if e.Err != nil {
		return "", e.Err
	}
	return strings.ToLower(e.Tag), nil
}

// SendKeys appends to Keys
func (e *Element) SendKeys(ctx context.Context, text string) error {
	if e.Err != nil {
		return e.Err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Keys += text
	return nil
}

// Click counts clicks
func (e *Element) Click(ctx context.Context) error {
	if e.Err != nil {
		return e.Err
	}
	e.mu.Lock()
	e.Clicks++
	e.mu.Unlock()
	if e.ClickFn != nil {
		return e.ClickFn()
	}
	return nil
}
