package probe

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// revive:exported
var (
	ErrNoSuchElement      = errors.New("no such element")
	ErrStaleElement       = errors.New("stale element reference")
	ErrScriptUnsupported  = errors.New("script execution not supported by session")
	ErrNavigating         = errors.New("error in navigation")
	ErrNavigationTimedOut = errors.New("navigation timed out")
	ErrTabCrashed         = errors.New("tab crashed")
	ErrTabClosing         = errors.New("closing")
)

// ElementNotFoundErr when no strategy could resolve a selector. Selector is
// the selector as the caller passed it (without the scope prefix) and URL is
// the page URL at the time of failure.
type ElementNotFoundErr struct {
	Selector string
	URL      string
}

func (e *ElementNotFoundErr) Error() string {
	return fmt.Sprintf("The selector [%s] was not found in the current URL [%s]", e.Selector, e.URL)
}

// ButtonNotFoundErr when every button finder came back empty
type ButtonNotFoundErr struct {
	Button string
}

func (e *ButtonNotFoundErr) Error() string {
	return "Unable to locate button [" + e.Button + "]."
}

// TimeoutErr when a wait deadline passed before its condition was satisfied.
// Message is already rendered with the timeout.
type TimeoutErr struct {
	Message string
	Timeout time.Duration
}

func (e *TimeoutErr) Error() string {
	return e.Message
}

// InvalidInputErr when a call was made with arguments it can not work with
type InvalidInputErr struct {
	Message string
}

func (e *InvalidInputErr) Error() string {
	return "invalid input: " + e.Message
}

// IsNotFound reports whether err means an element could not be resolved.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *ElementNotFoundErr
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, ErrNoSuchElement)
}

// IsTimeout reports whether err is a wait timeout
func IsTimeout(err error) bool {
	var timeout *TimeoutErr
	return errors.As(err, &timeout)
}
