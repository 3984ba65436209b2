package probe

import "context"

// Element is a handle to a single node in a remote document. Handles are only
// valid through the session that returned them; operations on a handle whose
// node was detached or replaced return ErrStaleElement.
type Element interface {
	Text(ctx context.Context) (string, error)
	// Attribute returns the named attribute, or "" if it is not set. For
	// "value" the element's current value is returned.
	Attribute(ctx context.Context, name string) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	TagName(ctx context.Context) (string, error)
	SendKeys(ctx context.Context, text string) error
	Click(ctx context.Context) error
}

// Session is the capability the resolver and waiter depend on.
type Session interface {
	// FindElement returns the first match for a CSS selector or ErrNoSuchElement
	FindElement(ctx context.Context, selector string) (Element, error)
	// FindElementByID looks up a raw element id (no leading #)
	FindElementByID(ctx context.Context, id string) (Element, error)
	// FindElements returns every match in document order, empty if none
	FindElements(ctx context.Context, selector string) ([]Element, error)
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	// ExecuteScript only the caller knows what the result type will be
	ExecuteScript(ctx context.Context, script string) (interface{}, error)
}

// Navigator moves a session between documents.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context) error
	Close() error
}

// Page is a session that can also navigate
type Page interface {
	Session
	Navigator
}
