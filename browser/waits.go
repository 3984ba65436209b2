package browser

import (
	"context"
	"strings"

	"gitlab.com/pageprobe/probe"
	"gitlab.com/pageprobe/waiter"
)

// FormatTimeoutMessage builds a waiter message template from a prefix and the
// thing waited for. % in expected is escaped so only the prefix's %s remains.
func FormatTimeoutMessage(prefix, expected string) string {
	return prefix + " [" + strings.ReplaceAll(expected, "%", "%%") + "]."
}

// WaitUsing polls cond with the browser's waiter
func (b *Browser) WaitUsing(ctx context.Context, cond waiter.Condition, opts ...waiter.Option) error {
	return b.waiter.Until(ctx, cond, opts...)
}

func (b *Browser) wait(ctx context.Context, subject, message string, cond waiter.Condition, opts []waiter.Option) error {
	all := append([]waiter.Option{waiter.WithSubject(subject), waiter.WithMessage(message)}, opts...)
	return b.waiter.Until(ctx, cond, all...)
}

// WaitFor selector to resolve
func (b *Browser) WaitFor(ctx context.Context, selector string, opts ...waiter.Option) error {
	message := FormatTimeoutMessage("Waited %s seconds for selector on the URL", selector)
	return b.wait(ctx, selector, message, func(ctx context.Context) (bool, error) {
		_, err := b.resolver.FindOrFail(ctx, selector)
		return err == nil, err
	}, opts)
}

// WaitUntilMissing selector is gone or no longer displayed
func (b *Browser) WaitUntilMissing(ctx context.Context, selector string, opts ...waiter.Option) error {
	message := FormatTimeoutMessage("Waited %s seconds for removal of selector", selector)
	return b.wait(ctx, selector, message, func(ctx context.Context) (bool, error) {
		ele, err := b.resolver.FindOrFail(ctx, selector)
		if err != nil {
			if probe.IsNotFound(err) {
				return true, nil
			}
			return false, err
		}
		shown, err := ele.IsDisplayed(ctx)
		if err != nil {
			return false, err
		}
		return !shown, nil
	}, opts)
}

// WaitForText to appear in the scope root
func (b *Browser) WaitForText(ctx context.Context, text string, opts ...waiter.Option) error {
	return b.WaitForAnyText(ctx, []string{text}, opts...)
}

// WaitForAnyText until any of texts appears in the scope root
func (b *Browser) WaitForAnyText(ctx context.Context, texts []string, opts ...waiter.Option) error {
	message := FormatTimeoutMessage("Waited %s seconds for text", strings.Join(texts, "', '"))
	return b.wait(ctx, strings.Join(texts, ", "), message, func(ctx context.Context) (bool, error) {
		return b.rootContains(ctx, texts)
	}, opts)
}

// WaitUntilMissingText until text is gone from the scope root
func (b *Browser) WaitUntilMissingText(ctx context.Context, text string, opts ...waiter.Option) error {
	return b.WaitUntilMissingAnyText(ctx, []string{text}, opts...)
}

// WaitUntilMissingAnyText until none of texts appear in the scope root
func (b *Browser) WaitUntilMissingAnyText(ctx context.Context, texts []string, opts ...waiter.Option) error {
	message := FormatTimeoutMessage("Waited %s seconds for removal of text", strings.Join(texts, "', '"))
	return b.wait(ctx, strings.Join(texts, ", "), message, func(ctx context.Context) (bool, error) {
		found, err := b.rootContains(ctx, texts)
		return !found, err
	}, opts)
}

func (b *Browser) rootContains(ctx context.Context, texts []string) (bool, error) {
	root, err := b.resolver.FindOrFail(ctx, "")
	if err != nil {
		return false, err
	}
	content, err := root.Text(ctx)
	if err != nil {
		return false, err
	}
	for _, text := range texts {
		if text != "" && strings.Contains(content, text) {
			return true, nil
		}
	}
	return false, nil
}

// InputSelector matches an input, textarea or select by name
func InputSelector(field string) string {
	q := probe.QuoteAttr(field)
	return "input[name=" + q + "], textarea[name=" + q + "], select[name=" + q + "]"
}

// WaitForInput field to be present
func (b *Browser) WaitForInput(ctx context.Context, field string, opts ...waiter.Option) error {
	return b.WaitFor(ctx, InputSelector(field), opts...)
}

// WaitUntilEnabled selector resolves to an enabled element
func (b *Browser) WaitUntilEnabled(ctx context.Context, selector string, opts ...waiter.Option) error {
	message := FormatTimeoutMessage("Waited %s seconds for element to be enabled", selector)
	return b.wait(ctx, selector, message, func(ctx context.Context) (bool, error) {
		return b.enabled(ctx, selector)
	}, opts)
}

// WaitUntilDisabled selector resolves to a disabled element
func (b *Browser) WaitUntilDisabled(ctx context.Context, selector string, opts ...waiter.Option) error {
	message := FormatTimeoutMessage("Waited %s seconds for element to be disabled", selector)
	return b.wait(ctx, selector, message, func(ctx context.Context) (bool, error) {
		enabled, err := b.enabled(ctx, selector)
		return !enabled, err
	}, opts)
}

func (b *Browser) enabled(ctx context.Context, selector string) (bool, error) {
	ele, err := b.resolver.FindOrFail(ctx, selector)
	if err != nil {
		return false, err
	}
	return ele.IsEnabled(ctx)
}
