package browser

import (
	"context"
	"strings"

	"gitlab.com/pageprobe/probe"
)

// Element for selector or nil
func (b *Browser) Element(ctx context.Context, selector string) probe.Element {
	ele, _ := b.resolver.Find(ctx, selector)
	return ele
}

// Elements matching selector, never nil
func (b *Browser) Elements(ctx context.Context, selector string) []probe.Element {
	return b.resolver.All(ctx, selector)
}

// Text of the element for selector
func (b *Browser) Text(ctx context.Context, selector string) (string, error) {
	ele, err := b.resolver.FindOrFail(ctx, selector)
	if err != nil {
		return "", err
	}
	return ele.Text(ctx)
}

// Attribute of the element for selector, "" if unset
func (b *Browser) Attribute(ctx context.Context, selector, name string) (string, error) {
	ele, err := b.resolver.FindOrFail(ctx, selector)
	if err != nil {
		return "", err
	}
	return ele.Attribute(ctx, name)
}

// Type text into the field
func (b *Browser) Type(ctx context.Context, field, text string) error {
	ele, err := b.resolver.ResolveForTyping(ctx, field)
	if err != nil {
		return err
	}
	return ele.SendKeys(ctx, text)
}

// Click the element for selector
func (b *Browser) Click(ctx context.Context, selector string) error {
	ele, err := b.resolver.FindOrFail(ctx, selector)
	if err != nil {
		return err
	}
	return ele.Click(ctx)
}

// Press the button found by id, selector, name, value or text
func (b *Browser) Press(ctx context.Context, button string) error {
	ele, err := b.resolver.ResolveForButtonPress(ctx, button)
	if err != nil {
		return err
	}
	return ele.Click(ctx)
}

// InputValue of a field, the value of inputs and textareas or the text of
// anything else
func (b *Browser) InputValue(ctx context.Context, field string) (string, error) {
	ele, err := b.resolver.ResolveForTyping(ctx, field)
	if err != nil {
		return "", err
	}
	tag, err := ele.TagName(ctx)
	if err != nil {
		return "", err
	}
	if tag == "input" || tag == "textarea" {
		return ele.Attribute(ctx, "value")
	}
	return ele.Text(ctx)
}

// SeeLink reports whether a displayed link with an href starting with link exists
func (b *Browser) SeeLink(ctx context.Context, link string) bool {
	for _, ele := range b.resolver.All(ctx, "a[href]") {
		href, err := ele.Attribute(ctx, "href")
		if err != nil || !strings.HasPrefix(href, link) {
			continue
		}
		if shown, err := ele.IsDisplayed(ctx); err == nil && shown {
			return true
		}
	}
	return false
}
