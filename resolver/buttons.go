package resolver

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"gitlab.com/pageprobe/probe"
)

// buttonFinder is one strategy for locating a button. A nil result means the
// next strategy is tried.
type buttonFinder struct {
	name string
	find func(ctx context.Context, r *Resolver, button string) probe.Element
}

// buttonFinders are tried strictly in this order.
var buttonFinders = []buttonFinder{
	{name: "id", find: findButtonByID},
	{name: "selector", find: findButtonBySelector},
	{name: "name", find: findButtonByName},
	{name: "value", find: findButtonByValue},
	{name: "text", find: findButtonByText},
}

// ButtonStrategies names the button finders in evaluation order
func ButtonStrategies() []string {
	names := make([]string, len(buttonFinders))
	for i, finder := range buttonFinders {
		names[i] = finder.name
	}
	return names
}

// ResolveForButtonPress locates a button by id, selector, name, value or text.
func (r *Resolver) ResolveForButtonPress(ctx context.Context, button string) (probe.Element, error) {
	for _, finder := range buttonFinders {
		if ele := finder.find(ctx, r, button); ele != nil {
			log.Ctx(ctx).Debug().Str("button", button).Str("strategy", finder.name).Msg("resolved button")
			return ele, nil
		}
	}
	return nil, &probe.ButtonNotFoundErr{Button: button}
}

func findButtonByID(ctx context.Context, r *Resolver, button string) probe.Element {
	ele, _ := r.FindByID(ctx, button)
	return ele
}

func findButtonBySelector(ctx context.Context, r *Resolver, button string) probe.Element {
	ele, _ := r.Find(ctx, button)
	return ele
}

func findButtonByName(ctx context.Context, r *Resolver, button string) probe.Element {
	q := probe.QuoteAttr(button)
	candidates := []string{
		"input[type=submit][name=" + q + "]",
		"input[type=button][value=" + q + "]",
		"button[name=" + q + "]",
	}
	ele, err := r.FirstOrFail(ctx, candidates)
	if err != nil {
		return nil
	}
	return ele
}

func findButtonByValue(ctx context.Context, r *Resolver, button string) probe.Element {
	for _, ele := range r.All(ctx, "input[type=submit]") {
		value, err := ele.Attribute(ctx, "value")
		if err != nil {
			continue
		}
		if value == button {
			return ele
		}
	}
	return nil
}

func findButtonByText(ctx context.Context, r *Resolver, button string) probe.Element {
	for _, ele := range r.All(ctx, "button") {
		text, err := ele.Text(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(text, button) {
			return ele
		}
	}
	return nil
}
