package resolver_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/pageprobe/mock"
	"gitlab.com/pageprobe/probe"
	"gitlab.com/pageprobe/resolver"
)

func TestButtonStrategies(t *testing.T) {
	assert.Equal(t, []string{"id", "selector", "name", "value", "text"}, resolver.ButtonStrategies())
}

func TestButtonByID(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	save := mock.MakeMockElement("button", "Save")
	s.AddID("save", save)

	ele, err := resolver.New(s).ResolveForButtonPress(context.Background(), "#save")
	require.NoError(t, err)
	assert.Same(t, save, ele)
	assert.Empty(t, s.QueriesOf(mock.QueryAll))
}

func TestButtonBySelector(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	save := mock.MakeMockElement("button", "Save")
	s.Add("body .actions button", save)

	ele, err := resolver.New(s).ResolveForButtonPress(context.Background(), ".actions button")
	require.NoError(t, err)
	assert.Same(t, save, ele)
}

func TestButtonByName(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	named := mock.MakeMockElement("button", "Go", "name", "go")
	s.Add("body button[name='go']", named)

	ele, err := resolver.New(s).ResolveForButtonPress(context.Background(), "go")
	require.NoError(t, err)
	assert.Same(t, named, ele)

	css := s.QueriesOf(mock.QueryCSS)
	assert.Equal(t, []string{
		"body go",
		"body input[type=submit][name='go']",
		"body input[type=button][value='go']",
		"body button[name='go']",
	}, css)
}

func TestButtonByValue(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	other := mock.MakeMockElement("input", "", "type", "submit", "value", "Cancel")
	send := mock.MakeMockElement("input", "", "type", "submit", "value", "Send")
	s.Add("body input[type=submit]", other, send)

	ele, err := resolver.New(s).ResolveForButtonPress(context.Background(), "Send")
	require.NoError(t, err)
	assert.Same(t, send, ele)
}

func TestButtonByTextSubstring(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	s.Add("body input[type=submit]", mock.MakeMockElement("input", "", "type", "submit", "value", "Go"))
	first := mock.MakeMockElement("button", "Cancel")
	submit := mock.MakeMockElement("button", "Submit Form")
	s.Add("body button", first, submit)

	ele, err := resolver.New(s).ResolveForButtonPress(context.Background(), "Submit")
	require.NoError(t, err)
	assert.Same(t, submit, ele)
}

func TestButtonSkipsUnreadable(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	stale := mock.MakeMockElement("button", "Submit")
	stale.Err = probe.ErrStaleElement
	ok := mock.MakeMockElement("button", "Submit")
	s.Add("body button", stale, ok)

	ele, err := resolver.New(s).ResolveForButtonPress(context.Background(), "Submit")
	require.NoError(t, err)
	assert.Same(t, ok, ele)
}

func TestButtonNotFound(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	s.Add("body button", mock.MakeMockElement("button", "Cancel"))

	_, err := resolver.New(s).ResolveForButtonPress(context.Background(), "Delete")
	var notFound *probe.ButtonNotFoundErr
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "Unable to locate button [Delete].", err.Error())
}
