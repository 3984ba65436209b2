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

const testURL = "http://localhost/form"

func TestFormat(t *testing.T) {
	r := resolver.New(mock.MakeMockSession(testURL))
	assert.Equal(t, "body .x", r.Format(".x"))
	assert.Equal(t, "body", r.Format(""))

	r.SetPrefix("")
	assert.Equal(t, ".x", r.Format(".x"))
	assert.Equal(t, "", r.Format(""))

	r = resolver.New(mock.MakeMockSession(testURL), resolver.WithPrefix("#app"))
	assert.Equal(t, "#app", r.Prefix())
	assert.Equal(t, "#app  .x", r.Format(" .x"))
}

func TestFindOrFailByID(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	user := mock.MakeMockElement("input", "", "id", "login:userId")
	s.AddID("login:userId", user)

	r := resolver.New(s)
	ele, err := r.FindOrFail(ctx, "#login:userId")
	require.NoError(t, err)
	assert.Same(t, user, ele)
	assert.Equal(t, []string{"login:userId"}, s.QueriesOf(mock.QueryID))
	assert.Empty(t, s.QueriesOf(mock.QueryCSS), "prefix/css must not be used when the id resolves")
}

func TestFindOrFailIDFallsThroughToCSS(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	ele := mock.MakeMockElement("div", "main")
	s.Add("body #main", ele)

	r := resolver.New(s)
	got, err := r.FindOrFail(ctx, "#main")
	require.NoError(t, err)
	assert.Same(t, ele, got)
	assert.Equal(t, []string{"body #main"}, s.QueriesOf(mock.QueryCSS))
}

func TestFindOrFailPrefixed(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	r := resolver.New(s)

	_, err := r.FindOrFail(ctx, ".submit")
	var notFound *probe.ElementNotFoundErr
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, ".submit", notFound.Selector)
	assert.Equal(t, testURL, notFound.URL)
	assert.Equal(t, "The selector [.submit] was not found in the current URL [http://localhost/form]", err.Error())
	assert.Equal(t, []string{"body .submit"}, s.QueriesOf(mock.QueryCSS))
	assert.Empty(t, s.QueriesOf(mock.QueryID))
}

func TestFindOrFailURLError(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	s.CurrentURLFn = func(ctx context.Context) (string, error) {
		return "", errors.New("tab gone")
	}
	r := resolver.New(s)
	_, err := r.FindOrFail(context.Background(), "p")
	var notFound *probe.ElementNotFoundErr
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "", notFound.URL)
}

func TestFindSuppressesFailures(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	s.Errors["body .boom"] = errors.New("connection reset")
	r := resolver.New(s)

	ele, ok := r.Find(ctx, ".boom")
	assert.False(t, ok)
	assert.Nil(t, ele)

	ele, ok = r.Find(ctx, ".missing")
	assert.False(t, ok)
	assert.Nil(t, ele)
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	r := resolver.New(s)

	_, ok := r.FindByID(ctx, ".not-an-id")
	assert.False(t, ok)
	assert.Empty(t, s.Queries, "non shorthand must not reach the session")

	_, ok = r.FindByID(ctx, "#absent")
	assert.False(t, ok)
}

func TestAll(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	s.Add("body li", mock.MakeMockElement("li", "a"), mock.MakeMockElement("li", "b"))
	s.Errors["body .broken"] = errors.New("boom")
	r := resolver.New(s)

	assert.Len(t, r.All(ctx, "li"), 2)

	none := r.All(ctx, "tr")
	assert.NotNil(t, none)
	assert.Empty(t, none)

	broken := r.All(ctx, ".broken")
	assert.NotNil(t, broken)
	assert.Empty(t, broken)
}

func TestFirstOrFailShortCircuits(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	b := mock.MakeMockElement("div", "b")
	s.Add("body .b", b)
	r := resolver.New(s)

	ele, err := r.FirstOrFail(ctx, []string{".a", ".b", ".c"})
	require.NoError(t, err)
	assert.Same(t, b, ele)
	assert.Equal(t, []string{"body .a", "body .b"}, s.QueriesOf(mock.QueryCSS))
}

func TestFirstOrFailReturnsLastError(t *testing.T) {
	ctx := context.Background()
	r := resolver.New(mock.MakeMockSession(testURL))

	_, err := r.FirstOrFail(ctx, []string{".a", ".b", ".c"})
	notFound, ok := err.(*probe.ElementNotFoundErr)
	require.True(t, ok, "expected *ElementNotFoundErr got %T", err)
	assert.Equal(t, ".c", notFound.Selector)
}

func TestFirstOrFailEmpty(t *testing.T) {
	s := mock.MakeMockSession(testURL)
	r := resolver.New(s)
	_, err := r.FirstOrFail(context.Background(), nil)
	var invalid *probe.InvalidInputErr
	assert.True(t, errors.As(err, &invalid))
	assert.Empty(t, s.Queries)
}

func TestTypingCandidates(t *testing.T) {
	assert.Equal(t, []string{
		"input[name='email']",
		"input[id='email']",
		"input[type='email']",
		"textarea[name='email']",
		"textarea[id='email']",
		"textarea[type='email']",
		"email",
	}, resolver.TypingCandidates("email"))
}

func TestResolveForTypingPrefersInput(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	input := mock.MakeMockElement("input", "", "name", "email")
	s.Add("body input[name='email']", input)
	s.Add("body textarea[name='email']", mock.MakeMockElement("textarea", "", "name", "email"))
	r := resolver.New(s)

	ele, err := r.ResolveForTyping(ctx, "email")
	require.NoError(t, err)
	assert.Same(t, input, ele)
}

func TestResolveForTypingFallsBackToTextarea(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	area := mock.MakeMockElement("textarea", "", "id", "bio")
	s.Add("body textarea[id='bio']", area)
	r := resolver.New(s)

	ele, err := r.ResolveForTyping(ctx, "bio")
	require.NoError(t, err)
	assert.Same(t, area, ele)
}

func TestResolveForTypingByID(t *testing.T) {
	ctx := context.Background()
	s := mock.MakeMockSession(testURL)
	field := mock.MakeMockElement("input", "")
	s.AddID("login:userId", field)
	r := resolver.New(s)

	ele, err := r.ResolveForTyping(ctx, "#login:userId")
	require.NoError(t, err)
	assert.Same(t, field, ele)
}

func TestResolveForTypingMissing(t *testing.T) {
	r := resolver.New(mock.MakeMockSession(testURL))
	_, err := r.ResolveForTyping(context.Background(), "nope")
	var notFound *probe.ElementNotFoundErr
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nope", notFound.Selector)
}
