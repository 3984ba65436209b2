package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/pageprobe/store"
	"gitlab.com/pageprobe/waiter"
)

func openJournal(t *testing.T) *store.Journal {
	t.Helper()
	j, err := store.OpenJournal(filepath.Join(t.TempDir(), "journal"))
	if err != nil {
		t.Fatalf("error opening journal: %s\n", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalAddGet(t *testing.T) {
	j := openJournal(t)

	started := time.Now().UTC().Truncate(time.Millisecond)
	rec := &store.WaitRecord{
		URL:      "http://localhost/form",
		Subject:  "#login",
		Message:  "Waited 5 seconds for selector on the URL [#login].",
		Outcome:  store.OutcomeTimeout,
		Attempts: 49,
		Failures: 49,
		Started:  started,
		Elapsed:  5100 * time.Millisecond,
		Timeout:  5 * time.Second,
	}
	require.NoError(t, j.Add(rec))
	require.NotEmpty(t, rec.ID)

	got, err := j.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Subject, got.Subject)
	assert.Equal(t, rec.Message, got.Message)
	assert.Equal(t, rec.Attempts, got.Attempts)
	assert.Equal(t, rec.Elapsed, got.Elapsed)
	assert.True(t, rec.Started.Equal(got.Started))

	_, err = j.Get("missing")
	assert.Error(t, err)
}

func TestJournalRecentNewestFirst(t *testing.T) {
	j := openJournal(t)
	for _, subject := range []string{"first", "second", "third"} {
		require.NoError(t, j.Add(&store.WaitRecord{Subject: subject, Outcome: store.OutcomeSatisfied}))
	}

	recent, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Subject)
	assert.Equal(t, "second", recent[1].Subject)

	all, err := j.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestJournalObserver(t *testing.T) {
	j := openJournal(t)
	w := waiter.New(waiter.WithTimeout(50*time.Millisecond), waiter.WithInterval(10*time.Millisecond))
	w.OnOutcome(j.Observer(func(ctx context.Context) string { return "http://localhost/" }))

	ctx := context.Background()
	require.NoError(t, w.Until(ctx, func(ctx context.Context) (bool, error) { return true, nil }, waiter.WithSubject("ok")))
	err := w.Until(ctx, func(ctx context.Context) (bool, error) { return false, errors.New("stale") }, waiter.WithSubject("late"))
	require.Error(t, err)

	recent, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "late", recent[0].Subject)
	assert.Equal(t, store.OutcomeTimeout, recent[0].Outcome)
	assert.Equal(t, "stale", recent[0].LastError)
	assert.Equal(t, "http://localhost/", recent[0].URL)
	assert.Equal(t, store.OutcomeSatisfied, recent[1].Outcome)

	summary, err := j.Summary()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{store.OutcomeSatisfied: 1, store.OutcomeTimeout: 1}, summary)
}

func TestKeys(t *testing.T) {
	key := store.MakeKey([]byte("01H"), "wait")
	assert.Equal(t, "wait:01H", string(key))
	assert.Equal(t, "01H", string(store.GetID(key)))
	assert.Equal(t, "wait", string(store.GetPredicate(key)))
	assert.Equal(t, []byte{}, store.GetID([]byte("nocolon")))
}

func TestOutcomeName(t *testing.T) {
	assert.Equal(t, store.OutcomeSatisfied, store.OutcomeName(&waiter.Outcome{Satisfied: true}))
	assert.Equal(t, store.OutcomeCancelled, store.OutcomeName(&waiter.Outcome{Cancelled: true}))
	assert.Equal(t, store.OutcomeTimeout, store.OutcomeName(&waiter.Outcome{}))
}
