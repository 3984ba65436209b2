// Package store keeps an on-disk journal of finished waits.
package store

import (
	"context"
	"os"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/pageprobe/waiter"
)

const waitPredicate = "wait"

// Outcome names
const (
	OutcomeSatisfied = waiter.ResultSatisfied
	OutcomeTimeout   = waiter.ResultTimeout
	OutcomeCancelled = waiter.ResultCancelled
)

// WaitRecord a finished wait as stored in the journal
type WaitRecord struct {
	ID        string        `msgpack:"id"`
	URL       string        `msgpack:"url"`
	Subject   string        `msgpack:"subject"`
	Message   string        `msgpack:"message"`
	Outcome   string        `msgpack:"outcome"`
	Attempts  int           `msgpack:"attempts"`
	Failures  int           `msgpack:"failures"`
	LastError string        `msgpack:"last_error"`
	Started   time.Time     `msgpack:"started"`
	Elapsed   time.Duration `msgpack:"elapsed"`
	Timeout   time.Duration `msgpack:"timeout"`
}

// OutcomeName of a wait outcome
func OutcomeName(o *waiter.Outcome) string {
	return o.Result()
}

// NewWaitRecord from an outcome observed on url
func NewWaitRecord(o *waiter.Outcome, url string) *WaitRecord {
	rec := &WaitRecord{
		ID:       ulid.Make().String(),
		URL:      url,
		Subject:  o.Subject,
		Message:  o.Message,
		Outcome:  OutcomeName(o),
		Attempts: o.Attempts,
		Failures: o.Failures,
		Started:  o.Started,
		Elapsed:  o.Elapsed,
		Timeout:  o.Timeout,
	}
	if o.LastErr != nil {
		rec.LastError = o.LastErr.Error()
	}
	return rec
}

// Journal of wait records keyed by wait:<ulid> so keys sort by time
type Journal struct {
	Store    *badger.DB
	filepath string
	mu       sync.Mutex
	closed   bool
}

// NewJournal at filepath, call Init before use
func NewJournal(filepath string) *Journal {
	return &Journal{filepath: filepath}
}

// OpenJournal creates and initializes a journal
func OpenJournal(filepath string) (*Journal, error) {
	j := NewJournal(filepath)
	if err := j.Init(); err != nil {
		return nil, err
	}
	return j, nil
}

// Init the journal storage
func (j *Journal) Init() error {
	var err error

	if err = os.MkdirAll(j.filepath, 0700); err != nil {
		return errors.Wrap(err, "creating journal dir")
	}

	opts := badger.DefaultOptions(j.filepath).WithLogger(newBadgerLogger())
	j.Store, err = badger.Open(opts)

	if errors.Is(err, badger.ErrTruncateNeeded) {
		log.Warn().Msg("there was a failure re-opening journal, trying to recover")
		opts.Truncate = true
		j.Store, err = badger.Open(opts)
	}

	if err != nil {
		return errors.Wrap(err, "opening journal")
	}
	return nil
}

// Add a record
func (j *Journal) Add(rec *WaitRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	bytez, err := EncodeRecord(rec)
	if err != nil {
		return errors.Wrap(err, "encoding wait record")
	}
	return j.Store.Update(func(txn *badger.Txn) error {
		// key = wait:<ulid>, value = msgpack'd record
		return txn.Set(MakeKey([]byte(rec.ID), waitPredicate), bytez)
	})
}

// Observer returns a waiter.OutcomeFunc that records every outcome. url is
// called to capture the page the wait ran on and may be nil.
func (j *Journal) Observer(url func(ctx context.Context) string) waiter.OutcomeFunc {
	return func(ctx context.Context, o *waiter.Outcome) {
		j.mu.Lock()
		closed := j.closed
		j.mu.Unlock()
		if closed {
			return
		}

		current := ""
		if url != nil {
			current = url(ctx)
		}
		if err := j.Add(NewWaitRecord(o, current)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to journal wait")
		}
	}
}

// Get a record by id
func (j *Journal) Get(id string) (*WaitRecord, error) {
	var rec *WaitRecord
	err := j.Store.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey([]byte(id), waitPredicate))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			rec, err = DecodeRecord(val)
			return err
		})
	})
	return rec, err
}

// Recent records newest first, at most limit (1000 if limit is not sane)
func (j *Journal) Recent(limit int) ([]*WaitRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	records := make([]*WaitRecord, 0)
	err := j.Store.View(func(txn *badger.Txn) error {
		prefix := MakeKey(nil, waitPredicate)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(prefix, 0xff)); it.ValidForPrefix(prefix) && len(records) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := DecodeRecord(val)
				if err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

// Summary counts records by outcome
func (j *Journal) Summary() (map[string]int, error) {
	records, err := j.Recent(1000)
	if err != nil {
		return nil, err
	}
	summary := make(map[string]int)
	for _, rec := range records {
		summary[rec.Outcome]++
	}
	return summary, nil
}

// Close the journal
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.Store.Close()
}
