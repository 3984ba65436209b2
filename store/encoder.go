package store

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v4"
)

// MakeKey of a predicate and id
func MakeKey(id []byte, predicate string) []byte {
	key := []byte(predicate)
	key = append(key, byte(':'))
	key = append(key, id...)
	return key
}

// GetID of key from a pred:key
func GetID(key []byte) []byte {
	split := bytes.SplitN(key, []byte(":"), 2)
	if len(split) == 1 {
		return []byte{}
	}
	return split[1]
}

// GetPredicate from pred:key
func GetPredicate(key []byte) []byte {
	split := bytes.SplitN(key, []byte(":"), 2)
	return split[0]
}

// EncodeRecord into msgpack
func EncodeRecord(rec *WaitRecord) ([]byte, error) {
	return msgpack.Marshal(rec)
}

// DecodeRecord from msgpack
func DecodeRecord(val []byte) (*WaitRecord, error) {
	rec := &WaitRecord{}
	if err := msgpack.Unmarshal(val, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
