package store

import (
	"bytes"
	"errors"
	"sort"
)

var ErrTxnClosed = errors.New("transaction already committed or discarded")

type pending struct {
	value   []byte
	deleted bool
}

// Txn buffers writes on top of a Database. Reads observe the buffered writes,
// and nothing reaches the database until Commit.
type Txn struct {
	db     Database
	writes map[string]pending
	closed bool
}

func NewTxn(db Database) *Txn {
	return &Txn{
		db:     db,
		writes: make(map[string]pending),
	}
}

func (t *Txn) Get(key []byte) ([]byte, error) {
	if t.closed {
		return nil, ErrTxnClosed
	}
	if p, ok := t.writes[string(key)]; ok {
		if p.deleted {
			return nil, nil
		}
		return p.value, nil
	}
	return t.db.Get(key)
}

func (t *Txn) Has(key []byte) (bool, error) {
	value, err := t.Get(key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

func (t *Txn) Set(key, value []byte) error {
	if t.closed {
		return ErrTxnClosed
	}
	if value == nil {
		value = []byte{}
	}
	t.writes[string(key)] = pending{value: append([]byte{}, value...)}
	return nil
}

func (t *Txn) Delete(key []byte) error {
	if t.closed {
		return ErrTxnClosed
	}
	t.writes[string(key)] = pending{deleted: true}
	return nil
}

func inRange(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	return end == nil || bytes.Compare(key, end) < 0
}

// Iterate merges the buffered writes into the database view.
func (t *Txn) Iterate(start, end []byte, fn func(key, value []byte) (bool, error)) error {
	if t.closed {
		return ErrTxnClosed
	}

	view := make(map[string][]byte)
	err := t.db.Iterate(start, end, func(key, value []byte) (bool, error) {
		view[string(key)] = append([]byte{}, value...)
		return true, nil
	})
	if err != nil {
		return err
	}

	for key, p := range t.writes {
		if !inRange([]byte(key), start, end) {
			continue
		}
		if p.deleted {
			delete(view, key)
		} else {
			view[key] = p.value
		}
	}

	keys := make([]string, 0, len(view))
	for key := range view {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		more, err := fn([]byte(key), view[key])
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Len returns the number of buffered writes.
func (t *Txn) Len() int {
	return len(t.writes)
}

// Commit applies every buffered write in one batch and closes the
// transaction.
func (t *Txn) Commit() error {
	if t.closed {
		return ErrTxnClosed
	}
	t.closed = true

	if len(t.writes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(t.writes))
	for key := range t.writes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ops := make([]Op, 0, len(keys))
	for _, key := range keys {
		p := t.writes[key]
		op := Op{Key: []byte(key)}
		if !p.deleted {
			op.Value = p.value
		}
		ops = append(ops, op)
	}
	t.writes = nil

	return t.db.WriteBatch(ops)
}

// Discard drops the buffered writes. It is safe to call after Commit.
func (t *Txn) Discard() {
	t.closed = true
	t.writes = nil
}
