package store

import (
	"errors"
	"fmt"

	dbm "github.com/tendermint/tm-db"
)

type Backend string

const (
	MemDBBackend     Backend = "memdb"
	GoLevelDBBackend Backend = "goleveldb"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// KVStore is the key/value surface the light client keeps its state in.
// Get returns a nil slice when the key is absent.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Iterate visits keys in [start, end) in ascending order until fn returns
	// false or an error. A nil end means no upper bound.
	Iterate(start, end []byte, fn func(key, value []byte) (bool, error)) error
}

// Op is a single buffered write. A nil Value deletes Key.
type Op struct {
	Key   []byte
	Value []byte
}

// Database is a KVStore that can apply a set of writes atomically.
type Database interface {
	KVStore
	WriteBatch(ops []Op) error
	Close() error
}

// DB adapts a tm-db database.
type DB struct {
	db dbm.DB
}

func NewMemDB() *DB {
	return &DB{db: dbm.NewMemDB()}
}

// Open creates or opens the database called name under dir.
func Open(backend Backend, name, dir string) (*DB, error) {
	switch backend {
	case MemDBBackend:
		return NewMemDB(), nil
	case GoLevelDBBackend:
		db, err := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
		if err != nil {
			return nil, fmt.Errorf("open goleveldb %s in %s: %w", name, dir, err)
		}
		return &DB{db: db}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

func (d *DB) Get(key []byte) ([]byte, error) {
	return d.db.Get(key)
}

func (d *DB) Has(key []byte) (bool, error) {
	return d.db.Has(key)
}

func (d *DB) Set(key, value []byte) error {
	return d.db.Set(key, value)
}

func (d *DB) Delete(key []byte) error {
	return d.db.Delete(key)
}

func (d *DB) Iterate(start, end []byte, fn func(key, value []byte) (bool, error)) error {
	it, err := d.db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		more, err := fn(it.Key(), it.Value())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	return it.Error()
}

func (d *DB) WriteBatch(ops []Op) error {
	batch := d.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		var err error
		if op.Value == nil {
			err = batch.Delete(op.Key)
		} else {
			err = batch.Set(op.Key, op.Value)
		}
		if err != nil {
			return fmt.Errorf("stage write of %x: %w", op.Key, err)
		}
	}

	return batch.WriteSync()
}

func (d *DB) Close() error {
	return d.db.Close()
}
