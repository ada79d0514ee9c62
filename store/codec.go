package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/snowfork/go-substrate-rpc-client/v4/scale"
)

var ErrNotFound = errors.New("record not found")

// Encode serializes a record with the SCALE codec.
func Encode(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decode(data []byte, target interface{}) error {
	return scale.NewDecoder(bytes.NewReader(data)).Decode(target)
}

// Load decodes the record under key into target. It returns ErrNotFound if
// the key is absent.
func Load(kv KVStore, key []byte, target interface{}) error {
	data, err := kv.Get(key)
	if err != nil {
		return fmt.Errorf("read %q: %w", key, err)
	}
	if data == nil {
		return ErrNotFound
	}
	if err := Decode(data, target); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func Save(kv KVStore, key []byte, value interface{}) error {
	data, err := Encode(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return kv.Set(key, data)
}

// DeletePrefix removes every key under prefix.
func DeletePrefix(kv KVStore, prefix []byte) (int, error) {
	var keys [][]byte
	err := kv.Iterate(prefix, PrefixEnd(prefix), func(key, _ []byte) (bool, error) {
		keys = append(keys, append([]byte{}, key...))
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		if err := kv.Delete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
