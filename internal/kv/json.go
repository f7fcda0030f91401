package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"lifeplan/pkg/domain"
)

// Decoded reports how GetJSON resolved a key.
type Decoded int

const (
	// DecodedValue means the stored value was decoded.
	DecodedValue Decoded = iota
	// DecodedMissing means the key was absent and the fallback was returned.
	DecodedMissing
	// DecodedMalformed means the stored value did not parse and the fallback
	// was returned.
	DecodedMalformed
)

func (d Decoded) String() string {
	switch d {
	case DecodedValue:
		return "value"
	case DecodedMissing:
		return "missing"
	case DecodedMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("Decoded(%d)", int(d))
	}
}

// GetJSON reads key and decodes it into a T. Missing keys and malformed
// payloads yield fallback; only backend failures return an error.
func GetJSON[T any](ctx context.Context, store Store, key string, fallback T) (T, Decoded, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return fallback, DecodedMissing, &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	if !ok || len(raw) == 0 {
		return fallback, DecodedMissing, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return fallback, DecodedMalformed, nil
	}
	return out, DecodedValue, nil
}

// SetJSON encodes value and writes it under key.
func SetJSON[T any](ctx context.Context, store Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &domain.StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := store.Set(ctx, key, data); err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// SetManyJSON encodes every value and writes them together. Drivers that
// implement BatchSetter write atomically; others are written key by key in
// sorted order and stop at the first failure.
func SetManyJSON(ctx context.Context, store Store, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return &domain.StorageError{Op: "encode", Key: key, Err: err}
		}
		encoded[key] = data
	}
	if batch, ok := store.(BatchSetter); ok {
		if err := batch.SetMany(ctx, encoded); err != nil {
			return &domain.StorageError{Op: "set_many", Err: err}
		}
		return nil
	}
	keys := make([]string, 0, len(encoded))
	for key := range encoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := store.Set(ctx, key, encoded[key]); err != nil {
			return &domain.StorageError{Op: "set", Key: key, Err: err}
		}
	}
	return nil
}

// Remove deletes keys, wrapping backend failures.
func Remove(ctx context.Context, store Store, keys ...string) error {
	if err := store.RemoveMany(ctx, keys...); err != nil {
		return &domain.StorageError{Op: "remove", Err: err}
	}
	return nil
}
