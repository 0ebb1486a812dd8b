// Package blob abstracts the object store holding uploaded and derived files.
// Objects are write-once: content under a storage key is never rewritten.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrMissingBody = errors.New("object store returned no body")

// Store is the object store interface. Get returns the adapter's native body
// representation; callers normalize it with ToBytes.
type Store interface {
	Get(ctx context.Context, key string) (any, error)
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	Ping(ctx context.Context) error
}

// ToBytes normalizes an object body into a byte slice. Supports raw byte
// slices, readers, buffers, and anything exposing Bytes().
func ToBytes(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, ErrMissingBody
	case []byte:
		return b, nil
	case *bytes.Buffer:
		return b.Bytes(), nil
	case interface{ Bytes() []byte }:
		return b.Bytes(), nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if c, ok := b.(io.Closer); ok {
			c.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("read object body: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported object body type %T", body)
	}
}
