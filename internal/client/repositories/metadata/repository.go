// Package metadata is the client's local key/value store. It keeps the
// session tokens between runs.
package metadata

import "context"

const (
	KeyUserToken    = "userToken"
	KeyRefreshToken = "refreshToken"
)

// Repository stores opaque values by key. Get returns (nil, nil) for an
// absent key and Delete of an absent key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
}
