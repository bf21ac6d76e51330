package deliver

import "context"

// Store is the external key-value collaborator used for multipart
// reassembly buffers. Implementations own their own timeout/TTL policy; the
// processor never sets one itself.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
