package solidcache

import (
	"context"
	"errors"
)

// Tiered checks a fast local cache before a shared remote one, filling the
// local tier on remote hits. Writes go to both tiers.
type Tiered struct {
	local  Cache
	remote Cache
}

// NewTiered combines local and remote. Either may be nil.
func NewTiered(local, remote Cache) *Tiered {
	return &Tiered{local: local, remote: remote}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if t.local != nil {
		if b, ok, err := t.local.Get(ctx, key); err == nil && ok {
			return b, true, nil
		}
	}
	if t.remote == nil {
		return nil, false, nil
	}
	b, ok, err := t.remote.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if t.local != nil {
		_ = t.local.Set(ctx, key, b)
	}
	return b, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, data []byte) error {
	var errs []error
	if t.local != nil {
		errs = append(errs, t.local.Set(ctx, key, data))
	}
	if t.remote != nil {
		errs = append(errs, t.remote.Set(ctx, key, data))
	}
	return errors.Join(errs...)
}
