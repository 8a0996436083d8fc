package prefs

import (
	"context"
	"unsafe"

	"github.com/coocood/freecache"
)

// CachedStore serves reads from an in-process freecache and writes through to
// the inner store.
type CachedStore struct {
	inner Store
	cache *freecache.Cache
}

// NewCachedStore wraps inner with a sizeMB read cache. With sizeMB <= 0 the
// inner store is returned unchanged.
func NewCachedStore(inner Store, sizeMB int) Store {
	if sizeMB <= 0 {
		return inner
	}
	return &CachedStore{
		inner: inner,
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// freecache copies keys internally and never modifies them.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CachedStore) GetString(ctx context.Context, key string) (string, bool, error) {
	if val, err := c.cache.Get(unsafeStringToBytes(key)); err == nil {
		return string(val), true, nil
	}
	v, ok, err := c.inner.GetString(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	// Values larger than a cache segment are simply not cached.
	_ = c.cache.Set(unsafeStringToBytes(key), []byte(v), 0)
	return v, true, nil
}

func (c *CachedStore) PutString(ctx context.Context, key, value string) error {
	c.cache.Del(unsafeStringToBytes(key))
	if err := c.inner.PutString(ctx, key, value); err != nil {
		return err
	}
	_ = c.cache.Set(unsafeStringToBytes(key), []byte(value), 0)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	c.cache.Del(unsafeStringToBytes(key))
	return c.inner.Delete(ctx, key)
}

// HitRate reports the cache hit rate since creation.
func (c *CachedStore) HitRate() float64 {
	return c.cache.HitRate()
}

func (c *CachedStore) Close() error {
	c.cache.Clear()
	return c.inner.Close()
}
