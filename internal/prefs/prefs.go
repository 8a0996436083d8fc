// Package prefs is the string-keyed preference store the record helpers
// persist into. Every backend writes synchronously: a value is durable once
// the Put call returns.
package prefs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/logging"
)

// Store is a string-keyed key/value store.
type Store interface {
	// GetString returns the value under key and whether it exists.
	GetString(ctx context.Context, key string) (string, bool, error)
	PutString(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetInt64 reads an integer value. Missing or unparsable values report false.
func GetInt64(ctx context.Context, s Store, key string) (int64, bool, error) {
	raw, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// PutInt64 stores an integer value.
func PutInt64(ctx context.Context, s Store, key string, v int64) error {
	return s.PutString(ctx, key, strconv.FormatInt(v, 10))
}

// Open builds the backend selected by conf, wrapped in a read cache when
// conf.CacheSize > 0.
func Open(conf config.StoreConfig, logger logging.Logger) (Store, error) {
	var s Store
	var err error
	switch conf.Driver {
	case "sqlite":
		s, err = NewSQLiteStore(conf.Path)
	case "memory":
		s = NewMemoryStore()
	case "file", "":
		s, err = NewFileStore(conf.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.Driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Debugf(logging.TypeStore, "Opened %s store at %s", conf.Driver, conf.Path)
	return NewCachedStore(s, conf.CacheSize), nil
}
