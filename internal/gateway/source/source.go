// Package source loads raw menu payloads. Sources return decoded JSON values
// and never interpret their shape.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consolenav/internal/gateway/config"
	"consolenav/internal/httpclient"
)

// ErrNotFound is returned when the configured menu document does not exist.
var ErrNotFound = errors.New("menu source not found")

type Source interface {
	Load(ctx context.Context) (any, error)
}

type SourceFunc func(ctx context.Context) (any, error)

func (f SourceFunc) Load(ctx context.Context) (any, error) { return f(ctx) }

// Provider yields the source for one session. Upstream sources read through
// the session's client; shared sources ignore it.
type Provider func(api *httpclient.API) Source

// Shared adapts a session-independent source.
func Shared(src Source) Provider {
	return func(*httpclient.API) Source { return src }
}

// FromConfig builds the provider selected by cfg.Source. The returned close
// func releases database handles and is safe to call more than once.
func FromConfig(ctx context.Context, cfg config.MenuConfig) (Provider, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "", config.SourceHTTP:
		path := cfg.Path
		return func(api *httpclient.API) Source { return NewHTTPSource(api, path) }, noop, nil
	case config.SourceSQL:
		src, err := OpenSQL(ctx, cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return Shared(src), src.Close, nil
	case config.SourceObject:
		src, err := NewObjectSource(ObjectConfig{
			Endpoint:  cfg.Object.Endpoint,
			Region:    cfg.Object.Region,
			AccessKey: cfg.Object.AccessKey,
			SecretKey: cfg.Object.SecretKey,
			Bucket:    cfg.Object.Bucket,
			Object:    cfg.Object.Object,
			UseSSL:    cfg.Object.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		return Shared(src), noop, nil
	case config.SourceFile:
		src, err := NewFileSource(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return Shared(src), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown menu source %q", cfg.Source)
	}
}
