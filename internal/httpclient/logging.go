package httpclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WithLogging logs each request's outcome. Superseded requests are logged at
// debug level only.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Do(ctx, req)
			fs := []zap.Field{
				zap.String("method", normalizeMethod(req.Method)),
				zap.String("url", req.URL),
				zap.Duration("elapsed", time.Since(start)),
			}
			switch {
			case err == nil:
				logger.Debug("upstream request", append(fs, zap.Int("status", resp.Status))...)
			case IsCancelled(err):
				logger.Debug("upstream request superseded", fs...)
			default:
				logger.Warn("upstream request failed", append(fs, zap.Error(err))...)
			}
			return resp, err
		})
	}
}
