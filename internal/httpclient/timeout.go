package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Timeout bounds every request by d. An expired request fails with a
// *TransportError like any other network failure.
func Timeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return ClientFunc(func(ctx context.Context, req *Request) (*Response, error) {
			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			resp, err := next.Do(tctx, req)
			if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, &TransportError{
					Op:      normalizeMethod(req.Method) + " " + req.URL,
					Timeout: true,
					Err:     fmt.Errorf("timeout of %s exceeded", d),
				}
			}
			return resp, err
		})
	}
}
