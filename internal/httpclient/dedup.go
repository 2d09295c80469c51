package httpclient

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"consolenav/internal/util/jsonutil"
)

// DefaultDedupExclude lists read-only endpoints that may run concurrently.
var DefaultDedupExclude = []string{"/system/permissions/tree"}

// Fingerprint identifies duplicate requests: url, method, params and body.
// Absent params and body contribute empty strings.
func Fingerprint(req *Request) string {
	return req.URL + "&" + normalizeMethod(req.Method) + "&" + encodeKeyPart(req.Params) + "&" + encodeKeyPart(req.Body)
}

func encodeKeyPart(v any) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return ""
	}
	raw, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

type pendingEntry struct {
	token  uuid.UUID
	cancel context.CancelCauseFunc
}

// Gate tracks in-flight requests by fingerprint. Registering a fingerprint that
// is already pending cancels the older request, unless its URL contains one of
// the excluded substrings, in which case the request is not tracked at all.
type Gate struct {
	mu      sync.Mutex
	pending map[string]pendingEntry
	exclude []string
}

func NewGate(exclude ...string) *Gate {
	ex := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if e = strings.TrimSpace(e); e != "" {
			ex = append(ex, e)
		}
	}
	return &Gate{pending: make(map[string]pendingEntry), exclude: ex}
}

// Excluded reports whether url is exempt from de-duplication.
func (g *Gate) Excluded(url string) bool {
	for _, e := range g.exclude {
		if strings.Contains(url, e) {
			return true
		}
	}
	return false
}

// Begin registers a request and returns the context it must run under and a
// release func to call once it settles. The check for an older duplicate and
// the registration happen under one lock.
func (g *Gate) Begin(ctx context.Context, fingerprint, url string) (context.Context, func()) {
	runCtx, cancel := context.WithCancelCause(ctx)
	if g.Excluded(url) {
		return runCtx, func() { cancel(nil) }
	}
	token := uuid.New()

	g.mu.Lock()
	if prev, ok := g.pending[fingerprint]; ok {
		prev.cancel(ErrSuperseded)
		delete(g.pending, fingerprint)
	}
	g.pending[fingerprint] = pendingEntry{token: token, cancel: cancel}
	g.mu.Unlock()

	return runCtx, func() {
		g.mu.Lock()
		if cur, ok := g.pending[fingerprint]; ok && cur.token == token {
			delete(g.pending, fingerprint)
		}
		g.mu.Unlock()
		cancel(nil)
	}
}

// Pending reports how many tracked requests are in flight.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Clear cancels every tracked request.
func (g *Gate) Clear() {
	g.mu.Lock()
	entries := g.pending
	g.pending = make(map[string]pendingEntry)
	g.mu.Unlock()
	for _, e := range entries {
		e.cancel(ErrCleared)
	}
}

// Dedup routes every request through gate. A request aborted by the gate
// returns *RequestCancelledError.
func Dedup(gate *Gate) Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req *Request) (*Response, error) {
			fp := Fingerprint(req)
			runCtx, release := gate.Begin(ctx, fp, req.URL)
			defer release()

			resp, err := next.Do(runCtx, req)
			if cause := context.Cause(runCtx); cause == ErrSuperseded || cause == ErrCleared {
				return nil, &RequestCancelledError{Fingerprint: fp, Cause: cause}
			}
			return resp, err
		})
	}
}
