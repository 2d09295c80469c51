package httpclient

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// API is the method-style facade over a Client that returns payloads only.
type API struct {
	client Client
}

func NewAPI(c Client) *API {
	return &API{client: c}
}

// Options configures the standard session client stack.
type Options struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	StrictEnvelope bool
	HTTP           *http.Client
	Logger         *zap.Logger
}

// NewSessionClient assembles transport, envelope, timeout, de-duplication and
// logging for one session.
func NewSessionClient(opts Options, gate *Gate) Client {
	return Wrap(
		NewTransport(opts.BaseURL, opts.Token, opts.HTTP),
		WithLogging(opts.Logger),
		Dedup(gate),
		Timeout(opts.Timeout),
		Envelope(opts.StrictEnvelope),
	)
}

func (a *API) Get(ctx context.Context, url string, params map[string]any) (any, error) {
	return a.call(ctx, &Request{Method: http.MethodGet, URL: url, Params: params})
}

func (a *API) Delete(ctx context.Context, url string, params map[string]any) (any, error) {
	return a.call(ctx, &Request{Method: http.MethodDelete, URL: url, Params: params})
}

func (a *API) Post(ctx context.Context, url string, body any) (any, error) {
	return a.call(ctx, &Request{Method: http.MethodPost, URL: url, Body: body})
}

func (a *API) Put(ctx context.Context, url string, body any) (any, error) {
	return a.call(ctx, &Request{Method: http.MethodPut, URL: url, Body: body})
}

func (a *API) Patch(ctx context.Context, url string, body any) (any, error) {
	return a.call(ctx, &Request{Method: http.MethodPatch, URL: url, Body: body})
}

func (a *API) call(ctx context.Context, req *Request) (any, error) {
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
