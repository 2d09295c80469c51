package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"consolenav/internal/common/fields"
	"consolenav/internal/util/jsonutil"
)

const maxResponseBytes = 8 << 20

// Transport sends requests over net/http on behalf of one session.
type Transport struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewTransport builds a transport for baseURL. token, when set, is sent as a
// bearer credential on every request.
func NewTransport(baseURL, token string, hc *http.Client) *Transport {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Transport{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    hc,
	}
}

func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	method := normalizeMethod(req.Method)
	target, err := t.resolve(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil && method != http.MethodGet {
		raw, err := jsonutil.MarshalNoEscape(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	hr, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("Accept", "application/json")
	hr.Header.Set("X-Requested-With", "XMLHttpRequest")
	if hr.Header.Get("X-Request-ID") == "" {
		hr.Header.Set("X-Request-ID", uuid.NewString())
	}
	if t.token != "" {
		hr.Header.Set("Authorization", "Bearer "+t.token)
	}
	if hasBody(method) {
		hr.Header.Set("Content-Type", "application/json")
	} else {
		hr.Header.Del("Content-Type")
	}

	resp, err := t.http.Do(hr)
	if err != nil {
		return nil, &TransportError{Op: method + " " + req.URL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "read " + req.URL, Err: err}
	}
	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: decodeBody(raw)}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return out, nil
	}
	msg := fields.String(out.Body, statusMessage(resp.StatusCode), "message", "msg", "error")
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthExpiredError{Message: msg}
	}
	return nil, &StatusError{Status: resp.StatusCode, Message: msg, Body: out.Body}
}

func (t *Transport) resolve(path string, params map[string]any) (string, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target = t.baseURL + path
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", target, err)
	}
	if len(params) > 0 {
		q := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := params[k]
			if v == nil {
				continue
			}
			if arr, ok := v.([]any); ok {
				for _, item := range arr {
					q.Add(k, cast.ToString(item))
				}
				continue
			}
			q.Set(k, cast.ToString(v))
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	v, err := jsonutil.Decode(raw)
	if err != nil {
		return string(raw)
	}
	return v
}
