package httpclient

import (
	"context"
	"encoding/json"

	"consolenav/internal/common/fields"
	"consolenav/internal/util/jsonutil"
)

// Envelope unwraps the backend's response envelopes so callers see the payload
// only.
//
//   - {code, data, message}: success when code is 0/200/"0"/"200" or, unless
//     strict, when the HTTP status is 2xx. The payload is data, or the whole
//     body when data is empty. Failures return *BusinessError.
//   - {success, data}: the payload is data.
//   - anything else is passed through.
func Envelope(strict bool) Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next.Do(ctx, req)
			if err != nil {
				return nil, err
			}
			body, err := unwrapEnvelope(resp.Status, resp.Body, strict)
			if err != nil {
				return nil, err
			}
			out := *resp
			out.Body = body
			return &out, nil
		})
	}
}

func unwrapEnvelope(status int, body any, strict bool) (any, error) {
	rec, ok := jsonutil.AsRecord(body)
	if !ok {
		return body, nil
	}
	if code, ok := rec.Get("code"); ok {
		data, _ := rec.Get("data")
		if successCode(code) || (!strict && status >= 200 && status < 300) {
			if truthy(data) {
				return data, nil
			}
			return body, nil
		}
		return nil, &BusinessError{
			Code:    code,
			Message: fields.String(body, "request failed", "message", "msg"),
			Data:    data,
		}
	}
	if _, ok := rec.Get("success"); ok {
		if data, ok := rec.Get("data"); ok {
			return data, nil
		}
	}
	return body, nil
}

func successCode(v any) bool {
	if s, ok := v.(string); ok {
		return s == "0" || s == "200"
	}
	if !fields.IsNumber(v) {
		return false
	}
	n, ok := fields.Number(v)
	return ok && (n == 0 || n == 200)
}

// truthy treats null, false, 0 and "" as empty payloads.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		n, ok := fields.Number(x)
		return !ok || n != 0
	default:
		return true
	}
}
