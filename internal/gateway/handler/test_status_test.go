package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"

	"consolenav/internal/gateway/nav"
	"consolenav/internal/httpclient"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{nav.ErrNoToken, http.StatusUnauthorized, "unauthenticated"},
		{&httpclient.AuthExpiredError{}, http.StatusUnauthorized, "unauthenticated"},
		{&httpclient.RequestCancelledError{Cause: httpclient.ErrSuperseded}, http.StatusConflict, "superseded"},
		{fmt.Errorf("refresh: %w", nav.ErrStaleRefresh), http.StatusConflict, "superseded"},
		{nav.ErrNotFound, http.StatusNotFound, "not_found"},
		{&httpclient.TransportError{Op: "GET /x", Timeout: true, Err: errors.New("slow")}, http.StatusGatewayTimeout, "timeout"},
		{&httpclient.StatusError{Status: 403}, http.StatusForbidden, "upstream"},
		{&httpclient.StatusError{Status: 500}, http.StatusBadGateway, "upstream"},
		{&httpclient.BusinessError{Code: 1}, http.StatusBadGateway, "upstream"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestConnectError(t *testing.T) {
	assert.Equal(t, connect.CodeCanceled, connect.CodeOf(connectError(&httpclient.RequestCancelledError{Cause: httpclient.ErrCleared})))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(connectError(nav.ErrNoToken)))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(connectError(nav.ErrNotFound)))
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(connectError(errors.New("x"))))
}

func TestJSONCodecEmptyBody(t *testing.T) {
	var req FindMenuRequest
	assert.NoError(t, jsonCodec{name: "json"}.Unmarshal(nil, &req))
	assert.NoError(t, jsonCodec{name: "json"}.Unmarshal([]byte(`{"path":"/a"}`), &req))
	assert.Equal(t, "/a", req.Path)
}
