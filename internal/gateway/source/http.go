package source

import (
	"context"
	"strings"

	"consolenav/internal/httpclient"
)

// HTTPSource reads the menu payload from the upstream API on behalf of a
// session, through its de-duplicated client.
type HTTPSource struct {
	api  *httpclient.API
	path string
}

func NewHTTPSource(api *httpclient.API, path string) *HTTPSource {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "/system/menu/user-menus"
	}
	return &HTTPSource{api: api, path: path}
}

func (s *HTTPSource) Load(ctx context.Context) (any, error) {
	return s.api.Get(ctx, s.path, nil)
}
