package shape

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"consolenav/internal/util/jsonutil"
)

// Select applies a JSONPath expression and returns the first match. An empty
// selector returns value unchanged.
//
// Selected objects come back as map[string]any, so later field scans over them
// run in sorted key order.
func Select(value any, selector string) (any, error) {
	if selector == "" {
		return value, nil
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	results := x.Get(jsonutil.Plain(value))
	if len(results) == 0 {
		return nil, &DataShapeError{Op: "select", Reason: fmt.Sprintf("no match for %s", selector)}
	}
	return results[0], nil
}
