package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cast"
	_ "modernc.org/sqlite"

	"consolenav/internal/util/jsonutil"
)

// DefaultMenuQuery reads the flat permission table the console backend keeps.
const DefaultMenuQuery = `SELECT * FROM sys_menu ORDER BY sort, id`

// SQLSource reads flat menu rows. Each row becomes an ordered object keyed by
// column name, so snake_case columns flow through the normalizer's fallbacks.
type SQLSource struct {
	db    *sql.DB
	query string
}

// OpenSQL opens dsn with driver "pgx" or "sqlite".
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLSource, error) {
	driver = strings.TrimSpace(driver)
	if driver == "" {
		driver = "pgx"
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("menu database dsn is required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return NewSQLSource(db, ""), nil
}

func NewSQLSource(db *sql.DB, query string) *SQLSource {
	if strings.TrimSpace(query) == "" {
		query = DefaultMenuQuery
	}
	return &SQLSource{db: db, query: query}
}

func (s *SQLSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLSource) Load(ctx context.Context) (any, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query menus: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, 64)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan menu row: %w", err)
		}
		obj := jsonutil.NewObject()
		for i, col := range cols {
			obj.Set(col, columnValue(col, values[i]))
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// boolColumns are stored as 0/1 integers by some drivers.
var boolColumns = map[string]bool{"visible": true, "hidden": true, "keep_alive": true}

// columnValue maps driver values onto decoded-JSON values. meta and roles
// columns holding JSON text are decoded.
func columnValue(col string, v any) any {
	switch x := v.(type) {
	case []byte:
		return textValue(col, string(x))
	case string:
		return textValue(col, x)
	case int64, int32, int16, int8, int, uint64, uint32, uint16, uint8, uint:
		if boolColumns[col] {
			return cast.ToInt64(x) != 0
		}
		return json.Number(fmt.Sprint(x))
	case float64, float32:
		return json.Number(fmt.Sprint(x))
	case time.Time:
		return x.Format(time.DateTime)
	default:
		return x
	}
}

func textValue(col, s string) any {
	if col != "meta" && col != "roles" {
		return s
	}
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s
	}
	v, err := jsonutil.Decode([]byte(trimmed))
	if err != nil {
		return s
	}
	return v
}
