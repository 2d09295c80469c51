package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Menu source kinds.
const (
	SourceHTTP   = "http"
	SourceSQL    = "sql"
	SourceObject = "object"
	SourceFile   = "file"
)

type Config struct {
	Port          string
	Env           string
	Debug         bool
	Upstream      UpstreamConfig
	Menu          MenuConfig
	RegistryPath  string
	StateDir      string
	Session       SessionConfig
	PathIndexSize int
}

type UpstreamConfig struct {
	BaseURL        string
	Timeout        time.Duration
	StrictEnvelope bool
	DedupExclude   []string
	ProfilePath    string
}

type MenuConfig struct {
	Source   string
	Path     string
	Selector string
	DBDriver string
	DBDSN    string
	File     string
	Object   ObjectConfig
}

type ObjectConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

type SessionConfig struct {
	TTL time.Duration
	Max int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	cfg := &Config{
		Port:  normalizePort(firstNonEmpty(os.Getenv("PORT"), ":8081")),
		Env:   env,
		Debug: envBool("DEBUG", false),
		Upstream: UpstreamConfig{
			BaseURL:        firstNonEmpty(strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")), "http://localhost:8080/api"),
			Timeout:        envDuration("UPSTREAM_TIMEOUT", 30*time.Second),
			StrictEnvelope: envBool("ENVELOPE_STRICT", false),
			DedupExclude:   splitList(firstNonEmpty(os.Getenv("DEDUP_EXCLUDE"), "/system/permissions/tree")),
			ProfilePath:    firstNonEmpty(strings.TrimSpace(os.Getenv("PROFILE_PATH")), "/auth/userinfo"),
		},
		Menu: MenuConfig{
			Source:   strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_SOURCE")), SourceHTTP)),
			Path:     firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_PATH")), "/system/menu/user-menus"),
			Selector: strings.TrimSpace(os.Getenv("MENU_SELECTOR")),
			DBDriver: firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_DB_DRIVER")), "pgx"),
			DBDSN:    strings.TrimSpace(os.Getenv("MENU_DB_DSN")),
			File:     strings.TrimSpace(os.Getenv("MENU_FILE")),
			Object:   loadObjectConfig(env),
		},
		RegistryPath:  strings.TrimSpace(os.Getenv("COMPONENT_REGISTRY")),
		StateDir:      firstNonEmpty(strings.TrimSpace(os.Getenv("STATE_DIR")), "tmp/consolenav"),
		Session: SessionConfig{
			TTL: envDuration("SESSION_TTL", 30*time.Minute),
			Max: envInt("SESSION_MAX", 1024),
		},
		PathIndexSize: envInt("PATH_INDEX_SIZE", 512),
	}
	return cfg, nil
}

func loadObjectConfig(env string) ObjectConfig {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return localObjectConfig()
	}
	return ObjectConfig{
		Endpoint:  strings.TrimSpace(os.Getenv("MENU_S3_ENDPOINT")),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_REGION")), "us-east-1"),
		AccessKey: strings.TrimSpace(os.Getenv("MENU_S3_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("MENU_S3_SECRET_KEY")),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_BUCKET")), "consolenav"),
		Object:    firstNonEmpty(strings.TrimSpace(os.Getenv("MENU_S3_OBJECT")), "menus.json"),
		UseSSL:    envBool("MENU_S3_USE_SSL", true),
	}
}

// normalizePort accepts "8081" or ":8081".
func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// SetPort overrides the listen address, as the --port flag does.
func (c *Config) SetPort(port string) {
	if p := normalizePort(port); p != "" {
		c.Port = p
	}
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// envDuration reads a Go duration. A bare integer counts seconds.
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	v, err := cast.ToDurationE(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
