package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthHMACSecret  string
	EnableLocalAuth bool

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// SessionEvictGraceSec keeps finished test sessions reachable for result
	// re-reads before the manager drops them.
	SessionEvictGraceSec int
}

func FromEnv() Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:                 mode,
		HTTPAddr:             addr,
		DBDriver:             envOr("DB_DRIVER", "sqlite"),
		DBDSN:                envOr("DB_DSN", ""),
		AuthHMACSecret:       envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth:      envBool("ENABLE_LOCAL_AUTH", true),
		CORSOriginsOnline:    csvOr("CORS_ORIGINS_ONLINE", "https://app.course-platform.example.com"),
		CORSOriginsOffline:   csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
		SessionEvictGraceSec: envInt("SESSION_EVICT_GRACE_SEC", 300),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
