// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Public base URL of this app; callback and webhook addresses derive from it.
	AppURL string

	// Shopify app credentials and requested permission scopes.
	APIKey    string
	APISecret string
	Scopes    string

	// Path on the shop admin the browser lands on after a successful install.
	AdminLandingPath string

	// Webhook topics registered after authorization.
	WebhookTopics []string

	// Secret for encrypting stored access tokens. Required.
	EncryptionKey string

	// Static cross-origin allow-list, merged with the tenant-derived one.
	AllowedOrigins []string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

// manifest is the optional YAML app manifest (APP_MANIFEST). Values set here
// override the corresponding env defaults.
type manifest struct {
	Scopes        string   `yaml:"scopes"`
	WebhookTopics []string `yaml:"webhook_topics"`
	AdminLanding  string   `yaml:"admin_landing"`
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:              env("MINORDER_ENV", "dev"),
		HTTPAddr:         env("MINORDER_HTTP_ADDR", ":3000"),
		AppURL:           strings.TrimRight(env("APP_URL", "http://localhost:3000"), "/"),
		APIKey:           env("SHOPIFY_API_KEY", ""),
		APISecret:        env("SHOPIFY_API_SECRET", ""),
		Scopes:           env("SHOPIFY_SCOPES", "read_orders"),
		AdminLandingPath: env("ADMIN_LANDING_PATH", "/admin/apps"),
		WebhookTopics:    envList("WEBHOOK_TOPICS", []string{"app/uninstalled"}),
		EncryptionKey:    env("ENCRYPTION_KEY", ""),
		AllowedOrigins:   envList("ALLOWED_ORIGINS", nil),
		RedisURL:         env("REDIS_URL", ""),
		DatabaseURL:      env("DATABASE_URL", ""),
	}
	if path := os.Getenv("APP_MANIFEST"); path != "" {
		applyManifest(&cfg, path)
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory tenant store for dev")
	}
	return cfg
}

func applyManifest(cfg *Config, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[WARN] app manifest %s: %v", path, err)
		return
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		log.Printf("[WARN] app manifest %s: %v", path, err)
		return
	}
	if m.Scopes != "" {
		cfg.Scopes = m.Scopes
	}
	if len(m.WebhookTopics) > 0 {
		cfg.WebhookTopics = m.WebhookTopics
	}
	if m.AdminLanding != "" {
		cfg.AdminLandingPath = m.AdminLanding
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envList(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
