package config

import (
	"testing"
	"time"
)

// setMinimalEnv provides the variables Load requires and clears the rest via
// t.Setenv scoping.
func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SECRET_KEY", "content-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("server defaults wrong: %+v", cfg)
	}
	if cfg.APIBasePath != "/api" {
		t.Fatalf("base path = %q", cfg.APIBasePath)
	}
	if cfg.RateLimit.Window != time.Minute || cfg.RateLimit.ChatPerMin != 10 ||
		cfg.RateLimit.WritePerMin != 20 || cfg.RateLimit.ReadPerMin != 100 ||
		cfg.RateLimit.MutatePerMin != 10 {
		t.Fatalf("rate-limit defaults wrong: %+v", cfg.RateLimit)
	}
	if cfg.Auth.JWTExpiry != 24*time.Hour {
		t.Fatalf("jwt expiry = %v", cfg.Auth.JWTExpiry)
	}
	if cfg.Completion.ContextSize != 10 || cfg.Completion.Timeout != 30*time.Second {
		t.Fatalf("completion defaults wrong: %+v", cfg.Completion)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "nonsense")
	t.Setenv("RATE_CHAT", "3")
	t.Setenv("RATE_WINDOW", "30s")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("COMPLETION_BASE_URL", "http://llm:8000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "9999" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("warning alias not normalized: %q", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("unknown gin mode not coerced: %q", cfg.GinMode)
	}
	if cfg.RateLimit.ChatPerMin != 3 || cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Auth.JWTExpiry != 2*time.Hour {
		t.Fatalf("jwt expiry = %v", cfg.Auth.JWTExpiry)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://a.example" {
		t.Fatalf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Completion.BaseURL != "http://llm:8000" {
		t.Fatalf("completion url = %q", cfg.Completion.BaseURL)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"missing jwt secret", "JWT_SECRET", " "},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"zero rate limit", "RATE_CHAT", "0"},
		{"negative window", "RATE_WINDOW", "-5s"},
		{"zero completion timeout", "COMPLETION_TIMEOUT", "-1s"},
		{"sample ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setMinimalEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%q accepted", tc.key, tc.value)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"api", "/api"},
		{"/api", "/api"},
		{"/api/", "/api"},
		{"/api/v1/", "/api/v1"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Errorf("normalizeBasePath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
