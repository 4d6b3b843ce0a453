package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestSnapshotConfig_EmptyBackendDefaultsFile(t *testing.T) {
	cfg := SnapshotConfig{Backend: "", Path: "./state.json"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty backend should default to file: %v", err)
	}
	if cfg.Backend != SnapshotBackendFile {
		t.Errorf("backend = %q, want %q", cfg.Backend, SnapshotBackendFile)
	}
}

func TestSnapshotConfig_SQLiteBackend(t *testing.T) {
	cfg := SnapshotConfig{Backend: "sqlite", Path: "./state.db"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sqlite backend should pass: %v", err)
	}
}

func TestSnapshotConfig_UnknownBackend(t *testing.T) {
	cfg := SnapshotConfig{Backend: "redis", Path: "./state"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail validation")
	}
}

func TestSnapshotConfig_MissingPath(t *testing.T) {
	cfg := SnapshotConfig{Backend: "file", Path: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing path should fail validation")
	}
}

func TestFullConfig_SectionValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}

	cfg = NewDefaultConfig()
	cfg.Snapshot.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch snapshot error")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Snapshot.Backend != SnapshotBackendFile {
		t.Errorf("default backend = %q, want file", cfg.Snapshot.Backend)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.App.HTTP.Port)
	}
}
