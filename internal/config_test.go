package internal

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/chunker"
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
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestOracleConfig_RequiresModel(t *testing.T) {
	cfg := OracleConfig{BaseURL: "https://api.openai.com/v1"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing model should fail validation")
	}
	cfg.Model = "gpt-4o-mini"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid oracle config should pass: %v", err)
	}
}

func TestIngestConfig_ChunkerOptions(t *testing.T) {
	var cfg IngestConfig
	opts := cfg.ChunkerOptions()
	def := chunker.DefaultOptions()
	if opts != def {
		t.Errorf("zero config opts = %+v, want defaults %+v", opts, def)
	}

	cfg = IngestConfig{ChunkSize: 500, Overlap: 50}
	opts = cfg.ChunkerOptions()
	if opts.ChunkSize != 500 || opts.Overlap != 50 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.MinLength != def.MinLength {
		t.Errorf("unset min_length = %d, want default %d", opts.MinLength, def.MinLength)
	}
}

func TestIngestConfig_RejectsOversizedOverlap(t *testing.T) {
	cfg := IngestConfig{ChunkSize: 120, Overlap: 100}
	if err := cfg.Validate(); err == nil {
		t.Error("overlap at or above half the chunk size should fail validation")
	}

	cfg = IngestConfig{ChunkSize: 3000, Overlap: 300}
	if err := cfg.Validate(); err != nil {
		t.Errorf("standard ratio should pass: %v", err)
	}
}

func TestWatchConfig_Validation(t *testing.T) {
	cfg := WatchConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled watch should pass: %v", err)
	}

	cfg = WatchConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled watch without dir/session should fail")
	}

	cfg = WatchConfig{Enabled: true, Dir: "./drop", Session: "default"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete watch config should pass: %v", err)
	}
}

func TestArchiveConfig_Enabled(t *testing.T) {
	if (&ArchiveConfig{}).Enabled() {
		t.Error("empty path must disable the archive")
	}
	if !(&ArchiveConfig{Path: "./ansuz.db"}).Enabled() {
		t.Error("non-empty path must enable the archive")
	}
}
