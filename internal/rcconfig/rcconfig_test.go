package rcconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `rorandom:
  credential_env: RORANDOM_API_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Rorandom.Serialized {
		t.Error("serialized: got false, want true (spec §6 default)")
	}
	if cfg.Rorandom.BlockingTimeout != DefaultBlockingTimeout {
		t.Errorf("blocking_timeout: got %v, want %v", cfg.Rorandom.BlockingTimeout, DefaultBlockingTimeout)
	}
	if cfg.Rorandom.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("http_timeout: got %v, want %v", cfg.Rorandom.HTTPTimeout, DefaultHTTPTimeout)
	}
	if cfg.Rorandom.MaxConcurrentUnserialized != 8 {
		t.Errorf("max_concurrent_unserialized: got %d, want 8", cfg.Rorandom.MaxConcurrentUnserialized)
	}
}

func TestLoad_ExplicitSerializedFalseOverridesDefault(t *testing.T) {
	p := writeConfig(t, `rorandom:
  credential_env: RORANDOM_API_KEY
  serialized: false
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rorandom.Serialized {
		t.Error("serialized: got true, want false (explicit override)")
	}
}

func TestLoad_FullSection(t *testing.T) {
	p := writeConfig(t, `rorandom:
  credential_env: RORANDOM_API_KEY
  serialized: false
  blocking_timeout: 5s
  http_timeout: 10s
  max_concurrent_unserialized: 4
  precaches:
    - name: ints
      method: generateIntegers
      n: 100
      target_buffer_size: 20
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rorandom.Serialized {
		t.Error("serialized: got true, want false")
	}
	if cfg.Rorandom.BlockingTimeout != 5*time.Second {
		t.Errorf("blocking_timeout: got %v, want 5s", cfg.Rorandom.BlockingTimeout)
	}
	if cfg.Rorandom.HTTPTimeout != 10*time.Second {
		t.Errorf("http_timeout: got %v, want 10s", cfg.Rorandom.HTTPTimeout)
	}
	if cfg.Rorandom.MaxConcurrentUnserialized != 4 {
		t.Errorf("max_concurrent_unserialized: got %d, want 4", cfg.Rorandom.MaxConcurrentUnserialized)
	}
	if len(cfg.Rorandom.Precaches) != 1 || cfg.Rorandom.Precaches[0].Name != "ints" {
		t.Errorf("precaches: got %+v", cfg.Rorandom.Precaches)
	}
}

func TestLoad_CredentialEnvResolution(t *testing.T) {
	t.Setenv("TEST_RORANDOM_KEY", "supersecret")
	p := writeConfig(t, `rorandom:
  credential_env: TEST_RORANDOM_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Rorandom.Credential(); got != "supersecret" {
		t.Errorf("Credential(): got %q, want supersecret", got)
	}
}

func TestLoad_MissingCredentialEnv(t *testing.T) {
	p := writeConfig(t, `rorandom:
  http_timeout: 10s
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for missing credential_env, got nil")
	}
}

func TestLoad_NonPositiveHTTPTimeoutRejected(t *testing.T) {
	p := writeConfig(t, `rorandom:
  credential_env: RORANDOM_API_KEY
  http_timeout: 0s
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for non-positive http_timeout, got nil")
	}
}

func TestLoad_DuplicatePrecacheNameRejected(t *testing.T) {
	p := writeConfig(t, `rorandom:
  credential_env: RORANDOM_API_KEY
  precaches:
    - name: dup
      method: generateIntegers
      n: 10
      target_buffer_size: 2
    - name: dup
      method: generateIntegers
      n: 10
      target_buffer_size: 2
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for duplicate precache name, got nil")
	}
}

func TestLoad_PrecacheMissingNameRejected(t *testing.T) {
	p := writeConfig(t, `rorandom:
  credential_env: RORANDOM_API_KEY
  precaches:
    - method: generateIntegers
      n: 10
      target_buffer_size: 2
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for precache entry missing name, got nil")
	}
}

func TestLoad_PrecacheTargetBufferSizeTooSmallRejected(t *testing.T) {
	p := writeConfig(t, `rorandom:
  credential_env: RORANDOM_API_KEY
  precaches:
    - name: tiny
      method: generateIntegers
      n: 10
      target_buffer_size: 1
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for target_buffer_size < 2, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
