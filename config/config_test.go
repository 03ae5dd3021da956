package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Host != "127.0.0.1" || cfg.Port != 8000 || cfg.MaxConnections != 1000 || cfg.TimeoutSeconds != 30 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TLS.Posture != TLSPlaintext {
		t.Fatalf("default TLS posture = %q, want plaintext", cfg.TLS.Posture)
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.Serializer != "json" || cfg.DefaultTimeoutSeconds != 30 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadServerConfigOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(path, []byte("port: 9100\ntls:\n  posture: mutual\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("Port = %d, want 9100", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Fatalf("Host = %q, want default 127.0.0.1 to survive a partial override", cfg.Host)
	}
	if cfg.TLS.Posture != TLSMutual {
		t.Fatalf("TLS.Posture = %q, want mutual", cfg.TLS.Posture)
	}
}

func TestCertSourceLoadPrefersInlineBytes(t *testing.T) {
	cs := CertSource{Bytes: []byte("inline"), FilePath: "/nonexistent"}
	data, err := cs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "inline" {
		t.Fatalf("data = %q, want inline", data)
	}
}

func TestCertSourceLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(path, []byte("cert-bytes"), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	cs := CertSource{FilePath: path}
	data, err := cs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "cert-bytes" {
		t.Fatalf("data = %q, want cert-bytes", data)
	}
}

func TestCertSourceLoadFailsWithNeitherSource(t *testing.T) {
	if _, err := (CertSource{}).Load(); err == nil {
		t.Fatalf("expected error for empty cert source")
	}
}
