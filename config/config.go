// Package config implements spec.md §4.J's declarative configuration
// contract for both server and client roles, plus the TLS/mTLS posture
// type used by transport/http2. Struct shape and the
// defaults-then-override loading style are grounded on the teacher's
// internal/config/config.go (JSON-tagged structs with inline default
// comments, a DefaultConfig constructor, and environment overrides);
// YAML decoding of the same tagged structs is added per DOMAIN STACK.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TLSPosture selects which of the four TLS postures spec.md §4.I
// mandates a transport must support.
type TLSPosture string

const (
	// TLSPlaintext disables transport encryption entirely.
	TLSPlaintext TLSPosture = "plaintext"
	// TLSOneWay is server-authenticated TLS: the client verifies the
	// server's certificate against TrustRoots; no client certificate is
	// presented.
	TLSOneWay TLSPosture = "one_way"
	// TLSMutual requires both sides to present certificates.
	TLSMutual TLSPosture = "mutual"
	// TLSSystemDefault uses the host's default trust store instead of an
	// explicit TrustRoots source.
	TLSSystemDefault TLSPosture = "system_default"
)

// ClientCertVerification selects how strictly a mTLS server validates a
// client-presented certificate, per spec.md §4.I.
type ClientCertVerification string

const (
	// VerifyNone skips client certificate validation entirely (posture
	// still requires a cert to be presented under TLSMutual; this only
	// disables chain/hostname checks).
	VerifyNone ClientCertVerification = "none"
	// VerifyNoHostname validates the chain but skips hostname/SAN
	// matching — the common choice for service-mesh mTLS where peer
	// identity is the CA, not the hostname.
	VerifyNoHostname ClientCertVerification = "no_hostname_verification"
	// VerifyFull validates the chain. Client certificates are not matched
	// against a hostname/SAN, so a server treats it the same as
	// VerifyNoHostname.
	VerifyFull ClientCertVerification = "full_verification"
)

// CertFormat names the encoding of a CertSource's bytes.
type CertFormat string

const (
	CertFormatPEM CertFormat = "pem"
	CertFormatDER CertFormat = "der"
)

// CertSource names one certificate/key/trust-root material, accepted as
// inline bytes or a file path. There is no field for a pre-loaded
// certificate or key handle. Exactly one of Bytes/FilePath should be set
// when loaded from configuration.
type CertSource struct {
	Bytes    []byte     `yaml:"bytes,omitempty"`
	FilePath string     `yaml:"file_path,omitempty"`
	Format   CertFormat `yaml:"format"` // Default: pem
}

// Load resolves this source to raw bytes, reading FilePath if Bytes is
// unset.
func (c CertSource) Load() ([]byte, error) {
	if len(c.Bytes) > 0 {
		return c.Bytes, nil
	}
	if c.FilePath == "" {
		return nil, fmt.Errorf("config: cert source has neither bytes nor file_path")
	}
	data, err := os.ReadFile(c.FilePath)
	if err != nil {
		return nil, fmt.Errorf("config: read cert source %s: %w", c.FilePath, err)
	}
	return data, nil
}

// TLSConfig is the mandatory-contract TLS configuration type described
// in spec.md §4.I. Fields not relevant to Posture are ignored.
type TLSConfig struct {
	Posture TLSPosture `yaml:"posture"` // Default: plaintext

	// TrustRoots is the CA bundle used to verify the peer (one-way:
	// server cert; mutual: client cert). Per spec.md §4.I rule 2, this
	// MUST be an issuing CA, never a peer leaf certificate.
	TrustRoots CertSource `yaml:"trust_roots,omitempty"`

	// CertChain + PrivateKey are this side's own identity, required for
	// TLSMutual and for a TLSOneWay server.
	CertChain  CertSource `yaml:"cert_chain,omitempty"`
	PrivateKey CertSource `yaml:"private_key,omitempty"`

	ClientCertVerification ClientCertVerification `yaml:"client_cert_verification,omitempty"` // Default: full_verification

	// ServerName overrides the SNI/authority presented during the
	// handshake, independent of the dial target, per spec.md §4.I rule 2.
	ServerName string `yaml:"server_name,omitempty"`

	// ALPNRequired defaults to false for TLSMutual per spec.md §4.I rule
	// 1: forcing it on causes handshake stalls with common peers.
	ALPNRequired bool `yaml:"alpn_required"` // Default: false
}

// ServerConfig is the declarative server contract from spec.md §6.
type ServerConfig struct {
	Host           string        `yaml:"host"`            // Default: 127.0.0.1
	Port           int           `yaml:"port"`            // Default: 8000
	TLS            TLSConfig     `yaml:"tls,omitempty"`
	MaxConnections int           `yaml:"max_connections"` // Default: 1000
	TimeoutSeconds int           `yaml:"timeout_seconds"` // Default: 30
	MetricsNamespace string      `yaml:"metrics_namespace"`
	WellKnownActorIDs []string   `yaml:"well_known_actor_ids,omitempty"`
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ClientConfig is the declarative client contract from spec.md §4.J.
type ClientConfig struct {
	Endpoint         string    `yaml:"endpoint"`
	TLS              TLSConfig `yaml:"tls,omitempty"`
	DefaultTimeoutSeconds int  `yaml:"default_timeout_seconds"` // Default: 30
	MetricsNamespace string    `yaml:"metrics_namespace"`
	Serializer       string    `yaml:"serializer"` // Default: json
}

// Timeout returns DefaultTimeoutSeconds as a time.Duration.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeoutSeconds) * time.Second
}

// DefaultServerConfig returns a ServerConfig with spec.md §6's mandated
// defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:             "127.0.0.1",
		Port:             8000,
		MaxConnections:   1000,
		TimeoutSeconds:   30,
		MetricsNamespace: "actoredge",
		TLS:              TLSConfig{Posture: TLSPlaintext},
	}
}

// DefaultClientConfig returns a ClientConfig with spec.md §4.J's mandated
// defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		DefaultTimeoutSeconds: 30,
		MetricsNamespace:      "actoredge",
		Serializer:            "json",
		TLS:                   TLSConfig{Posture: TLSPlaintext},
	}
}

// LoadServerConfig reads a YAML server configuration file, starting from
// DefaultServerConfig so unset fields keep their defaults.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read server config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse server config: %w", err)
	}
	return cfg, nil
}

// LoadClientConfig reads a YAML client configuration file, starting from
// DefaultClientConfig so unset fields keep their defaults.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read client config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse client config: %w", err)
	}
	return cfg, nil
}
