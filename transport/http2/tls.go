package http2

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/oriys/actoredge/config"
)

// buildClientCredentials translates config.TLSConfig into gRPC transport
// credentials for a dialing client, implementing the four postures of
// spec.md §4.I.
func buildClientCredentials(cfg config.TLSConfig) (credentials.TransportCredentials, error) {
	switch cfg.Posture {
	case config.TLSPlaintext, "":
		return insecure.NewCredentials(), nil
	case config.TLSSystemDefault:
		return credentials.NewTLS(&tls.Config{ServerName: cfg.ServerName}), nil
	case config.TLSOneWay, config.TLSMutual:
		tlsCfg, err := baseTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Posture == config.TLSMutual {
			cert, err := loadKeyPair(cfg)
			if err != nil {
				return nil, err
			}
			tlsCfg.Certificates = []tls.Certificate{cert}
		}
		return credentials.NewTLS(tlsCfg), nil
	default:
		return nil, fmt.Errorf("transport/http2: unknown TLS posture %q", cfg.Posture)
	}
}

// buildServerCredentials translates config.TLSConfig into gRPC transport
// credentials for an accepting server.
func buildServerCredentials(cfg config.TLSConfig) (credentials.TransportCredentials, error) {
	switch cfg.Posture {
	case config.TLSPlaintext, "":
		return insecure.NewCredentials(), nil
	case config.TLSSystemDefault:
		return credentials.NewTLS(&tls.Config{}), nil
	case config.TLSOneWay, config.TLSMutual:
		tlsCfg, err := baseTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		cert, err := loadKeyPair(cfg)
		if err != nil {
			return nil, err
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
		if cfg.Posture == config.TLSMutual {
			pool, err := loadTrustRoots(cfg)
			if err != nil {
				return nil, err
			}
			tlsCfg.ClientCAs = pool
			tlsCfg.ClientAuth = clientAuthType(cfg.ClientCertVerification)
		}
		return credentials.NewTLS(tlsCfg), nil
	default:
		return nil, fmt.Errorf("transport/http2: unknown TLS posture %q", cfg.Posture)
	}
}

// baseTLSConfig builds the shared trust-root + SNI + ALPN skeleton used by
// both one-way and mutual postures. Per spec.md §4.I rule 1, ALPN
// negotiation is left to gRPC's own default unless ALPNRequired forces
// h2-only, since requiring it unconditionally stalls handshakes against
// common non-ALPN peers.
func baseTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{ServerName: cfg.ServerName}
	if cfg.ALPNRequired {
		tlsCfg.NextProtos = []string{"h2"}
	}
	if cfg.Posture == config.TLSOneWay || cfg.Posture == config.TLSMutual {
		pool, err := loadTrustRoots(cfg)
		if err != nil {
			return nil, err
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}

// loadTrustRoots reads cfg.TrustRoots as a CA bundle. Per spec.md §4.I
// rule 2, this must be an issuing CA certificate, never a peer's own leaf
// certificate — the config layer cannot enforce that distinction, so it is
// a caller obligation documented on config.TLSConfig.TrustRoots.
func loadTrustRoots(cfg config.TLSConfig) (*x509.CertPool, error) {
	data, err := cfg.TrustRoots.Load()
	if err != nil {
		return nil, fmt.Errorf("transport/http2: load trust roots: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("transport/http2: trust roots contain no usable PEM certificates")
	}
	return pool, nil
}

func loadKeyPair(cfg config.TLSConfig) (tls.Certificate, error) {
	certPEM, err := cfg.CertChain.Load()
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transport/http2: load cert chain: %w", err)
	}
	keyPEM, err := cfg.PrivateKey.Load()
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transport/http2: load private key: %w", err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transport/http2: build key pair: %w", err)
	}
	return cert, nil
}

func clientAuthType(v config.ClientCertVerification) tls.ClientAuthType {
	switch v {
	case config.VerifyNone:
		return tls.RequireAnyClientCert
	case config.VerifyNoHostname:
		return tls.RequireAndVerifyClientCert
	case config.VerifyFull, "":
		return tls.RequireAndVerifyClientCert
	default:
		return tls.RequireAndVerifyClientCert
	}
}
