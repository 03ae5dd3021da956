package http2

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"

	"github.com/oriys/actoredge/config"
)

// connPool caches one *grpc.ClientConn per dial target, deduplicating
// concurrent dials to the same address with singleflight. Grounded on
// internal/cluster/proxy.go's getGRPCConn double-checked-locking cache,
// generalized from a bespoke mutex+map to singleflight.Group since that
// collapses the in-flight-dial case in one call instead of a manual
// retry-after-unlock loop.
type connPool struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
	group singleflight.Group
}

func newConnPool() *connPool {
	return &connPool{conns: make(map[string]*grpc.ClientConn)}
}

func (p *connPool) get(ctx context.Context, addr string, tlsCfg config.TLSConfig, dialTimeout time.Duration) (*grpc.ClientConn, error) {
	p.mu.Lock()
	if conn, ok := p.conns[addr]; ok {
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do(addr, func() (any, error) {
		p.mu.Lock()
		if conn, ok := p.conns[addr]; ok {
			p.mu.Unlock()
			return conn, nil
		}
		p.mu.Unlock()

		creds, err := buildClientCredentials(tlsCfg)
		if err != nil {
			return nil, err
		}
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		conn, err := grpc.DialContext(dialCtx, addr,
			grpc.WithTransportCredentials(creds),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
			grpc.WithBlock(),
		)
		if err != nil {
			return nil, fmt.Errorf("transport/http2: dial %s: %w", addr, err)
		}

		p.mu.Lock()
		if existing, ok := p.conns[addr]; ok {
			p.mu.Unlock()
			_ = conn.Close()
			return existing, nil
		}
		p.conns[addr] = conn
		p.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*grpc.ClientConn), nil
}

func (p *connPool) closeAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for addr, conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, addr)
	}
	return firstErr
}
