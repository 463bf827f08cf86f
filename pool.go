package s3connect

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/s3connect/object"
)

type poolEntry struct {
	cfg    ClientConfig
	client *s3.Client
}

// Pool keeps one client per distinct connection configuration.
// It is safe for concurrent use.
type Pool struct {
	base  Builder
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]poolEntry
}

// NewPool returns a pool deriving its clients from base.
func NewPool(base Builder) *Pool {
	base.opts = base.opts.withDefaults()
	return &Pool{
		base:    base,
		entries: make(map[string]poolEntry),
	}
}

// Client returns the client for loc's connection fields, building it on
// first use. A nil loc selects the base configuration.
func (p *Pool) Client(ctx context.Context, loc *object.Locator) (*s3.Client, error) {
	e, err := p.entry(ctx, loc)
	if err != nil {
		return nil, err
	}
	return e.client, nil
}

// Config returns the configuration of the pooled client for loc. Its
// Credentials are the ones the client signs with, so other service clients
// built from it (e.g. STS) share the same role session.
func (p *Pool) Config(ctx context.Context, loc *object.Locator) (ClientConfig, error) {
	e, err := p.entry(ctx, loc)
	if err != nil {
		return ClientConfig{}, err
	}
	return e.cfg, nil
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

func (p *Pool) entry(ctx context.Context, loc *object.Locator) (poolEntry, error) {
	if loc == nil {
		loc = &object.Locator{}
	}
	key := loc.ConnectionKey()

	if e, ok := p.lookup(key); ok {
		p.base.opts.metrics.RecordPoolLookup(true)
		return e, nil
	}
	p.base.opts.metrics.RecordPoolLookup(false)

	v, err, _ := p.group.Do(key, func() (any, error) {
		if e, ok := p.lookup(key); ok {
			return e, nil
		}

		cfg, client, err := p.base.ForObject(loc).build(ctx)
		if err != nil {
			return nil, err
		}

		e := poolEntry{cfg: cfg, client: client}

		p.mu.Lock()
		p.entries[key] = e
		p.mu.Unlock()

		return e, nil
	})
	if err != nil {
		return poolEntry{}, err
	}

	return v.(poolEntry), nil
}

func (p *Pool) lookup(key string) (poolEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[key]
	return e, ok
}
