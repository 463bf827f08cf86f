package stsrole

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultExpiryWindow is how long before expiry credentials are refreshed.
	DefaultExpiryWindow = 5 * time.Minute

	// DefaultRetryInterval is the minimum gap between attempts after a failure.
	DefaultRetryInterval = time.Second
)

// CacheOptions configures a Cache.
type CacheOptions struct {
	// ExpiryWindow triggers a refresh this long before expiry.
	// Zero selects DefaultExpiryWindow.
	ExpiryWindow time.Duration

	// RetryInterval is the minimum gap before the wrapped provider is called
	// again after a failure. Zero selects DefaultRetryInterval, negative
	// disables throttling.
	RetryInterval time.Duration

	// OnRefresh, if set, is called after every call to the wrapped provider.
	OnRefresh func(ctx context.Context, duration time.Duration, err error)

	// Clock returns the current time. Nil selects time.Now.
	Clock func() time.Time
}

// Cache is a self-refreshing aws.CredentialsProvider.
// It is safe for concurrent use.
type Cache struct {
	provider aws.CredentialsProvider
	opts     CacheOptions
	limiter  *rate.Limiter
	group    singleflight.Group

	mu      sync.RWMutex
	creds   aws.Credentials
	lastErr error
	forced  bool
}

// Compile-time check that Cache implements aws.CredentialsProvider.
var _ aws.CredentialsProvider = (*Cache)(nil)

// NewCache wraps provider.
func NewCache(provider aws.CredentialsProvider, optFns ...func(*CacheOptions)) *Cache {
	var o CacheOptions
	for _, fn := range optFns {
		fn(&o)
	}
	if o.ExpiryWindow <= 0 {
		o.ExpiryWindow = DefaultExpiryWindow
	}
	if o.RetryInterval == 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}

	limit := rate.Inf
	if o.RetryInterval > 0 {
		limit = rate.Every(o.RetryInterval)
	}

	return &Cache{
		provider: provider,
		opts:     o,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Retrieve returns cached credentials, refreshing them when they are within
// the expiry window.
//
// Returned credentials report Expires moved forward by the expiry window so
// that outer caches (service clients wrap providers in aws.CredentialsCache)
// come back early enough for the refresh to happen before real expiry.
func (c *Cache) Retrieve(ctx context.Context) (aws.Credentials, error) {
	if creds, ok := c.fresh(c.opts.Clock()); ok {
		return c.export(creds), nil
	}

	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return aws.Credentials{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return aws.Credentials{}, res.Err
		}
		return c.export(res.Val.(aws.Credentials)), nil
	}
}

// Invalidate forces the next Retrieve to refresh, regardless of the retry
// throttle.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = aws.Credentials{}
	c.forced = true
}

func (c *Cache) refresh(ctx context.Context) (aws.Credentials, error) {
	now := c.opts.Clock()

	// A flight that finished just before this one may have refreshed already.
	if creds, ok := c.fresh(now); ok {
		return creds, nil
	}

	// Every attempt takes a token, but only a retry after a failure waits
	// for one.
	c.mu.RLock()
	lastErr, forced, stale := c.lastErr, c.forced, c.creds
	c.mu.RUnlock()

	if !c.limiter.AllowN(now, 1) && lastErr != nil && !forced {
		if usable(stale, now) {
			return stale, nil
		}
		return aws.Credentials{}, lastErr
	}

	start := time.Now()
	creds, err := c.provider.Retrieve(context.WithoutCancel(ctx))
	if c.opts.OnRefresh != nil {
		c.opts.OnRefresh(ctx, time.Since(start), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.forced = false
	if err != nil {
		c.lastErr = err
		if usable(c.creds, now) {
			return c.creds, nil
		}
		return aws.Credentials{}, err
	}

	c.creds = creds
	c.lastErr = nil

	return creds, nil
}

func (c *Cache) fresh(now time.Time) (aws.Credentials, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.creds.HasKeys() {
		return aws.Credentials{}, false
	}
	if c.creds.CanExpire && !now.Before(c.creds.Expires.Add(-c.opts.ExpiryWindow)) {
		return aws.Credentials{}, false
	}
	return c.creds, true
}

func (c *Cache) export(creds aws.Credentials) aws.Credentials {
	if creds.CanExpire {
		creds.Expires = creds.Expires.Add(-c.opts.ExpiryWindow)
	}
	return creds
}

func usable(creds aws.Credentials, now time.Time) bool {
	return creds.HasKeys() && (!creds.CanExpire || now.Before(creds.Expires))
}
