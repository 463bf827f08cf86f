package s3connect

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/s3connect/region"
)

// MetricsCollector defines an interface for collecting operational metrics.
// The prometheus subpackage provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordCredentialRetrieve is called after each pass over the credential
	// chain. source is empty when err is non-nil.
	RecordCredentialRetrieve(source string, duration time.Duration, err error)

	// RecordRegionResolve is called whenever a region is resolved.
	RecordRegionResolve(source string)

	// RecordRoleRefresh is called after each AssumeRole attempt.
	RecordRoleRefresh(duration time.Duration, err error)

	// RecordClientBuild is called after each client is built.
	RecordClientBuild(duration time.Duration)

	// RecordPoolLookup is called on every Pool.Client call.
	RecordPoolLookup(hit bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCredentialRetrieve(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordRegionResolve(string)                           {}
func (NoopMetricsCollector) RecordRoleRefresh(time.Duration, error)               {}
func (NoopMetricsCollector) RecordClientBuild(time.Duration)                      {}
func (NoopMetricsCollector) RecordPoolLookup(bool)                                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CredentialCount       atomic.Int64
	CredentialErrors      atomic.Int64
	RegionCount           atomic.Int64
	RegionDefaults        atomic.Int64
	RoleRefreshCount      atomic.Int64
	RoleRefreshErrors     atomic.Int64
	RoleRefreshTotalNanos atomic.Int64
	ClientBuildCount      atomic.Int64
	PoolHits              atomic.Int64
	PoolMisses            atomic.Int64
}

// RecordCredentialRetrieve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCredentialRetrieve(_ string, _ time.Duration, err error) {
	b.CredentialCount.Add(1)
	if err != nil {
		b.CredentialErrors.Add(1)
	}
}

// RecordRegionResolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegionResolve(source string) {
	b.RegionCount.Add(1)
	if source == region.SourceDefault {
		b.RegionDefaults.Add(1)
	}
}

// RecordRoleRefresh implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRoleRefresh(duration time.Duration, err error) {
	b.RoleRefreshCount.Add(1)
	b.RoleRefreshTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RoleRefreshErrors.Add(1)
	}
}

// RecordClientBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClientBuild(time.Duration) {
	b.ClientBuildCount.Add(1)
}

// RecordPoolLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPoolLookup(hit bool) {
	if hit {
		b.PoolHits.Add(1)
	} else {
		b.PoolMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CredentialCount:     b.CredentialCount.Load(),
		CredentialErrors:    b.CredentialErrors.Load(),
		RegionCount:         b.RegionCount.Load(),
		RegionDefaults:      b.RegionDefaults.Load(),
		RoleRefreshCount:    b.RoleRefreshCount.Load(),
		RoleRefreshErrors:   b.RoleRefreshErrors.Load(),
		RoleRefreshAvgNanos: b.getAvgRoleRefreshNanos(),
		ClientBuildCount:    b.ClientBuildCount.Load(),
		PoolHits:            b.PoolHits.Load(),
		PoolMisses:          b.PoolMisses.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRoleRefreshNanos() int64 {
	count := b.RoleRefreshCount.Load()
	if count == 0 {
		return 0
	}
	return b.RoleRefreshTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CredentialCount     int64
	CredentialErrors    int64
	RegionCount         int64
	RegionDefaults      int64
	RoleRefreshCount    int64
	RoleRefreshErrors   int64
	RoleRefreshAvgNanos int64
	ClientBuildCount    int64
	PoolHits            int64
	PoolMisses          int64
}
