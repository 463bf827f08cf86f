package s3connect

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/s3connect/region"
)

func TestBasicMetricsCollector(t *testing.T) {
	var b BasicMetricsCollector

	b.RecordCredentialRetrieve("environment", time.Millisecond, nil)
	b.RecordCredentialRetrieve("", time.Millisecond, errors.New("none"))
	b.RecordRegionResolve(region.SourceConfig)
	b.RecordRegionResolve(region.SourceDefault)
	b.RecordRoleRefresh(2*time.Millisecond, nil)
	b.RecordRoleRefresh(4*time.Millisecond, errors.New("denied"))
	b.RecordClientBuild(time.Millisecond)
	b.RecordPoolLookup(true)
	b.RecordPoolLookup(false)
	b.RecordPoolLookup(true)

	assert.Equal(t, BasicMetricsStats{
		CredentialCount:     2,
		CredentialErrors:    1,
		RegionCount:         2,
		RegionDefaults:      1,
		RoleRefreshCount:    2,
		RoleRefreshErrors:   1,
		RoleRefreshAvgNanos: (3 * time.Millisecond).Nanoseconds(),
		ClientBuildCount:    1,
		PoolHits:            2,
		PoolMisses:          1,
	}, b.GetStats())
}

func TestBasicMetricsCollector_Concurrent(t *testing.T) {
	var b BasicMetricsCollector
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				b.RecordCredentialRetrieve("config", time.Microsecond, nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), b.GetStats().CredentialCount)
	assert.Zero(t, b.GetStats().RoleRefreshAvgNanos)
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}
	assert.NotPanics(t, func() {
		mc.RecordCredentialRetrieve("", 0, nil)
		mc.RecordRegionResolve("")
		mc.RecordRoleRefresh(0, nil)
		mc.RecordClientBuild(0)
		mc.RecordPoolLookup(false)
	})
}
