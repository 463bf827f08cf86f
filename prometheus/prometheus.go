// Package prometheus implements s3connect.MetricsCollector on top of the
// Prometheus client library.
//
//	reg := prometheus.NewRegistry()
//	mc, err := s3prom.New(reg)
//	if err != nil {
//		return err
//	}
//	builder := s3connect.New(s3connect.WithMetricsCollector(mc))
package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/s3connect"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "s3connect"

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Options configures New.
type Options struct {
	Namespace string

	// Buckets for the duration histograms. Nil selects prometheus.DefBuckets.
	Buckets []float64
}

// Collector records s3connect metrics as Prometheus series.
type Collector struct {
	credentials         *prometheus.CounterVec
	credentialDuration  prometheus.Histogram
	regions             *prometheus.CounterVec
	roleRefreshes       *prometheus.CounterVec
	roleRefreshDuration prometheus.Histogram
	clientBuilds        prometheus.Counter
	clientBuildDuration prometheus.Histogram
	poolLookups         *prometheus.CounterVec
}

// Compile-time check that Collector implements s3connect.MetricsCollector.
var _ s3connect.MetricsCollector = (*Collector)(nil)

// New creates a collector and registers its metrics with reg.
func New(reg prometheus.Registerer, optFns ...func(*Options)) (*Collector, error) {
	o := Options{Namespace: DefaultNamespace}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.Buckets == nil {
		o.Buckets = prometheus.DefBuckets
	}

	c := &Collector{
		credentials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "credential_retrievals_total",
			Help:      "Passes over the credential chain by winning source and result.",
		}, []string{"source", "result"}),
		credentialDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.Namespace,
			Name:      "credential_retrieval_duration_seconds",
			Help:      "Time spent walking the credential chain.",
			Buckets:   o.Buckets,
		}),
		regions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "region_resolutions_total",
			Help:      "Region resolutions by source.",
		}, []string{"source"}),
		roleRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "role_refreshes_total",
			Help:      "AssumeRole attempts by result.",
		}, []string{"result"}),
		roleRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.Namespace,
			Name:      "role_refresh_duration_seconds",
			Help:      "Latency of AssumeRole attempts.",
			Buckets:   o.Buckets,
		}),
		clientBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "client_builds_total",
			Help:      "S3 clients built.",
		}),
		clientBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.Namespace,
			Name:      "client_build_duration_seconds",
			Help:      "Time spent resolving configuration and building a client.",
			Buckets:   o.Buckets,
		}),
		poolLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.Namespace,
			Name:      "pool_lookups_total",
			Help:      "Client pool lookups by result (hit or miss).",
		}, []string{"result"}),
	}

	var errs []error
	for _, col := range []prometheus.Collector{
		c.credentials,
		c.credentialDuration,
		c.regions,
		c.roleRefreshes,
		c.roleRefreshDuration,
		c.clientBuilds,
		c.clientBuildDuration,
		c.poolLookups,
	} {
		if err := reg.Register(col); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return c, nil
}

// MustNew is like New but panics if registration fails.
func MustNew(reg prometheus.Registerer, optFns ...func(*Options)) *Collector {
	c, err := New(reg, optFns...)
	if err != nil {
		panic(err)
	}
	return c
}

// RecordCredentialRetrieve implements s3connect.MetricsCollector.
func (c *Collector) RecordCredentialRetrieve(source string, duration time.Duration, err error) {
	if source == "" {
		source = "none"
	}
	c.credentials.WithLabelValues(source, result(err)).Inc()
	c.credentialDuration.Observe(duration.Seconds())
}

// RecordRegionResolve implements s3connect.MetricsCollector.
func (c *Collector) RecordRegionResolve(source string) {
	c.regions.WithLabelValues(source).Inc()
}

// RecordRoleRefresh implements s3connect.MetricsCollector.
func (c *Collector) RecordRoleRefresh(duration time.Duration, err error) {
	c.roleRefreshes.WithLabelValues(result(err)).Inc()
	c.roleRefreshDuration.Observe(duration.Seconds())
}

// RecordClientBuild implements s3connect.MetricsCollector.
func (c *Collector) RecordClientBuild(duration time.Duration) {
	c.clientBuilds.Inc()
	c.clientBuildDuration.Observe(duration.Seconds())
}

// RecordPoolLookup implements s3connect.MetricsCollector.
func (c *Collector) RecordPoolLookup(hit bool) {
	if hit {
		c.poolLookups.WithLabelValues("hit").Inc()
		return
	}
	c.poolLookups.WithLabelValues("miss").Inc()
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
