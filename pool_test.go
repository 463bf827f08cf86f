package s3connect

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/s3connect/object"
	"github.com/hupe1980/s3connect/testutil"
)

func TestPool_ReusesClientPerConnection(t *testing.T) {
	testutil.IsolateAWSEnv(t)
	metrics := &BasicMetricsCollector{}
	pool := NewPool(New(WithMetricsCollector(metrics)).Region("eu-west-1"))

	a := object.New("images", "a.jpg")
	b := object.New("thumbnails", "b.jpg")

	ca, err := pool.Client(context.Background(), a)
	require.NoError(t, err)
	cb, err := pool.Client(context.Background(), b)
	require.NoError(t, err)

	assert.Same(t, ca, cb)
	assert.Equal(t, 1, pool.Len())

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.PoolMisses)
	assert.Equal(t, int64(1), stats.PoolHits)
	assert.Equal(t, int64(1), stats.ClientBuildCount)
}

func TestPool_DistinctConnections(t *testing.T) {
	testutil.IsolateAWSEnv(t)
	pool := NewPool(New())

	local := object.New("images", "a.jpg")
	local.Endpoint = "http://localhost:9000"

	remote := object.New("images", "a.jpg")
	remote.Region = "ap-northeast-1"

	cl, err := pool.Client(context.Background(), local)
	require.NoError(t, err)
	cr, err := pool.Client(context.Background(), remote)
	require.NoError(t, err)
	cb, err := pool.Client(context.Background(), nil)
	require.NoError(t, err)

	assert.NotSame(t, cl, cr)
	assert.NotSame(t, cl, cb)
	assert.Equal(t, 3, pool.Len())

	assert.True(t, cl.Options().UsePathStyle)
	assert.Equal(t, "ap-northeast-1", cr.Options().Region)
	assert.Equal(t, "us-east-1", cb.Options().Region)
}

func TestPool_ConcurrentFirstUse(t *testing.T) {
	testutil.IsolateAWSEnv(t)
	pool := NewPool(New())

	const callers = 16

	var wg sync.WaitGroup
	clients := make([]*s3.Client, callers)

	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loc := object.New("images", "cat.jpg")
			loc.Region = "eu-west-2"
			c, err := pool.Client(context.Background(), loc)
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, pool.Len())
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
}

func TestPool_CanceledContext(t *testing.T) {
	pool := NewPool(New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Client(ctx, object.New("images", "cat.jpg"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, pool.Len())
}

func TestPool_NilLocatorSharesBaseClient(t *testing.T) {
	testutil.IsolateAWSEnv(t)
	pool := NewPool(New().Region("eu-west-1"))

	fromNil, err := pool.Client(context.Background(), nil)
	require.NoError(t, err)
	fromEmpty, err := pool.Client(context.Background(), object.New("images", "cat.jpg"))
	require.NoError(t, err)

	assert.Same(t, fromNil, fromEmpty)
	assert.Equal(t, 1, pool.Len())
}

func TestPool_ConfigSharesClientCredentials(t *testing.T) {
	testutil.IsolateAWSEnv(t)

	roleClient := new(mockRoleClient)
	roleClient.On("AssumeRole", mock.Anything, mock.Anything).Return(roleOutput(), nil).Once()

	pool := NewPool(New(WithRoleClient(roleClient)).Region("eu-west-1").STSRoleARN(testRoleARN))
	loc := object.New("images", "cat.jpg")

	cfg, err := pool.Config(context.Background(), loc)
	require.NoError(t, err)
	again, err := pool.Config(context.Background(), loc)
	require.NoError(t, err)
	client, err := pool.Client(context.Background(), loc)
	require.NoError(t, err)

	assert.Same(t, cfg.Credentials, again.Credentials)
	assert.Equal(t, "eu-west-1", client.Options().Region)
	assert.Equal(t, 1, pool.Len())

	for _, provider := range []aws.CredentialsProvider{cfg.Credentials, again.Credentials, client.Options().Credentials} {
		creds, err := provider.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ASIAROLE", creds.AccessKeyID)
	}

	roleClient.AssertNumberOfCalls(t, "AssumeRole", 1)
}
