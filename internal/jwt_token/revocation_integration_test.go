//go:build integration

package jwttoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irdesk/pkg/testutil/containers"
)

func TestRedisRevocationList(t *testing.T) {
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))
	list := NewRedisRevocationList(rc.Client.Client)

	revoked, err := list.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = list.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := rc.Client.TTL(ctx, revokedTokenKeyPrefix+"jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, list.Revoke(ctx, "jti-2", 0), "expired tokens need no entry")
	exists, err := rc.Client.Exists(ctx, revokedTokenKeyPrefix+"jti-2").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
