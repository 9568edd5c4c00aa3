package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pu-ac-cn/srm-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInit 测试 Redis 初始化
func TestInit(t *testing.T) {
	mr := miniredis.RunT(t)

	err := Init(&config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer Close()

	assert.NotNil(t, GetClient())
	assert.NoError(t, Ping(context.Background()))
}

// TestInitUnreachable 测试连接失败
func TestInitUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	err := Init(&config.RedisConfig{Addr: addr})
	assert.Error(t, err)
	Close()
}

// TestPingNotInitialized 测试未初始化时的 Ping
func TestPingNotInitialized(t *testing.T) {
	client = nil
	assert.Error(t, Ping(context.Background()))
}

// TestCloseNil 测试关闭未初始化的连接
func TestCloseNil(t *testing.T) {
	client = nil
	assert.NoError(t, Close())
}
