package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	goredis "github.com/redis/go-redis/v9"
)

const userMenusPrefix = "user_menus:"

// 按终端清理缓存时每批删除的键数
const invalidateBatch = 100

// DefaultMenuCacheTTL 菜单缓存默认有效期
const DefaultMenuCacheTTL = 10 * time.Minute

// MenuCache 用户菜单缓存，client 为空时所有操作均为空操作
type MenuCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewMenuCache 创建菜单缓存
func NewMenuCache(client *goredis.Client, ttl time.Duration) *MenuCache {
	if ttl <= 0 {
		ttl = DefaultMenuCacheTTL
	}
	return &MenuCache{client: client, ttl: ttl}
}

func menuCacheKey(userID string, terminal model.Terminal) string {
	return userMenusPrefix + userID + ":" + string(terminal)
}

// Get 读取缓存，未命中返回 false
func (c *MenuCache) Get(ctx context.Context, userID string, terminal model.Terminal) ([]*model.Menu, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, menuCacheKey(userID, terminal)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var menus []*model.Menu
	if err := json.Unmarshal(data, &menus); err != nil {
		return nil, false, err
	}
	return menus, true, nil
}

// Set 写入缓存
func (c *MenuCache) Set(ctx context.Context, userID string, terminal model.Terminal, menus []*model.Menu) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(menus)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, menuCacheKey(userID, terminal), data, c.ttl).Err()
}

// Invalidate 清除用户全部终端的菜单缓存
func (c *MenuCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	keys := make([]string, 0, len(model.Terminals()))
	for _, t := range model.Terminals() {
		keys = append(keys, menuCacheKey(userID, t))
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidateTerminal 清除全部用户在某终端的菜单缓存，菜单变更后调用
func (c *MenuCache) InvalidateTerminal(ctx context.Context, terminal model.Terminal) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, userMenusPrefix+"*:"+string(terminal), invalidateBatch).Iterator()
	keys := make([]string, 0, invalidateBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == invalidateBatch {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
