package core

import "context"

// ZMember 是有序集合成员及其分数。
type ZMember struct {
	Member string
	Score  float64
}

// KeyValueStore 是键值/有序集合存储接口，接口定义在 core，实现在 store 包。
// 引擎用它发布热门榜（有序集合）与缓存用户画像（带 TTL 的普通 key）。
type KeyValueStore interface {
	Name() string

	// Get 读取 key；不存在返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入 key；ttl 为可选的过期秒数
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除 key（普通 key 或有序集合）
	Delete(ctx context.Context, key string) error

	// ZAdd 向有序集合写入成员及分数
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRevRangeWithScores 按分数降序返回 [start, stop] 区间的成员
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ZMember, error)

	Close() error
}
