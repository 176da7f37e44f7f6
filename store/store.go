// Package store 提供 core.KeyValueStore 的内存与 Redis 实现，
// 以及开发/测试用的内存 DataSource。
//
// 注意：接口定义在 core 包，此包只包含实现。
//
// 示例：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store
