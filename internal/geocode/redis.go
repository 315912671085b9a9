package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisEntry Redis 中的序列化形式；时间以毫秒存储以便 Lua 比较
type redisEntry struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Success   bool    `json:"success"`
	Reason    Reason  `json:"reason,omitempty"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

// putScript 原子地执行“不存在则写入；失败且更旧则覆盖”
var putScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
  redis.call('SET', KEYS[1], ARGV[1])
  return 1
end
local d = cjson.decode(cur)
if d.success == false and tonumber(d.updated_at) < tonumber(ARGV[2]) then
  redis.call('SET', KEYS[1], ARGV[1])
  return 1
end
return 0
`)

// 文档注释：Redis 共享缓存层
// 背景：多实例部署时共享热点结果，减少对 Postgres 的读取；不设过期，与持久层语义一致。
// 约束：键前缀可配置；值为 JSON。
type RedisCache struct {
	rc     *redis.Client
	prefix string
}

func NewRedisCache(rc *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "wk:geocode:"
	}
	return &RedisCache{rc: rc, prefix: prefix}
}

func (r *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	b, err := r.rc.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var re redisEntry
	if err := json.Unmarshal(b, &re); err != nil {
		return Entry{}, false, err
	}
	return Entry{
		Key:       key,
		Lat:       re.Lat,
		Lon:       re.Lon,
		Success:   re.Success,
		Reason:    re.Reason,
		CreatedAt: time.UnixMilli(re.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(re.UpdatedAt).UTC(),
	}, true, nil
}

func (r *RedisCache) Put(ctx context.Context, e Entry) error {
	b, err := json.Marshal(redisEntry{
		Lat:       e.Lat,
		Lon:       e.Lon,
		Success:   e.Success,
		Reason:    e.Reason,
		CreatedAt: e.CreatedAt.UnixMilli(),
		UpdatedAt: e.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return putScript.Run(ctx, r.rc, []string{r.prefix + e.Key}, string(b), e.UpdatedAt.UnixMilli()).Err()
}
