package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	// CategoriesKey - плоский список категорий каталога
	CategoriesKey = "catalog:categories"
	// FiltersPrefix - опции фильтров по slug категории
	FiltersPrefix = "catalog:filters:"
)

// ErrMiss - ключа нет в кеше
var ErrMiss = errors.New("cache miss")

// FiltersKey возвращает ключ опций фильтров для категории.
// Пустой slug означает весь каталог.
func FiltersKey(slug string) string {
	if slug == "" {
		return FiltersPrefix + "_all"
	}
	return FiltersPrefix + slug
}

type Client struct {
	rdb     *redis.Client
	service string
}

// Connect подключается к Redis и проверяет соединение через PING
func Connect(ctx context.Context, addr, password string, db int, service string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return New(rdb, service), nil
}

func New(rdb *redis.Client, service string) *Client {
	return &Client{rdb: rdb, service: service}
}

// GetJSON читает значение и декодирует его в dst. Отсутствие ключа - ErrMiss.
func (c *Client) GetJSON(ctx context.Context, key string, dst interface{}) error {
	timer := metrics.NewRedisTimer(c.service, metrics.RedisOpGet)
	data, err := c.rdb.Get(ctx, key).Bytes()
	timer.ObserveDuration()

	prefix := keyPrefix(key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(c.service, prefix)
			return ErrMiss
		}
		metrics.RecordRedisError(c.service, metrics.RedisOpGet)
		return fmt.Errorf("failed to get %s from cache: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	metrics.RecordCacheHit(c.service, prefix)
	return nil
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	timer := metrics.NewRedisTimer(c.service, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(c.service, metrics.RedisOpSet)
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	timer := metrics.NewRedisTimer(c.service, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		metrics.RecordRedisError(c.service, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete keys from cache: %w", err)
	}
	return nil
}

// DeleteByPrefix удаляет все ключи с префиксом через SCAN, без KEYS.
// Возвращает количество удаленных ключей.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	timer := metrics.NewRedisTimer(c.service, metrics.RedisOpScan)
	defer timer.ObserveDuration()

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			metrics.RecordRedisError(c.service, metrics.RedisOpScan)
			return deleted, fmt.Errorf("failed to scan %s*: %w", prefix, err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				metrics.RecordRedisError(c.service, metrics.RedisOpDel)
				return deleted, fmt.Errorf("failed to delete %s*: %w", prefix, err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// InvalidateFilterOptions сбрасывает все закешированные опции фильтров каталога
func (c *Client) InvalidateFilterOptions(ctx context.Context, reason string) (int, error) {
	n, err := c.DeleteByPrefix(ctx, FiltersPrefix)
	if err != nil {
		return n, err
	}
	metrics.CatalogCacheInvalidations.WithLabelValues(reason).Inc()
	return n, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// keyPrefix обрезает ключ до последнего ':' для label метрик
func keyPrefix(key string) string {
	if i := strings.LastIndex(key, ":"); i > 0 {
		return key[:i+1]
	}
	return key
}
