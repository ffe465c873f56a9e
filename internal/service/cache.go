// cache.go — LRU-кэш с TTL для редко меняющихся справочников
// (список учреждений формы входа).
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "br_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш.",
	}, []string{"cache"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "br_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша.",
	}, []string{"cache"})
)

// Cache — LRU-кэш с автоматическим TTL.
// Кэш локален для экземпляра сервиса.
type Cache[K comparable, V any] struct {
	name  string
	cache *expirable.LRU[K, V]
}

// NewCache создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewCache[K comparable, V any](name string, maxSize int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		name:  name,
		cache: expirable.NewLRU[K, V](maxSize, nil, ttl),
	}
}

// Get возвращает значение и true при hit. Обновляет метрики hit/miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.WithLabelValues(c.name).Inc()
		return val, true
	}
	cacheMissesTotal.WithLabelValues(c.name).Inc()
	return val, false
}

// Set добавляет или обновляет запись.
func (c *Cache[K, V]) Set(key K, val V) {
	c.cache.Add(key, val)
}

// Delete удаляет запись.
func (c *Cache[K, V]) Delete(key K) {
	c.cache.Remove(key)
}

// Purge очищает кэш целиком.
func (c *Cache[K, V]) Purge() {
	c.cache.Purge()
}
