// Package cache implementa el puerto de caché de lectura con un LRU con expiración.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
)

var _ ports.Cache = (*LRU)(nil)

// LRU caché en proceso acotada por tamaño y TTL. Segura para uso concurrente.
type LRU struct {
	lru *expirable.LRU[string, any]
}

// NewLRU crea la caché. size <= 0 usa 256; ttl <= 0 deja las entradas sin expiración.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = 256
	}
	return &LRU{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func (c *LRU) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *LRU) Set(key string, value any) {
	c.lru.Add(key, value)
}

// Invalidate elimina las claves indicadas; claves inexistentes se ignoran.
func (c *LRU) Invalidate(keys ...string) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

// Len cantidad de entradas vigentes.
func (c *LRU) Len() int { return c.lru.Len() }
