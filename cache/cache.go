package cache

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ryuou/ryuou/config"
)

// The cache holds large immutable objects that several searchers may
// share, such as evaluation parameter tables keyed by file path.

type cache struct {
	sync.Mutex
	objects map[string]any
}

// LoadFunc builds the object stored under key.
type LoadFunc[T any] func(cfg *config.Config, key string) (T, error)

// GlobalObjectCache is the process-wide object cache.
var GlobalObjectCache *cache

var createOnce sync.Once

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

func global() *cache {
	createOnce.Do(func() {
		if GlobalObjectCache == nil {
			CreateGlobalObjectCache()
		}
	})
	return GlobalObjectCache
}

// Load returns the object cached under name, calling loadFunc the first
// time. Concurrent callers for the same name wait for a single load.
func Load[T any](cfg *config.Config, name string, loadFunc LoadFunc[T]) (T, error) {
	c := global()
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[name]; ok {
		log.Debug().Str("key", name).Msg("getting obj from cache")
		t, ok := obj.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("cache key %q holds %T", name, obj)
		}
		return t, nil
	}
	log.Debug().Str("key", name).Msg("loading into cache")
	obj, err := loadFunc(cfg, name)
	if err != nil {
		var zero T
		return zero, err
	}
	c.objects[name] = obj
	return obj, nil
}

// Forget drops name so the next Load rebuilds it.
func Forget(name string) {
	c := global()
	c.Lock()
	defer c.Unlock()
	delete(c.objects, name)
}
