package source

import (
	"fmt"
	"sync"
)

var (
	registry = make(map[string]Adapter)
	mu       sync.RWMutex
)

func Register(name string, a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = a
}

func Get(name string) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("source %q not registered", name)
	}
	return a, nil
}

func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
