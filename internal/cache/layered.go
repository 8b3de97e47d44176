package cache

import (
	"errors"
	"time"
)

// Layered checks memory before disk and promotes disk hits
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered creates a memory cache in front of a disk cache at dir
func NewLayered(memoryTTL time.Duration, dir string, diskTTL time.Duration) *Layered {
	return &Layered{
		memory: NewMemory(memoryTTL, 10*time.Minute),
		disk:   NewDisk(dir, diskTTL),
	}
}

func (l *Layered) Get(key string) ([]byte, bool) {
	if val, ok := l.memory.Get(key); ok {
		return val, true
	}
	if val, ok := l.disk.Get(key); ok {
		_ = l.memory.Set(key, val, 0)
		return val, true
	}
	return nil, false
}

func (l *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := l.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return l.disk.Set(key, value, ttl)
}

func (l *Layered) Delete(key string) error {
	return errors.Join(l.memory.Delete(key), l.disk.Delete(key))
}

func (l *Layered) Clear() error {
	return errors.Join(l.memory.Clear(), l.disk.Clear())
}
