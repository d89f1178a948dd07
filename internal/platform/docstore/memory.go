// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory.
//
// Failures can be injected per document, which is how the store and the
// offline proxy are exercised against an unreliable backend in tests.
type MemoryBackend struct {
	mu        sync.RWMutex
	docs      map[string][]byte
	loadErrs  map[string]error
	saveErrs  map[string]error
	pingErr   error
	saveCount map[string]int
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:      make(map[string][]byte),
		loadErrs:  make(map[string]error),
		saveErrs:  make(map[string]error),
		saveCount: make(map[string]int),
	}
}

func (b *MemoryBackend) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.loadErrs[name]; err != nil {
		return nil, err
	}
	data, ok := b.docs[name]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBackend) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.saveErrs[name]; err != nil {
		return err
	}
	b.docs[name] = append([]byte(nil), data...)
	b.saveCount[name]++
	return nil
}

func (b *MemoryBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pingErr
}

// FailLoad makes every Load of name return err; nil clears the failure.
func (b *MemoryBackend) FailLoad(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadErrs[name] = err
}

// FailSave makes every Save of name return err; nil clears the failure.
func (b *MemoryBackend) FailSave(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveErrs[name] = err
}

// FailPing makes Ping return err; nil clears the failure.
func (b *MemoryBackend) FailPing(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pingErr = err
}

// Put stores raw bytes directly, bypassing failure injection.
func (b *MemoryBackend) Put(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[name] = append([]byte(nil), data...)
}

// Saves returns how many successful saves the document has seen.
func (b *MemoryBackend) Saves(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saveCount[name]
}
