package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process store used in tests and when no redis URL is configured.
// Transactions are serialized by a single lock.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{base: m.data, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.writes {
		m.data[k] = v
	}
	return nil
}

func (m *Memory) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{base: m.data, readOnly: true})
}

func (m *Memory) Close() error { return nil }

type memTx struct {
	base     map[string][]byte
	writes   map[string][]byte
	readOnly bool
}

func (t *memTx) Get(key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), nil
	}
	if v, ok := t.base[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, nil
}

func (t *memTx) Has(key string) (bool, error) {
	if _, ok := t.writes[key]; ok {
		return true, nil
	}
	_, ok := t.base[key]
	return ok, nil
}

func (t *memTx) Put(key string, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, err := bucketOf(key); err != nil {
		return err
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *memTx) Keys(prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	collect := func(src map[string][]byte) {
		for k := range src {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	collect(t.base)
	collect(t.writes)
	sort.Strings(out)
	return out, nil
}
