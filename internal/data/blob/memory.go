package blob

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

// MemoryStore keeps objects in process memory. It backs OBJECT_STORAGE_MODE=memory
// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (m *MemoryStore) PutJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, "blob_put_json", err)
	}
	m.PutBytes(key, b)
	return nil
}

func (m *MemoryStore) PutText(ctx context.Context, key, text string) error {
	m.PutBytes(key, []byte(text))
	return nil
}

// PutBytes stores a copy of b at key.
func (m *MemoryStore) PutBytes(key string, b []byte) {
	cp := append([]byte(nil), b...)
	m.mu.Lock()
	m.objects[key] = cp
	m.mu.Unlock()
}

func (m *MemoryStore) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	b, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *MemoryStore) GetText(ctx context.Context, key string) (string, bool, error) {
	b, ok, _ := m.GetBytes(ctx, key)
	return string(b), ok, nil
}

func (m *MemoryStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	b, ok, _ := m.GetBytes(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, domain.Wrap(domain.CodeInternal, "blob_get_json", err)
	}
	return true, nil
}

// SignedUploadURL returns "": memory objects have no public endpoint.
func (m *MemoryStore) SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "", nil
}

// Keys lists stored keys with prefix, sorted.
func (m *MemoryStore) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
