package user_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go-lms/internal/shared/cache"
	"go-lms/internal/user"
)

type fakeUserRepository struct {
	createFn            func(ctx context.Context, u *user.User) error
	findByIDFn          func(ctx context.Context, id string) (*user.User, error)
	findByIDForUpdateFn func(ctx context.Context, id string) (*user.User, error)
	findByEmailFn       func(ctx context.Context, email string) (*user.User, error)
	findByRolesFn       func(ctx context.Context, roles ...string) ([]user.User, error)
	updateFieldsFn      func(ctx context.Context, id string, fields map[string]any) error
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository {
	return f
}

func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return nil
}

func (f *fakeUserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeUserRepository) FindByIDForUpdate(ctx context.Context, id string) (*user.User, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return f.FindByID(ctx, id)
}

func (f *fakeUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (f *fakeUserRepository) FindByRoles(ctx context.Context, roles ...string) ([]user.User, error) {
	if f.findByRolesFn != nil {
		return f.findByRolesFn(ctx, roles...)
	}
	return nil, nil
}

func (f *fakeUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if f.updateFieldsFn != nil {
		return f.updateFieldsFn(ctx, id, fields)
	}
	return nil
}

// memStore keeps the generation semantics of the redis store in memory.
type memStore struct {
	mu   sync.Mutex
	gen  int64
	data map[string][]byte
}

var _ cache.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memStore) Generation(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen, nil
}

func (m *memStore) SetJSONAt(ctx context.Context, key string, gen int64, value any, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false, nil
	}
	m.data[key] = payload
	return true, nil
}

func (m *memStore) Invalidate(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) InvalidatePattern(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}
