package store

import (
	"context"
	"sync"

	"github.com/mikey/outreach-agent/internal/core"
)

// MemoryThreadRepository keeps threads in memory; callers receive copies
type MemoryThreadRepository struct {
	mu      sync.RWMutex
	threads map[string]*core.EmailThread
	order   []string
}

// NewMemoryThreadRepository creates a repository seeded with threads
func NewMemoryThreadRepository(threads []*core.EmailThread) *MemoryThreadRepository {
	r := &MemoryThreadRepository{threads: make(map[string]*core.EmailThread, len(threads))}
	for _, t := range threads {
		if _, ok := r.threads[t.ID]; !ok {
			r.order = append(r.order, t.ID)
		}
		r.threads[t.ID] = cloneThread(t)
	}
	return r
}

// Get returns a copy of the thread
func (r *MemoryThreadRepository) Get(ctx context.Context, threadID string) (*core.EmailThread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.threads[threadID]
	if !ok {
		return nil, core.ErrThreadNotFound
	}
	return cloneThread(t), nil
}

// List returns copies of all threads in insertion order
func (r *MemoryThreadRepository) List(ctx context.Context) ([]*core.EmailThread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*core.EmailThread, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneThread(r.threads[id]))
	}
	return out, nil
}

// Save replaces or inserts a thread
func (r *MemoryThreadRepository) Save(ctx context.Context, thread *core.EmailThread) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.threads[thread.ID]; !ok {
		r.order = append(r.order, thread.ID)
	}
	r.threads[thread.ID] = cloneThread(thread)
	return nil
}

func cloneThread(t *core.EmailThread) *core.EmailThread {
	c := *t
	c.Messages = append([]core.Message(nil), t.Messages...)
	if t.ProcessedAt != nil {
		at := *t.ProcessedAt
		c.ProcessedAt = &at
	}
	return &c
}

// MemoryBrandRepository serves brand profiles by id
type MemoryBrandRepository struct {
	brands map[string]*core.BrandProfile
}

// NewMemoryBrandRepository creates a brand repository
func NewMemoryBrandRepository(brands []*core.BrandProfile) *MemoryBrandRepository {
	r := &MemoryBrandRepository{brands: make(map[string]*core.BrandProfile, len(brands))}
	for _, b := range brands {
		r.brands[b.ID] = b
	}
	return r
}

// Get returns a brand profile
func (r *MemoryBrandRepository) Get(ctx context.Context, brandID string) (*core.BrandProfile, error) {
	b, ok := r.brands[brandID]
	if !ok {
		return nil, core.ErrBrandNotFound
	}
	c := *b
	return &c, nil
}

// MemoryProfileRepository serves local channel profiles
type MemoryProfileRepository struct {
	profiles []*core.ChannelProfile
}

// NewMemoryProfileRepository creates a profile repository
func NewMemoryProfileRepository(profiles []*core.ChannelProfile) *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: profiles}
}

// List returns every stored profile
func (r *MemoryProfileRepository) List(ctx context.Context) ([]*core.ChannelProfile, error) {
	return r.profiles, nil
}
