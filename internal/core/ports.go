package core

import (
	"context"
)

// CompletionProvider defines the interface for LLM services with function calling
type CompletionProvider interface {
	// Complete runs one reasoning round over the full message history
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// ThreadRepository stores email threads
type ThreadRepository interface {
	Get(ctx context.Context, threadID string) (*EmailThread, error)
	List(ctx context.Context) ([]*EmailThread, error)
	Save(ctx context.Context, thread *EmailThread) error
}

// BrandRepository provides read-only brand profiles
type BrandRepository interface {
	Get(ctx context.Context, brandID string) (*BrandProfile, error)
}

// ProfileRepository provides locally stored channel profiles
type ProfileRepository interface {
	List(ctx context.Context) ([]*ChannelProfile, error)
}

// ChannelStatsSource queries a live statistics API
type ChannelStatsSource interface {
	// FetchChannel resolves a channel id or @handle
	FetchChannel(ctx context.Context, ref string) (*LiveChannelStats, error)
}

// MetricsCache caches live channel lookups
type MetricsCache interface {
	// Get retrieves an unexpired entry for a channel reference
	Get(ctx context.Context, channelRef string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, channelRef string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// Locker serializes work per key across goroutines or processes
type Locker interface {
	// Lock blocks until the key is held or ctx is done
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Mailer delivers outbound replies
type Mailer interface {
	Send(ctx context.Context, email *OutboundEmail) error
}
