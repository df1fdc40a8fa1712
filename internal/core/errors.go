package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every lookup miss
var ErrNotFound = errors.New("not found")

var (
	ErrThreadNotFound  = fmt.Errorf("thread %w", ErrNotFound)
	ErrBrandNotFound   = fmt.Errorf("brand %w", ErrNotFound)
	ErrChannelNotFound = fmt.Errorf("channel %w in API or local database", ErrNotFound)
)
