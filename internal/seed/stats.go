package seed

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Counter reports a table's row count, zero when unavailable.
type Counter interface {
	Count(ctx context.Context) int64
}

// Stats holds per-table row counts.
type Stats struct {
	Users    int64
	Posts    int64
	Comments int64
}

// Empty reports whether every table is empty.
func (s Stats) Empty() bool {
	return s.Users == 0 && s.Posts == 0 && s.Comments == 0
}

// CollectStats runs the three counts in parallel. Counters degrade to zero,
// so no goroutine fails.
func CollectStats(ctx context.Context, users, posts, comments Counter) Stats {
	var stats Stats
	var group errgroup.Group
	group.Go(func() error {
		stats.Users = users.Count(ctx)
		return nil
	})
	group.Go(func() error {
		stats.Posts = posts.Count(ctx)
		return nil
	})
	group.Go(func() error {
		stats.Comments = comments.Count(ctx)
		return nil
	})
	_ = group.Wait()
	return stats
}
