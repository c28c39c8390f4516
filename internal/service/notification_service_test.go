package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

type mapCache struct {
	mu          sync.Mutex
	counts      map[string]int64
	invalidated int
}

func (c *mapCache) Get(_ context.Context, userID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[userID]
	return n, ok, nil
}

func (c *mapCache) Set(_ context.Context, userID string, count int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[userID] = count
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, userID)
	c.invalidated++
	return nil
}

func TestNotificationInboxReadFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := &mapCache{counts: map[string]int64{}}
	inbox := NewNotificationService(NotificationDependencies{Repos: f.repos, Cache: cache})

	f.createTicket(t, "one", f.emptyCategory.ID)
	f.createTicket(t, "two", f.emptyCategory.ID)

	count, err := inbox.UnreadCount(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.EqualValues(t, 2, cache.counts[f.admin.ID])

	items, err := inbox.List(ctx, f.admin.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Message, "created (Unassigned)")

	require.NoError(t, inbox.MarkRead(ctx, f.admin.ID, items[0].ID))
	assert.Equal(t, 1, cache.invalidated)

	count, err = inbox.UnreadCount(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMarkReadRejectsForeignNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTicket(t, "one", f.emptyCategory.ID)
	items := f.inbox(t, f.admin.ID)
	require.Len(t, items, 1)

	err := f.notifications.MarkRead(ctx, f.customer.ID, items[0].ID)

	assert.True(t, apperrors.IsNotFound(err))
}
