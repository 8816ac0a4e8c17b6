package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizedraw/internal/models"
)

func TestSessionManager(t *testing.T) {
	manager := NewSessionManager(time.Hour)
	sid := NewSessionID()
	require.NotEmpty(t, sid)

	t.Run("new sessions are not verified", func(t *testing.T) {
		assert.False(t, manager.IsVerified(sid))
		manager.MarkVerified(sid)
		assert.True(t, manager.IsVerified(sid))
		assert.False(t, manager.IsVerified(NewSessionID()))
	})

	t.Run("pending draw is taken once", func(t *testing.T) {
		_, ok := manager.TakePending(sid)
		assert.False(t, ok)

		manager.SetPending(sid, models.PendingDraw{BadgeID: "A"})
		manager.SetPending(sid, models.PendingDraw{BadgeID: "B"})
		assert.Equal(t, "B", manager.Snapshot(sid).Pending.BadgeID)

		pending, ok := manager.TakePending(sid)
		require.True(t, ok)
		assert.Equal(t, "B", pending.BadgeID)

		_, ok = manager.TakePending(sid)
		assert.False(t, ok)
	})

	t.Run("flashes pop once", func(t *testing.T) {
		manager.AddFlash(sid, models.FlashSuccess, "one")
		manager.AddFlash(sid, models.FlashDanger, "two")
		flashes := manager.PopFlashes(sid)
		require.Len(t, flashes, 2)
		assert.Equal(t, models.FlashDanger, flashes[1].Level)
		assert.Empty(t, manager.PopFlashes(sid))
	})

	t.Run("clear session", func(t *testing.T) {
		manager.ClearSession(sid)
		assert.False(t, manager.IsVerified(sid))
	})
}

func TestSessionManager_CleanUpInactiveSessions(t *testing.T) {
	manager := NewSessionManager(time.Hour)
	now := time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	manager.MarkVerified("old")
	now = now.Add(50 * time.Minute)
	manager.MarkVerified("fresh")
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, manager.CleanUpInactiveSessions())
	assert.Equal(t, 1, manager.Len())
	assert.True(t, manager.IsVerified("fresh"))
}

func TestSessionManager_ExpiredSessionIsReplaced(t *testing.T) {
	manager := NewSessionManager(time.Minute)
	now := time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	manager.MarkVerified("sid")
	manager.SetPending("sid", models.PendingDraw{BadgeID: "A"})
	now = now.Add(2 * time.Minute)

	snapshot := manager.Snapshot("sid")
	assert.False(t, snapshot.PINVerified)
	assert.Nil(t, snapshot.Pending)
}
