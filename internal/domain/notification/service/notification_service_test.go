package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"wonderwomen/internal/domain/notification/model"
	"wonderwomen/internal/domain/notification/repository"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/internal/store"
	"wonderwomen/internal/store/kv"
	baseModel "wonderwomen/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = `{
  "users": [
    {"id": 1, "username": "admin", "name": "Admin", "role": "admin"},
    {"id": 2, "username": "maya", "name": "Maya", "role": "mentor"},
    {"id": 3, "username": "lia", "name": "Lia", "role": "mentee"}
  ],
  "notifications": [
    {"id": "n1", "userId": 2, "text": "a", "read": false, "type": "like"},
    {"id": "n2", "userId": 2, "text": "b", "read": true, "type": "reply"},
    {"id": "n3", "userId": 3, "text": "c", "read": false, "type": "like"}
  ],
  "announcements": [{"id": "a1", "text": "first", "date": "2024-01-01"}]
}`

var now = time.Date(2024, 3, 8, 23, 30, 0, 0, time.UTC)

func newService(t *testing.T) (NotificationService, *store.Store) {
	t.Helper()
	s := store.New(kv.NewMemory(), store.WithSeed([]byte(seed)))
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	svc := NewNotificationService(repository.NewNotificationRepository(s),
		baseModel.NewSequenceGenerator("x"), func() time.Time { return now })
	return svc, s
}

func TestListAndCount(t *testing.T) {
	svc, _ := newService(t)

	assert.Len(t, svc.ListForUser("2", false), 2)
	unread := svc.ListForUser("2", true)
	require.Len(t, unread, 1)
	assert.Equal(t, baseModel.ID("n1"), unread[0].ID)
	assert.Equal(t, 1, svc.UnreadCount("2"))
	assert.Equal(t, 0, svc.UnreadCount("1"))
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("recipient marks read", func(t *testing.T) {
		svc, s := newService(t)
		n, err := svc.MarkRead(ctx, "2", "n1")
		require.NoError(t, err)
		assert.True(t, n.Read)
		assert.Equal(t, 0, svc.UnreadCount("2"))
		assert.True(t, s.Snapshot().Notifications[0].Read)
		assert.Equal(t, "a", s.Snapshot().Notifications[0].Text, "only read flips")
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		svc, s := newService(t)
		_, err := svc.MarkRead(ctx, "3", "n1")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		assert.False(t, s.Snapshot().Notifications[0].Read)
	})

	t.Run("unknown notification", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.MarkRead(ctx, "2", "nope")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()
	admin := baseModel.Actor{ID: "1", Name: "Admin", Role: "admin"}

	t.Run("fans out to every user with unique ids", func(t *testing.T) {
		svc, s := newService(t)
		text := strings.Repeat("é", 60)

		a, sent, err := svc.Broadcast(ctx, "  "+text+"  ", admin)
		require.NoError(t, err)
		assert.Equal(t, 3, sent)
		assert.Equal(t, text, a.Text)
		assert.Equal(t, "2024-03-08", a.Date)

		doc := s.Snapshot()
		require.Len(t, doc.Announcements, 2)
		require.Len(t, doc.Notifications, 6)

		seen := map[baseModel.ID]bool{a.ID: true}
		for _, n := range doc.Notifications {
			assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
			seen[n.ID] = true
		}
		fanout := doc.Notifications[3:]
		for i, uid := range []baseModel.ID{"1", "2", "3"} {
			assert.Equal(t, uid, fanout[i].UserID)
			assert.Equal(t, model.TypeAnnouncement, fanout[i].Type)
			assert.Equal(t, "New announcement: "+strings.Repeat("é", 50)+"...", fanout[i].Text)
			assert.False(t, fanout[i].Read)
		}

		latest := svc.Announcements(1)
		require.Len(t, latest, 1)
		assert.Equal(t, a.ID, latest[0].ID)
	})

	t.Run("short text", func(t *testing.T) {
		svc, s := newService(t)
		_, _, err := svc.Broadcast(ctx, "Meetup Friday", admin)
		require.NoError(t, err)
		assert.Equal(t, "New announcement: Meetup Friday...", s.Snapshot().Notifications[3].Text)
	})

	t.Run("empty text", func(t *testing.T) {
		svc, s := newService(t)
		_, _, err := svc.Broadcast(ctx, "   ", admin)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Len(t, s.Snapshot().Announcements, 1)
	})

	t.Run("non admin", func(t *testing.T) {
		svc, _ := newService(t)
		_, _, err := svc.Broadcast(ctx, "hi", baseModel.Actor{ID: "2", Role: "mentor"})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}
