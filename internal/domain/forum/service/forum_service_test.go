package service

import (
	"context"
	"testing"

	"wonderwomen/internal/domain/forum/model"
	"wonderwomen/internal/domain/forum/repository"
	notifyModel "wonderwomen/internal/domain/notification/model"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/internal/store"
	"wonderwomen/internal/store/kv"
	baseModel "wonderwomen/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockForumRepository 在内存中执行 Mutate，记录调用
type MockForumRepository struct {
	mock.Mock
	state repository.State
}

func (m *MockForumRepository) Posts() []model.Post {
	m.Called()
	return m.state.Posts
}

func (m *MockForumRepository) Mutate(ctx context.Context, op string, fn func(repository.State) (repository.State, error)) (repository.State, error) {
	args := m.Called(op)
	if err := args.Error(0); err != nil {
		return m.state, err
	}
	next, err := fn(m.state)
	if err != nil {
		return m.state, err
	}
	m.state = next
	return next, nil
}

func TestForumServiceWithMock(t *testing.T) {
	ctx := context.Background()

	t.Run("like commits post and notification together", func(t *testing.T) {
		repo := &MockForumRepository{state: repository.State{Posts: samplePosts()}}
		repo.On("Mutate", "forum.toggle_like").Return(nil)
		svc := NewForumService(repo, newEngine())

		post, liked, err := svc.ToggleLike(ctx, "1", actor("7", "Kim"))
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, post.Likes)
		require.Len(t, repo.state.Notifications, 1)
		assert.Equal(t, notifyModel.TypeLike, repo.state.Notifications[0].Type)
		repo.AssertExpectations(t)
	})

	t.Run("validation error leaves state untouched", func(t *testing.T) {
		repo := &MockForumRepository{state: repository.State{Posts: samplePosts()}}
		repo.On("Mutate", "forum.add_reply").Return(nil)
		svc := NewForumService(repo, newEngine())

		_, err := svc.AddReply(ctx, "1", "", nil, actor("7", "Kim"))
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, samplePosts(), repo.state.Posts)
		assert.Empty(t, repo.state.Notifications)
	})

	t.Run("get and list", func(t *testing.T) {
		repo := &MockForumRepository{state: repository.State{Posts: samplePosts()}}
		repo.On("Posts").Return()
		svc := NewForumService(repo, newEngine())

		post, err := svc.GetPost("2")
		require.NoError(t, err)
		assert.Equal(t, "Learning Go", post.Title)

		_, err = svc.GetPost("404")
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		assert.Len(t, svc.ListPosts(model.Filter{Category: "Business"}), 1)
		assert.Empty(t, svc.FlaggedPosts())
		repo.AssertNumberOfCalls(t, "Posts", 4)
	})
}

const forumSeed = `{
  "users": [],
  "forum_posts": [
    {"id": 1, "title": "Welcome", "category": "General", "content": "Hi", "authorId": 5, "authorName": "Ana",
     "likes": 0, "likedBy": [], "isFlagged": false,
     "replies": [{"id": 11, "authorId": 9, "authorName": "Zoe", "content": "hello", "parentReplyId": null, "replies": []}]}
  ],
  "notifications": [{"id": 90, "userId": 5, "text": "old", "read": false, "postId": 1, "type": "like"}]
}`

func newStoreService(t *testing.T) (ForumService, *store.Store, kv.Storage) {
	t.Helper()
	storage := kv.NewMemory()
	s := store.New(storage, store.WithSeed([]byte(forumSeed)))
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return NewForumService(repository.NewForumRepository(s), newEngine()), s, storage
}

func TestForumServiceWithStore(t *testing.T) {
	ctx := context.Background()

	t.Run("nested reply persists with its notification", func(t *testing.T) {
		svc, s, storage := newStoreService(t)

		post, err := svc.AddReply(ctx, "1", "nice", idPtr("11"), actor("3", "Lia"))
		require.NoError(t, err)
		require.Len(t, post.Replies[0].Replies, 1)

		doc := s.Snapshot()
		require.Len(t, doc.Notifications, 2)
		n := doc.Notifications[1]
		assert.Equal(t, baseModel.ID("9"), n.UserID)
		assert.Equal(t, notifyModel.TypeCommentReply, n.Type)

		reloaded := store.New(storage, store.WithSeed([]byte(forumSeed)))
		got, err := reloaded.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, doc.ForumPosts, got.ForumPosts)
		assert.Equal(t, doc.Notifications, got.Notifications)
	})

	t.Run("create post", func(t *testing.T) {
		svc, s, _ := newStoreService(t)
		post, err := svc.CreatePost(ctx, CreatePostInput{Title: "New", Content: "Body", Category: "Tech"}, actor("3", "Lia"))
		require.NoError(t, err)
		assert.Equal(t, post.ID, s.Snapshot().ForumPosts[0].ID)
	})

	t.Run("report, unflag and delete", func(t *testing.T) {
		svc, s, _ := newStoreService(t)

		post, err := svc.Report(ctx, "1", "off topic", actor("3", "Lia"))
		require.NoError(t, err)
		assert.True(t, post.IsFlagged)
		assert.Len(t, svc.FlaggedPosts(), 1)
		assert.Empty(t, svc.ListPosts(model.Filter{}))

		post, err = svc.Unflag(ctx, "1")
		require.NoError(t, err)
		assert.False(t, post.IsFlagged)

		require.NoError(t, svc.Delete(ctx, "1"))
		doc := s.Snapshot()
		assert.Empty(t, doc.ForumPosts)
		require.Len(t, doc.Notifications, 1)
		assert.Nil(t, doc.Notifications[0].PostID)

		assert.ErrorIs(t, svc.Delete(ctx, "1"), apperr.ErrNotFound)
	})
}
