package service

import (
	"context"

	"wonderwomen/internal/domain/forum/model"
	"wonderwomen/internal/domain/forum/repository"
	notifyModel "wonderwomen/internal/domain/notification/model"
	"wonderwomen/pkg/metrics"
	baseModel "wonderwomen/pkg/model"

	"github.com/samber/lo"
)

type ForumService interface {
	ListPosts(filter model.Filter) []model.Post
	GetPost(postID baseModel.ID) (*model.Post, error)
	FlaggedPosts() []model.Post

	CreatePost(ctx context.Context, input CreatePostInput, actor baseModel.Actor) (*model.Post, error)
	AddReply(ctx context.Context, postID baseModel.ID, content string, parentReplyID *baseModel.ID, actor baseModel.Actor) (*model.Post, error)
	ToggleLike(ctx context.Context, postID baseModel.ID, actor baseModel.Actor) (*model.Post, bool, error) // 返回是否为点赞

	Report(ctx context.Context, postID baseModel.ID, reason string, actor baseModel.Actor) (*model.Post, error)
	Unflag(ctx context.Context, postID baseModel.ID) (*model.Post, error)
	Delete(ctx context.Context, postID baseModel.ID) error
}

type CreatePostInput struct {
	Title    string
	Category string
	Content  string
	Tags     []string
}

type forumService struct {
	repo   repository.ForumRepository
	engine *ThreadEngine
}

func NewForumService(repo repository.ForumRepository, engine *ThreadEngine) ForumService {
	return &forumService{repo: repo, engine: engine}
}

func (s *forumService) ListPosts(filter model.Filter) []model.Post {
	return ListPosts(s.repo.Posts(), filter)
}

func (s *forumService) GetPost(postID baseModel.ID) (*model.Post, error) {
	post, _, err := findPost(s.repo.Posts(), postID)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *forumService) FlaggedPosts() []model.Post {
	return FlaggedPosts(s.repo.Posts())
}

func (s *forumService) CreatePost(ctx context.Context, input CreatePostInput, actor baseModel.Actor) (*model.Post, error) {
	var created model.Post
	_, err := s.repo.Mutate(ctx, "forum.create_post", func(st repository.State) (repository.State, error) {
		posts, post, err := s.engine.CreatePost(st.Posts, input.Title, input.Category, input.Content, input.Tags, actor)
		if err != nil {
			return st, err
		}
		created = post
		st.Posts = posts
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *forumService) AddReply(ctx context.Context, postID baseModel.ID, content string, parentReplyID *baseModel.ID, actor baseModel.Actor) (*model.Post, error) {
	st, err := s.repo.Mutate(ctx, "forum.add_reply", func(st repository.State) (repository.State, error) {
		posts, n, err := s.engine.AddReply(st.Posts, postID, content, parentReplyID, actor)
		if err != nil {
			return st, err
		}
		st.Posts = posts
		st.Notifications = appendNotification(st.Notifications, n)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return s.pick(st.Posts, postID)
}

func (s *forumService) ToggleLike(ctx context.Context, postID baseModel.ID, actor baseModel.Actor) (*model.Post, bool, error) {
	st, err := s.repo.Mutate(ctx, "forum.toggle_like", func(st repository.State) (repository.State, error) {
		posts, n, err := s.engine.ToggleLike(st.Posts, postID, actor)
		if err != nil {
			return st, err
		}
		st.Posts = posts
		st.Notifications = appendNotification(st.Notifications, n)
		return st, nil
	})
	if err != nil {
		return nil, false, err
	}
	post, err := s.pick(st.Posts, postID)
	if err != nil {
		return nil, false, err
	}
	return post, lo.Contains(post.LikedBy, actor.ID), nil
}

func (s *forumService) Report(ctx context.Context, postID baseModel.ID, reason string, actor baseModel.Actor) (*model.Post, error) {
	st, err := s.repo.Mutate(ctx, "forum.report", func(st repository.State) (repository.State, error) {
		posts, err := s.engine.Report(st.Posts, postID, reason, actor.ID)
		if err != nil {
			return st, err
		}
		st.Posts = posts
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return s.pick(st.Posts, postID)
}

func (s *forumService) Unflag(ctx context.Context, postID baseModel.ID) (*model.Post, error) {
	st, err := s.repo.Mutate(ctx, "forum.unflag", func(st repository.State) (repository.State, error) {
		posts, err := s.engine.Unflag(st.Posts, postID)
		if err != nil {
			return st, err
		}
		st.Posts = posts
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return s.pick(st.Posts, postID)
}

func (s *forumService) Delete(ctx context.Context, postID baseModel.ID) error {
	_, err := s.repo.Mutate(ctx, "forum.delete", func(st repository.State) (repository.State, error) {
		posts, err := s.engine.Delete(st.Posts, postID)
		if err != nil {
			return st, err
		}
		st.Posts = posts
		st.Notifications = DetachPost(st.Notifications, postID)
		return st, nil
	})
	return err
}

func (s *forumService) pick(posts []model.Post, postID baseModel.ID) (*model.Post, error) {
	post, _, err := findPost(posts, postID)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func appendNotification(list []notifyModel.Notification, n *notifyModel.Notification) []notifyModel.Notification {
	if n == nil {
		return list
	}
	metrics.RecordNotifications(string(n.Type), 1)
	out := make([]notifyModel.Notification, 0, len(list)+1)
	out = append(out, list...)
	return append(out, *n)
}
