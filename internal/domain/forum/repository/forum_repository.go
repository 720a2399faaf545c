package repository

import (
	"context"

	"wonderwomen/internal/domain/forum/model"
	notifyModel "wonderwomen/internal/domain/notification/model"
	"wonderwomen/internal/store"
)

// State 论坛变更涉及的集合，帖子与其产生的通知一起提交
type State struct {
	Posts         []model.Post
	Notifications []notifyModel.Notification
}

type ForumRepository interface {
	Posts() []model.Post
	Mutate(ctx context.Context, op string, fn func(State) (State, error)) (State, error)
}

type forumRepository struct {
	store *store.Store
}

func NewForumRepository(s *store.Store) ForumRepository {
	return &forumRepository{store: s}
}

func (r *forumRepository) Posts() []model.Post {
	return r.store.Snapshot().ForumPosts
}

func (r *forumRepository) Mutate(ctx context.Context, op string, fn func(State) (State, error)) (State, error) {
	doc, err := r.store.Update(ctx, op, func(d store.Document) (store.Document, error) {
		next, err := fn(State{Posts: d.ForumPosts, Notifications: d.Notifications})
		if err != nil {
			return d, err
		}
		d.ForumPosts = next.Posts
		d.Notifications = next.Notifications
		return d, nil
	})
	return State{Posts: doc.ForumPosts, Notifications: doc.Notifications}, err
}
