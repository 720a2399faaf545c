package repository

import (
	"context"

	"wonderwomen/internal/domain/notification/model"
	userModel "wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/store"
)

// State 通知模块读写的集合
type State struct {
	Users         []userModel.User
	Notifications []model.Notification
	Announcements []model.Announcement
}

type NotificationRepository interface {
	Notifications() []model.Notification
	Announcements() []model.Announcement
	Mutate(ctx context.Context, op string, fn func(State) (State, error)) (State, error)
}

type notificationRepository struct {
	store *store.Store
}

func NewNotificationRepository(s *store.Store) NotificationRepository {
	return &notificationRepository{store: s}
}

func (r *notificationRepository) Notifications() []model.Notification {
	return r.store.Snapshot().Notifications
}

func (r *notificationRepository) Announcements() []model.Announcement {
	return r.store.Snapshot().Announcements
}

// Mutate users 只读，修改会被忽略
func (r *notificationRepository) Mutate(ctx context.Context, op string, fn func(State) (State, error)) (State, error) {
	doc, err := r.store.Update(ctx, op, func(d store.Document) (store.Document, error) {
		next, err := fn(State{Users: d.Users, Notifications: d.Notifications, Announcements: d.Announcements})
		if err != nil {
			return d, err
		}
		d.Notifications = next.Notifications
		d.Announcements = next.Announcements
		return d, nil
	})
	return State{Users: doc.Users, Notifications: doc.Notifications, Announcements: doc.Announcements}, err
}
