package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"wonderwomen/internal/domain/notification/model"
	"wonderwomen/internal/domain/notification/repository"
	userModel "wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/pkg/metrics"
	baseModel "wonderwomen/pkg/model"

	"github.com/samber/lo"
)

// 公告通知中正文的最大长度（按字符计）
const previewRunes = 50

type NotificationService interface {
	ListForUser(userID baseModel.ID, unreadOnly bool) []model.Notification
	UnreadCount(userID baseModel.ID) int
	MarkRead(ctx context.Context, userID, notificationID baseModel.ID) (*model.Notification, error)

	Announcements(limit int) []model.Announcement
	Broadcast(ctx context.Context, text string, actor baseModel.Actor) (*model.Announcement, int, error) // 返回公告和通知数量
}

type notificationService struct {
	repo  repository.NotificationRepository
	ids   baseModel.IDGenerator
	clock baseModel.Clock
}

func NewNotificationService(repo repository.NotificationRepository, ids baseModel.IDGenerator, clock baseModel.Clock) NotificationService {
	if ids == nil {
		ids = baseModel.UUIDGenerator{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &notificationService{repo: repo, ids: ids, clock: clock}
}

func (s *notificationService) ListForUser(userID baseModel.ID, unreadOnly bool) []model.Notification {
	return lo.Filter(s.repo.Notifications(), func(n model.Notification, _ int) bool {
		return n.UserID == userID && (!unreadOnly || !n.Read)
	})
}

func (s *notificationService) UnreadCount(userID baseModel.ID) int {
	return lo.CountBy(s.repo.Notifications(), func(n model.Notification) bool {
		return n.UserID == userID && !n.Read
	})
}

// MarkRead 只有接收者可以标记已读，重复标记无副作用
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID baseModel.ID) (*model.Notification, error) {
	var marked model.Notification
	_, err := s.repo.Mutate(ctx, "notification.mark_read", func(st repository.State) (repository.State, error) {
		n, i, ok := lo.FindIndexOf(st.Notifications, func(n model.Notification) bool {
			return n.ID == notificationID
		})
		if !ok {
			return st, apperr.NotFound("notification", notificationID.String())
		}
		if n.UserID != userID {
			return st, fmt.Errorf("notification %s belongs to another user: %w", notificationID, apperr.ErrForbidden)
		}
		n.Read = true
		marked = n
		st.Notifications = slices.Clone(st.Notifications)
		st.Notifications[i] = n
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return &marked, nil
}

// Announcements 最新的公告在前，limit <= 0 返回全部
func (s *notificationService) Announcements(limit int) []model.Announcement {
	list := s.repo.Announcements()
	out := make([]model.Announcement, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Broadcast 发布公告并通知所有用户
func (s *notificationService) Broadcast(ctx context.Context, text string, actor baseModel.Actor) (*model.Announcement, int, error) {
	if actor.Role != string(userModel.RoleAdmin) {
		return nil, 0, fmt.Errorf("only admins can broadcast: %w", apperr.ErrForbidden)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, 0, apperr.Validation("text", "announcement text is required")
	}

	now := s.clock()
	announcement := model.Announcement{
		ID:   s.ids.NewID(),
		Text: text,
		Date: now.UTC().Format(time.DateOnly),
	}
	preview := "New announcement: " + truncate(text, previewRunes) + "..."

	var sent int
	_, err := s.repo.Mutate(ctx, "notification.broadcast", func(st repository.State) (repository.State, error) {
		fanout := lo.Map(st.Users, func(u userModel.User, _ int) model.Notification {
			return model.Notification{
				ID:        s.ids.NewID(),
				UserID:    u.ID,
				Text:      preview,
				Timestamp: baseModel.FormatTime(now),
				Type:      model.TypeAnnouncement,
			}
		})
		st.Announcements = append(slices.Clone(st.Announcements), announcement)
		st.Notifications = append(slices.Clone(st.Notifications), fanout...)
		sent = len(fanout)
		return st, nil
	})
	if err != nil {
		return nil, 0, err
	}
	metrics.RecordNotifications(string(model.TypeAnnouncement), sent)
	return &announcement, sent, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
