package store

import (
	"encoding/json"
	"fmt"
	"slices"

	forumModel "wonderwomen/internal/domain/forum/model"
	notifyModel "wonderwomen/internal/domain/notification/model"
	userModel "wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/pkg/apperr"
)

// Key 文档中的集合名
type Key string

const (
	KeyUsers              Key = "users"
	KeyForumPosts         Key = "forum_posts"
	KeyProducts           Key = "products"
	KeyCourses            Key = "courses"
	KeyOrders             Key = "orders"
	KeyEnrollments        Key = "enrollments"
	KeyMentorshipRequests Key = "mentorship_requests"
	KeyMessages           Key = "messages"
	KeyMeetings           Key = "meetings"
	KeyFeedbacks          Key = "feedbacks"
	KeyNotifications      Key = "notifications"
	KeyAnnouncements      Key = "announcements"
	KeyCategories         Key = "categories"
)

// Keys 所有集合，顺序与持久化布局一致
var Keys = []Key{
	KeyUsers, KeyForumPosts, KeyProducts, KeyCourses, KeyOrders, KeyEnrollments,
	KeyMentorshipRequests, KeyMessages, KeyMeetings, KeyFeedbacks,
	KeyNotifications, KeyAnnouncements, KeyCategories,
}

// ParseKey 校验集合名
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !slices.Contains(Keys, k) {
		return "", apperr.NotFound("collection", s)
	}
	return k, nil
}

// Record 没有独立模型的扁平记录（商品、课程、订单等），原样保存
type Record map[string]any

// Document 应用的完整状态
// 值语义：所有变更都产生新的 Document，旧快照中的切片不会被原地修改
type Document struct {
	Users              []userModel.User           `json:"users"`
	ForumPosts         []forumModel.Post          `json:"forum_posts"`
	Products           []Record                   `json:"products"`
	Courses            []Record                   `json:"courses"`
	Orders             []Record                   `json:"orders"`
	Enrollments        []Record                   `json:"enrollments"`
	MentorshipRequests []Record                   `json:"mentorship_requests"`
	Messages           []Record                   `json:"messages"`
	Meetings           []Record                   `json:"meetings"`
	Feedbacks          []Record                   `json:"feedbacks"`
	Notifications      []notifyModel.Notification `json:"notifications"`
	Announcements      []notifyModel.Announcement `json:"announcements"`
	Categories         []string                   `json:"categories"`
}

// Collection 返回集合的浅拷贝
func (d Document) Collection(key Key) (any, error) {
	switch key {
	case KeyUsers:
		return slices.Clone(d.Users), nil
	case KeyForumPosts:
		return slices.Clone(d.ForumPosts), nil
	case KeyProducts:
		return slices.Clone(d.Products), nil
	case KeyCourses:
		return slices.Clone(d.Courses), nil
	case KeyOrders:
		return slices.Clone(d.Orders), nil
	case KeyEnrollments:
		return slices.Clone(d.Enrollments), nil
	case KeyMentorshipRequests:
		return slices.Clone(d.MentorshipRequests), nil
	case KeyMessages:
		return slices.Clone(d.Messages), nil
	case KeyMeetings:
		return slices.Clone(d.Meetings), nil
	case KeyFeedbacks:
		return slices.Clone(d.Feedbacks), nil
	case KeyNotifications:
		return slices.Clone(d.Notifications), nil
	case KeyAnnouncements:
		return slices.Clone(d.Announcements), nil
	case KeyCategories:
		return slices.Clone(d.Categories), nil
	}
	return nil, apperr.NotFound("collection", string(key))
}

// With 返回替换了指定集合的新文档
// value 可以是集合对应的切片类型，也可以是 JSON（json.RawMessage / []byte）
func (d Document) With(key Key, value any) (Document, error) {
	var err error
	switch key {
	case KeyUsers:
		err = assign(&d.Users, key, value)
	case KeyForumPosts:
		err = assign(&d.ForumPosts, key, value)
	case KeyProducts:
		err = assign(&d.Products, key, value)
	case KeyCourses:
		err = assign(&d.Courses, key, value)
	case KeyOrders:
		err = assign(&d.Orders, key, value)
	case KeyEnrollments:
		err = assign(&d.Enrollments, key, value)
	case KeyMentorshipRequests:
		err = assign(&d.MentorshipRequests, key, value)
	case KeyMessages:
		err = assign(&d.Messages, key, value)
	case KeyMeetings:
		err = assign(&d.Meetings, key, value)
	case KeyFeedbacks:
		err = assign(&d.Feedbacks, key, value)
	case KeyNotifications:
		err = assign(&d.Notifications, key, value)
	case KeyAnnouncements:
		err = assign(&d.Announcements, key, value)
	case KeyCategories:
		err = assign(&d.Categories, key, value)
	default:
		return Document{}, apperr.NotFound("collection", string(key))
	}
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

// normalize 把 nil 集合替换成空切片，保证序列化为 []
func (d Document) normalize() Document {
	d.Users = orEmpty(d.Users)
	d.ForumPosts = orEmpty(d.ForumPosts)
	d.Products = orEmpty(d.Products)
	d.Courses = orEmpty(d.Courses)
	d.Orders = orEmpty(d.Orders)
	d.Enrollments = orEmpty(d.Enrollments)
	d.MentorshipRequests = orEmpty(d.MentorshipRequests)
	d.Messages = orEmpty(d.Messages)
	d.Meetings = orEmpty(d.Meetings)
	d.Feedbacks = orEmpty(d.Feedbacks)
	d.Notifications = orEmpty(d.Notifications)
	d.Announcements = orEmpty(d.Announcements)
	d.Categories = orEmpty(d.Categories)
	return d
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func assign[T any](dst *[]T, key Key, value any) error {
	switch v := value.(type) {
	case []T:
		*dst = slices.Clone(v)
		if *dst == nil {
			*dst = []T{}
		}
	case json.RawMessage:
		return decodeInto(dst, key, v)
	case []byte:
		return decodeInto(dst, key, v)
	case nil:
		*dst = []T{}
	default:
		return apperr.Validation(string(key), fmt.Sprintf("expected %T, got %T", *dst, value))
	}
	return nil
}

func decodeInto[T any](dst *[]T, key Key, data []byte) error {
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return apperr.Validation(string(key), "invalid collection: "+err.Error())
	}
	if out == nil {
		out = []T{}
	}
	*dst = out
	return nil
}
