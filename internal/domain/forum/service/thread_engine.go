package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"wonderwomen/internal/domain/forum/model"
	notifyModel "wonderwomen/internal/domain/notification/model"
	"wonderwomen/internal/pkg/apperr"
	baseModel "wonderwomen/pkg/model"

	"github.com/samber/lo"
)

// ThreadEngine 论坛帖子与回复树的纯函数操作
// 所有方法都不修改入参，返回新的切片；被修改路径上的每个节点都会被复制
type ThreadEngine struct {
	ids   baseModel.IDGenerator
	clock baseModel.Clock
}

func NewThreadEngine(ids baseModel.IDGenerator, clock baseModel.Clock) *ThreadEngine {
	if ids == nil {
		ids = baseModel.UUIDGenerator{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &ThreadEngine{ids: ids, clock: clock}
}

func (e *ThreadEngine) now() string {
	return baseModel.FormatTime(e.clock())
}

func (e *ThreadEngine) notify(recipient baseModel.ID, typ notifyModel.Type, postID baseModel.ID, text string) *notifyModel.Notification {
	return &notifyModel.Notification{
		ID:        e.ids.NewID(),
		UserID:    recipient,
		Text:      text,
		Timestamp: e.now(),
		PostID:    baseModel.IDPtr(postID),
		Type:      typ,
	}
}

func findPost(posts []model.Post, postID baseModel.ID) (model.Post, int, error) {
	p, i, ok := lo.FindIndexOf(posts, func(p model.Post) bool {
		return p.ID == postID
	})
	if !ok {
		return model.Post{}, -1, apperr.NotFound("post", postID.String())
	}
	return p, i, nil
}

func withPost(posts []model.Post, i int, p model.Post) []model.Post {
	out := slices.Clone(posts)
	out[i] = p
	return out
}

// CreatePost 发布新帖，新帖排在最前
func (e *ThreadEngine) CreatePost(posts []model.Post, title, category, content string, tags []string, actor baseModel.Actor) ([]model.Post, model.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return posts, model.Post{}, apperr.Validation("title", "title is required")
	}
	if content == "" {
		return posts, model.Post{}, apperr.Validation("content", "content is required")
	}
	category = strings.TrimSpace(category)
	if category == "" || category == model.CategoryAll {
		category = model.CategoryGeneral
	}
	tags = lo.Uniq(lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	}))

	post := model.Post{
		ID:         e.ids.NewID(),
		Title:      title,
		Category:   category,
		Content:    content,
		Tags:       tags,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Timestamp:  e.now(),
		LikedBy:    []baseModel.ID{},
		Replies:    []model.Reply{},
	}

	out := make([]model.Post, 0, len(posts)+1)
	out = append(out, post)
	return append(out, posts...), post, nil
}

// AddReply 回复帖子，parentReplyID 不为空时回复指定评论（任意深度）
// 回复他人时返回一条通知
func (e *ThreadEngine) AddReply(posts []model.Post, postID baseModel.ID, content string, parentReplyID *baseModel.ID, actor baseModel.Actor) ([]model.Post, *notifyModel.Notification, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return posts, nil, apperr.Validation("content", "empty reply")
	}
	post, i, err := findPost(posts, postID)
	if err != nil {
		return posts, nil, err
	}

	node := model.Reply{
		ID:         e.ids.NewID(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Content:    content,
		Timestamp:  e.now(),
		Replies:    []model.Reply{},
	}

	if parentReplyID == nil || parentReplyID.IsZero() {
		post.Replies = append(slices.Clone(post.Replies), node)

		var n *notifyModel.Notification
		if post.AuthorID != actor.ID {
			n = e.notify(post.AuthorID, notifyModel.TypeReply, post.ID,
				fmt.Sprintf("%s replied to your post: \"%s\"", actor.Name, post.Title))
		}
		return withPost(posts, i, post), n, nil
	}

	parentID := *parentReplyID
	node.ParentReplyID = &parentID
	replies, parent := insertReply(post.Replies, parentID, node)
	if parent == nil {
		return posts, nil, apperr.NotFound("reply", parentID.String())
	}
	post.Replies = replies

	var n *notifyModel.Notification
	if parent.AuthorID != actor.ID {
		n = e.notify(parent.AuthorID, notifyModel.TypeCommentReply, post.ID,
			fmt.Sprintf("%s replied to your comment", actor.Name))
	}
	return withPost(posts, i, post), n, nil
}

// insertReply 深度优先查找 parentID，把 node 追加到其 Replies
// 返回新的回复列表和找到的父节点；没找到时父节点为 nil，replies 原样返回
func insertReply(replies []model.Reply, parentID baseModel.ID, node model.Reply) ([]model.Reply, *model.Reply) {
	for i, r := range replies {
		if r.ID == parentID {
			r.Replies = append(slices.Clone(r.Replies), node)
			out := slices.Clone(replies)
			out[i] = r
			return out, &r
		}
		if children, parent := insertReply(r.Replies, parentID, node); parent != nil {
			r.Replies = children
			out := slices.Clone(replies)
			out[i] = r
			return out, parent
		}
	}
	return replies, nil
}

// ToggleLike 点赞/取消点赞
// likedBy 去重后重新计算 likes，历史数据不一致时也能恢复
func (e *ThreadEngine) ToggleLike(posts []model.Post, postID baseModel.ID, actor baseModel.Actor) ([]model.Post, *notifyModel.Notification, error) {
	post, i, err := findPost(posts, postID)
	if err != nil {
		return posts, nil, err
	}

	likedBy := lo.Uniq(post.LikedBy)
	liked := !lo.Contains(likedBy, actor.ID)
	if liked {
		likedBy = append(likedBy, actor.ID)
	} else {
		likedBy = lo.Without(likedBy, actor.ID)
	}
	post.LikedBy = likedBy
	post.Likes = len(likedBy)

	var n *notifyModel.Notification
	if liked && post.AuthorID != actor.ID {
		n = e.notify(post.AuthorID, notifyModel.TypeLike, post.ID,
			fmt.Sprintf("%s liked your post: \"%s\"", actor.Name, post.Title))
	}
	return withPost(posts, i, post), n, nil
}

// Report 举报帖子
func (e *ThreadEngine) Report(posts []model.Post, postID baseModel.ID, reason string, reporterID baseModel.ID) ([]model.Post, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return posts, apperr.Validation("reason", "report reason is required")
	}
	post, i, err := findPost(posts, postID)
	if err != nil {
		return posts, err
	}
	post.IsFlagged = true
	post.ReportReason = reason
	post.ReportedBy = baseModel.IDPtr(reporterID)
	post.ReportedAt = e.now()
	return withPost(posts, i, post), nil
}

// Unflag 取消举报标记，同时清空举报信息
func (e *ThreadEngine) Unflag(posts []model.Post, postID baseModel.ID) ([]model.Post, error) {
	post, i, err := findPost(posts, postID)
	if err != nil {
		return posts, err
	}
	post.IsFlagged = false
	post.ReportReason = ""
	post.ReportedBy = nil
	post.ReportedAt = ""
	return withPost(posts, i, post), nil
}

// Delete 删除帖子
func (e *ThreadEngine) Delete(posts []model.Post, postID baseModel.ID) ([]model.Post, error) {
	if _, _, err := findPost(posts, postID); err != nil {
		return posts, err
	}
	return lo.Reject(posts, func(p model.Post, _ int) bool {
		return p.ID == postID
	}), nil
}

// DetachPost 清除通知中对已删除帖子的引用
func DetachPost(notifications []notifyModel.Notification, postID baseModel.ID) []notifyModel.Notification {
	return lo.Map(notifications, func(n notifyModel.Notification, _ int) notifyModel.Notification {
		if n.PostID != nil && *n.PostID == postID {
			n.PostID = nil
		}
		return n
	})
}

// ListPosts 按分类和关键字过滤，默认隐藏被举报的帖子
func ListPosts(posts []model.Post, f model.Filter) []model.Post {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	return lo.Filter(posts, func(p model.Post, _ int) bool {
		if p.IsFlagged && !f.IncludeFlagged {
			return false
		}
		if f.Category != "" && f.Category != model.CategoryAll && p.Category != f.Category {
			return false
		}
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Content), query) ||
			lo.ContainsBy(p.Tags, func(t string) bool {
				return strings.Contains(strings.ToLower(t), query)
			})
	})
}

// FlaggedPosts 待审核的帖子
func FlaggedPosts(posts []model.Post) []model.Post {
	return lo.Filter(posts, func(p model.Post, _ int) bool {
		return p.IsFlagged
	})
}

// CountReplies 回复总数（含所有层级）
func CountReplies(post model.Post) int {
	return countReplies(post.Replies)
}

func countReplies(replies []model.Reply) int {
	return lo.SumBy(replies, func(r model.Reply) int {
		return 1 + countReplies(r.Replies)
	})
}

// FindReply 在回复树中查找
func FindReply(post model.Post, replyID baseModel.ID) (model.Reply, bool) {
	return findReply(post.Replies, replyID)
}

func findReply(replies []model.Reply, replyID baseModel.ID) (model.Reply, bool) {
	for _, r := range replies {
		if r.ID == replyID {
			return r, true
		}
		if found, ok := findReply(r.Replies, replyID); ok {
			return found, true
		}
	}
	return model.Reply{}, false
}
