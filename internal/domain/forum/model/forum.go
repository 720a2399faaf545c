package model

import baseModel "wonderwomen/pkg/model"

const (
	CategoryAll     = "All"
	CategoryGeneral = "General"
)

// Post 论坛帖子
type Post struct {
	ID           baseModel.ID   `json:"id"`
	Title        string         `json:"title"`
	Category     string         `json:"category"`
	Content      string         `json:"content"`
	Tags         []string       `json:"tags,omitempty"`
	AuthorID     baseModel.ID   `json:"authorId"`
	AuthorName   string         `json:"authorName"`
	Timestamp    string         `json:"timestamp"`
	Likes        int            `json:"likes"`
	LikedBy      []baseModel.ID `json:"likedBy"`
	IsFlagged    bool           `json:"isFlagged"`
	ReportReason string         `json:"reportReason,omitempty"`
	ReportedBy   *baseModel.ID  `json:"reportedBy,omitempty"`
	ReportedAt   string         `json:"reportedAt,omitempty"`

	// 回复树，按时间顺序排列
	Replies []Reply `json:"replies"`
}

// Reply 回复（递归结构）
// ParentReplyID 为空表示直接回复帖子，位于 Post.Replies；否则位于某个祖先回复的 Replies
type Reply struct {
	ID            baseModel.ID  `json:"id"`
	AuthorID      baseModel.ID  `json:"authorId"`
	AuthorName    string        `json:"authorName"`
	Content       string        `json:"content"`
	Timestamp     string        `json:"timestamp"`
	ParentReplyID *baseModel.ID `json:"parentReplyId"`
	Replies       []Reply       `json:"replies"`
}

// Filter 帖子列表过滤条件
type Filter struct {
	Category       string
	Query          string
	IncludeFlagged bool
}
