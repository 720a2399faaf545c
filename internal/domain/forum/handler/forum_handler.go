package handler

import (
	"errors"
	"net/http"

	"wonderwomen/internal/domain/forum/model"
	"wonderwomen/internal/domain/forum/service"
	"wonderwomen/internal/pkg/apperr"
	"wonderwomen/internal/pkg/middleware"
	baseModel "wonderwomen/pkg/model"
	"wonderwomen/pkg/response"
	"wonderwomen/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ForumHandler struct {
	service service.ForumService
}

func NewForumHandler(s service.ForumService) *ForumHandler {
	return &ForumHandler{service: s}
}

// CreatePostInput 发帖输入
type CreatePostInput struct {
	Title    string   `json:"title" binding:"required"`
	Category string   `json:"category"`
	Content  string   `json:"content" binding:"required"`
	Tags     []string `json:"tags"`
}

// ReplyInput 回复输入
type ReplyInput struct {
	Content       string        `json:"content" binding:"required"`
	ParentReplyID *baseModel.ID `json:"parentReplyId"`
}

// ReportInput 举报输入
type ReportInput struct {
	Reason string `json:"reason" binding:"required"`
}

// ListQuery 帖子列表查询参数
type ListQuery struct {
	utils.Pagination
	Category string `form:"category"`
	Query    string `form:"q"`
}

// PostView 帖子详情，附带回复总数
type PostView struct {
	model.Post
	ReplyCount int `json:"replyCount"`
}

func view(p model.Post) PostView {
	return PostView{Post: p, ReplyCount: service.CountReplies(p)}
}

// ListPosts 帖子列表
func (h *ForumHandler) ListPosts(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	posts := h.service.ListPosts(model.Filter{Category: q.Category, Query: q.Query})
	page := utils.Paginate(posts, &q.Pagination)

	list := make([]PostView, 0, len(page))
	for _, p := range page {
		list = append(list, view(p))
	}
	response.Success(c, utils.PageResult{
		List:  list,
		Total: int64(len(posts)),
		Page:  q.Page,
		Limit: q.Limit,
	})
}

// GetPost 帖子详情
func (h *ForumHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(baseModel.ID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view(*post))
}

// CreatePost 发帖
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), service.CreatePostInput{
		Title:    input.Title,
		Category: input.Category,
		Content:  input.Content,
		Tags:     input.Tags,
	}, middleware.CurrentActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, post)
}

// AddReply 回复帖子或评论
func (h *ForumHandler) AddReply(c *gin.Context) {
	var input ReplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.AddReply(c.Request.Context(), baseModel.ID(c.Param("id")),
		input.Content, input.ParentReplyID, middleware.CurrentActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, view(*post))
}

// ToggleLike 点赞/取消点赞
func (h *ForumHandler) ToggleLike(c *gin.Context) {
	post, liked, err := h.service.ToggleLike(c.Request.Context(), baseModel.ID(c.Param("id")), middleware.CurrentActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"liked": liked,
		"likes": post.Likes,
	})
}

// Report 举报帖子
func (h *ForumHandler) Report(c *gin.Context) {
	var input ReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.Report(c.Request.Context(), baseModel.ID(c.Param("id")), input.Reason, middleware.CurrentActor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, post)
}

// Flagged 待审核帖子 (管理员)
func (h *ForumHandler) Flagged(c *gin.Context) {
	response.Success(c, h.service.FlaggedPosts())
}

// Unflag 取消举报 (管理员)
func (h *ForumHandler) Unflag(c *gin.Context) {
	post, err := h.service.Unflag(c.Request.Context(), baseModel.ID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, post)
}

// Delete 删除帖子 (管理员)
func (h *ForumHandler) Delete(c *gin.Context) {
	id := baseModel.ID(c.Param("id"))
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	middleware.Logger(c).Info("post deleted", zap.String("post_id", id.String()))
	response.Success(c, "success")
}

func (h *ForumHandler) fail(c *gin.Context, err error) {
	code := response.ErrPostNotFound
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) && nf.Kind == "reply" {
		code = response.ErrReplyNotFound
	}
	if !errors.Is(err, apperr.ErrValidation) && !errors.Is(err, apperr.ErrNotFound) {
		middleware.Logger(c).Error("forum request failed", zap.Error(err))
	}
	response.FromError(c, err, code)
}
