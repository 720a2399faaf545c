package handler

import (
	"errors"
	"net/http"

	"wonderwomen/internal/domain/user/model"
	"wonderwomen/internal/domain/user/service"
	"wonderwomen/internal/pkg/middleware"
	baseModel "wonderwomen/pkg/model"
	"wonderwomen/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// SignupInput 注册输入
type SignupInput struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	Role            string `json:"role" binding:"required,oneof=mentor mentee entrepreneur"`
	Bio             string `json:"bio"`
}

// LoginInput 登录输入
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup 处理注册请求
func (h *UserHandler) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Signup(c.Request.Context(), service.SignupInput{
		Username: input.Username,
		Password: input.Password,
		Name:     input.Name,
		Email:    input.Email,
		Role:     model.Role(input.Role),
		Bio:      input.Bio,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// Login 处理登录请求
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 注销
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "success")
}

// Me 当前会话用户
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.service.Current(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "no active session")
		return
	}
	response.Success(c, u)
}

// GetUsers 用户列表 (管理员)，?role=mentor 过滤
func (h *UserHandler) GetUsers(c *gin.Context) {
	response.Success(c, h.service.GetUsers(model.Role(c.Query("role"))))
}

// GetUser 获取单个用户
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(baseModel.ID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

// Approve 审核导师 (管理员)
func (h *UserHandler) Approve(c *gin.Context) {
	user, err := h.service.Approve(c.Request.Context(), baseModel.ID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

// Ban 封禁用户 (管理员)
func (h *UserHandler) Ban(c *gin.Context) {
	user, err := h.service.Ban(c.Request.Context(), baseModel.ID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
	case errors.Is(err, service.ErrAccountBanned):
		response.Error(c, http.StatusForbidden, response.ErrUserBanned, err.Error())
	default:
		middleware.Logger(c).Debug("user request failed", zap.Error(err))
		response.FromError(c, err, response.ErrUserNotFound)
	}
}
