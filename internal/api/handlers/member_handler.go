package handlers

import (
	"context"
	"time"

	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/middlewares"
	memberpb "language_exchange_service/pkg/proto/member"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const rpcTimeout = 5 * time.Second

// MemberHandler 处理用户相关的 HTTP 请求
type MemberHandler struct {
	MemberClient memberpb.MemberServiceClient
}

// NewMemberHandler 创建新的 MemberHandler
func NewMemberHandler(memberClient memberpb.MemberServiceClient) *MemberHandler {
	return &MemberHandler{
		MemberClient: memberClient,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email             string   `json:"email" example:"ana@example.com"`
	Password          string   `json:"password" example:"!Password123"`
	DisplayName       string   `json:"display_name" example:"Ana"`
	NativeLanguage    string   `json:"native_language" example:"es"`
	LearningLanguages []string `json:"learning_languages" example:"fr,en"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"!Password123"`
}

// ErrorResponse 错误回应
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ProfileResponse 用户公开资料
type ProfileResponse struct {
	ID                string   `json:"id"`
	Email             string   `json:"email,omitempty"`
	DisplayName       string   `json:"display_name"`
	NativeLanguage    string   `json:"native_language"`
	LearningLanguages []string `json:"learning_languages"`
	Online            bool     `json:"online"`
	LastActive        int64    `json:"last_active,omitempty"`
}

// Register 注册新用户
// @Summary 注册新用户
// @Description 建立帐号与语言档案 (母语 + 学习语言)
// @Tags Members
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册请求"
// @Success 201 {object} map[string]string "member_id"
// @Failure 400 {object} ErrorResponse "请求错误"
// @Failure 409 {object} ErrorResponse "email 已存在"
// @Router /member/register [post]
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	in, err := memberpb.RegisterRequest{
		Email:             req.Email,
		Password:          req.Password,
		DisplayName:       req.DisplayName,
		NativeLanguage:    req.NativeLanguage,
		LearningLanguages: req.LearningLanguages,
	}.ToStruct()
	if err != nil {
		return badRequest(c, "invalid request")
	}

	ctx, cancel := rpcContext(c)
	defer cancel()
	resp, err := h.MemberClient.Register(ctx, in)
	if err != nil {
		return rpcError(c, "Register", err)
	}

	logger.Log.Info("member registered", zap.String("memberID", resp.GetValue()))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"member_id": resp.GetValue(), "message": "register success"})
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户通过邮箱和密码登录, 回传 24h JWT
// @Tags Members
// @Accept json
// @Produce json
// @Param request body LoginRequest true "用户登录信息"
// @Success 200 {object} map[string]string "token"
// @Failure 400 {object} ErrorResponse "请求错误"
// @Failure 401 {object} ErrorResponse "登录失败"
// @Router /member/login [post]
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	in, err := memberpb.LoginRequest{Email: req.Email, Password: req.Password}.ToStruct()
	if err != nil {
		return badRequest(c, "invalid request")
	}

	ctx, cancel := rpcContext(c)
	defer cancel()
	resp, err := h.MemberClient.Login(ctx, in)
	if err != nil {
		return rpcError(c, "Login", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    resp.GetValue(),
		HTTPOnly: true,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return c.JSON(fiber.Map{"token": resp.GetValue(), "message": "login success"})
}

// Logout 用户登出
// @Summary 用户登出
// @Description 注销用户会话
// @Tags Members
// @Produce json
// @Param auth query string false "JWT"
// @Security BearerAuth
// @Success 200 {object} map[string]string "注销成功"
// @Failure 401 {object} ErrorResponse "token 无效"
// @Router /member/logout [post]
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	token, ok := c.Locals(middlewares.TokenRaw).(string)
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "missing token", Code: string(errprocess.CodeAuthentication)})
	}

	ctx, cancel := rpcContext(c)
	defer cancel()
	if _, err := h.MemberClient.Logout(ctx, wrapperspb.String(token)); err != nil {
		return rpcError(c, "Logout", err)
	}

	c.ClearCookie(middlewares.CookieToken)
	return c.JSON(fiber.Map{"message": "logout success"})
}

// FindByEmail 查找用户信息
// @Summary 查找用户信息
// @Description 根据邮箱查找用户公开资料
// @Tags Members
// @Produce json
// @Param email query string true "用户邮箱"
// @Success 200 {object} ProfileResponse "用户信息"
// @Failure 400 {object} ErrorResponse "请求错误"
// @Failure 404 {object} ErrorResponse "未找到用户"
// @Router /member/find [get]
func (h *MemberHandler) FindByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return badRequest(c, "email is required")
	}

	in, err := memberpb.FindRequest{Email: email}.ToStruct()
	if err != nil {
		return badRequest(c, "invalid request")
	}

	ctx, cancel := rpcContext(c)
	defer cancel()
	resp, err := h.MemberClient.FindMember(ctx, in)
	if err != nil {
		return rpcError(c, "FindMember", err)
	}
	return c.JSON(fiber.Map{"user": toProfileResponse(memberpb.ProfileFromStruct(resp))})
}

// Profile 查询语言档案
// @Summary 查询语言档案
// @Description 回传 member_id 的公开资料, 未带 member_id 时回传自己
// @Tags Members
// @Produce json
// @Param member_id query string false "member id"
// @Security BearerAuth
// @Success 200 {object} ProfileResponse "用户信息"
// @Failure 404 {object} ErrorResponse "未找到用户"
// @Router /member/profile [get]
func (h *MemberHandler) Profile(c *fiber.Ctx) error {
	memberID := c.Query("member_id")
	if memberID == "" {
		memberID, _ = middlewares.MemberID(c)
	}

	ctx, cancel := rpcContext(c)
	defer cancel()
	resp, err := h.MemberClient.GetProfile(ctx, wrapperspb.String(memberID))
	if err != nil {
		return rpcError(c, "GetProfile", err)
	}
	return c.JSON(toProfileResponse(memberpb.ProfileFromStruct(resp)))
}

func toProfileResponse(p memberpb.Profile) ProfileResponse {
	out := ProfileResponse{
		ID:                p.ID,
		Email:             p.Email,
		DisplayName:       p.DisplayName,
		NativeLanguage:    p.NativeLanguage,
		LearningLanguages: p.LearningLanguages,
		Online:            p.Online,
	}
	if !p.LastActive.IsZero() {
		out.LastActive = p.LastActive.UnixMilli()
	}
	return out
}

func rpcContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), rpcTimeout)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg, Code: string(errprocess.CodeValidation)})
}

// rpcError grpc status -> http status + error code
func rpcError(c *fiber.Ctx, method string, err error) error {
	st, _ := status.FromError(err)

	httpStatus, code := fiber.StatusInternalServerError, errprocess.CodeInternal
	switch st.Code() {
	case codes.InvalidArgument:
		httpStatus, code = fiber.StatusBadRequest, errprocess.CodeValidation
	case codes.Unauthenticated:
		httpStatus, code = fiber.StatusUnauthorized, errprocess.CodeAuthentication
	case codes.PermissionDenied:
		httpStatus, code = fiber.StatusForbidden, errprocess.CodeAuthorization
	case codes.NotFound:
		httpStatus, code = fiber.StatusNotFound, errprocess.CodeNotFound
	case codes.AlreadyExists:
		httpStatus, code = fiber.StatusConflict, errprocess.CodeConflict
	case codes.Unavailable, codes.DeadlineExceeded:
		httpStatus, code = fiber.StatusServiceUnavailable, errprocess.CodeUnavailable
	}

	if httpStatus >= fiber.StatusInternalServerError {
		logger.Log.Error("member rpc failed", zap.String("method", method), zap.Error(err))
	}
	return c.Status(httpStatus).JSON(ErrorResponse{Error: st.Message(), Code: string(code)})
}
