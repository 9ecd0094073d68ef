package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"language_exchange_service/internal/api/handlers"
	"language_exchange_service/internal/api/router"
	"language_exchange_service/pkg/database"
	"language_exchange_service/pkg/logger"
	memberpb "language_exchange_service/pkg/proto/member"
	testtool "language_exchange_service/pkg/test_tool"
	t_token "language_exchange_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// fakeMember member_service 回應固定資料
type fakeMember struct {
	testtool.MockMemberService
	loggedOut string
}

func (f *fakeMember) Register(_ context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	req := memberpb.RegisterRequestFromStruct(in)
	if req.Email == "dup@example.com" {
		return nil, status.Error(codes.AlreadyExists, "email already exists")
	}
	if req.NativeLanguage == "" {
		return nil, status.Error(codes.InvalidArgument, "native language is required")
	}
	return wrapperspb.String("m-1"), nil
}

func (f *fakeMember) Login(_ context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	if memberpb.LoginRequestFromStruct(in).Password != "!Password123" {
		return nil, status.Error(codes.Unauthenticated, "invalid email or password")
	}
	return wrapperspb.String("jwt-m-1"), nil
}

func (f *fakeMember) Logout(_ context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	f.loggedOut = in.GetValue()
	return &emptypb.Empty{}, nil
}

func (f *fakeMember) FindMember(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if memberpb.FindRequestFromStruct(in).Email != "ana@example.com" {
		return nil, status.Error(codes.NotFound, "no member found with given criteria")
	}
	return memberpb.ProfileToStruct(memberpb.Profile{ID: "m-1", Email: "ana@example.com", DisplayName: "Ana", NativeLanguage: "es", LearningLanguages: []string{"fr"}})
}

func (f *fakeMember) GetProfile(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return memberpb.ProfileToStruct(memberpb.Profile{ID: in.GetValue(), DisplayName: "Ana", NativeLanguage: "es", LearningLanguages: []string{"fr"}, Online: true})
}

func newGateway(t *testing.T) (*fiber.App, *fakeMember) {
	t.Helper()
	logger.SetNewNop()

	fake := &fakeMember{}
	srv, addr := testtool.StartMockMemberGRPCServer(fake)
	t.Cleanup(srv.Stop)

	conn, err := database.CreateGRPCClient(addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	app := fiber.New()
	router.RegisterRoutes(app, handlers.NewMemberHandler(memberpb.NewMemberServiceClient(conn)))
	return app, fake
}

func do(t *testing.T, app *fiber.App, method, target, body string, headers ...string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	out := map[string]interface{}{}
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &out)
	return resp.StatusCode, out
}

func TestMemberHandler_Register(t *testing.T) {
	app, _ := newGateway(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"註冊成功", `{"email":"ana@example.com","password":"!Password123","display_name":"Ana","native_language":"es","learning_languages":["fr"]}`, fiber.StatusCreated, ""},
		{"email 已存在", `{"email":"dup@example.com","native_language":"es"}`, fiber.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"驗證失敗", `{"email":"x@example.com"}`, fiber.StatusBadRequest, "VALIDATION"},
		{"body 錯誤", `{`, fiber.StatusBadRequest, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, "POST", "/member/register", tt.body)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["code"])
			} else {
				assert.Equal(t, "m-1", body["member_id"])
			}
		})
	}
}

func TestMemberHandler_LoginLogout(t *testing.T) {
	app, fake := newGateway(t)

	code, body := do(t, app, "POST", "/member/login", `{"email":"ana@example.com","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "AUTHENTICATION_FAILURE", body["code"])

	code, body = do(t, app, "POST", "/member/login", `{"email":"ana@example.com","password":"!Password123"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "jwt-m-1", body["token"])

	// logout 走 JWTMiddleware, 需要真的 JWT
	tk, err := t_token.GenerateJWT("m-1", string(t_token.RoleMember), "test")
	require.NoError(t, err)

	code, _ = do(t, app, "POST", "/member/logout", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = do(t, app, "POST", "/member/logout", "", "Authorization", "Bearer "+tk)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, tk, fake.loggedOut)
}

func TestMemberHandler_FindAndProfile(t *testing.T) {
	app, _ := newGateway(t)

	code, body := do(t, app, "GET", "/member/find?email=ana@example.com", "")
	require.Equal(t, fiber.StatusOK, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "m-1", user["id"])
	assert.NotContains(t, user, "password")

	code, _ = do(t, app, "GET", "/member/find?email=nobody@example.com", "")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = do(t, app, "GET", "/member/find", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	tk, err := t_token.GenerateJWT("m-7", string(t_token.RoleMember), "test")
	require.NoError(t, err)
	code, body = do(t, app, "GET", "/member/profile?auth="+tk, "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "m-7", body["id"])
	assert.Equal(t, true, body["online"])
}

func TestDebugLogFlag(t *testing.T) {
	app, _ := newGateway(t)

	code, _ := do(t, app, "POST", "/debug?service=api_gateway&status=true", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.True(t, logger.Log.DebugMode())

	code, _ = do(t, app, "POST", "/debug?service=api_gateway&status=maybe", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	logger.Log.SetDebugMode(false)
}
