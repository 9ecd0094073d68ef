package repository

import (
	"context"
	"testing"

	"language_exchange_service/internal/identity/domain"
	errprocess "language_exchange_service/pkg/err"
	memberpb "language_exchange_service/pkg/proto/member"
	testtool "language_exchange_service/pkg/test_tool"
	t_token "language_exchange_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeMemberServer struct {
	memberpb.UnimplementedMemberServiceServer
	online map[string]bool
}

func (s *fakeMemberServer) Authenticate(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() != "good-token" {
		return nil, status.Error(codes.Unauthenticated, "session expired")
	}
	return memberpb.ProfileToStruct(memberpb.Profile{ID: "u1", DisplayName: "Ana", NativeLanguage: "es", LearningLanguages: []string{"fr"}})
}

func (s *fakeMemberServer) GetProfile(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.NotFound, "member not found")
}

func (s *fakeMemberServer) SetOnline(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	req := memberpb.OnlineRequestFromStruct(in)
	s.online[req.MemberID] = req.Online
	return &emptypb.Empty{}, nil
}

func TestGRPCProvider(t *testing.T) {
	srv := &fakeMemberServer{online: map[string]bool{}}
	grpcServer, addr := testtool.StartMockMemberGRPCServer(srv)
	defer grpcServer.Stop()

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	p := NewGRPCProvider(memberpb.NewMemberServiceClient(conn))
	ctx := context.Background()

	t.Run("authenticate", func(t *testing.T) {
		u, err := p.Authenticate(ctx, "good-token")
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
		assert.True(t, u.Learns("FR"))
	})

	t.Run("authentication failure is mapped", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "bad")
		assert.ErrorIs(t, err, errprocess.ErrAuthentication)
	})

	t.Run("not found is mapped", func(t *testing.T) {
		_, err := p.Profile(ctx, "ghost")
		assert.ErrorIs(t, err, errprocess.ErrNotFound)
	})

	t.Run("set online", func(t *testing.T) {
		require.NoError(t, p.SetOnline(ctx, "u1", true))
		assert.True(t, srv.online["u1"])
	})
}

func TestMemoryProvider(t *testing.T) {
	p := NewMemoryProvider(domain.User{ID: "u1", DisplayName: "Ana", NativeLanguage: "es", LearningLanguages: []string{"fr"}})
	ctx := context.Background()

	t.Run("authenticate with a valid jwt", func(t *testing.T) {
		tk, err := t_token.GenerateJWT("u1", string(t_token.RoleMember), "test")
		require.NoError(t, err)
		u, err := p.Authenticate(ctx, "Bearer "+tk)
		require.NoError(t, err)
		assert.Equal(t, "Ana", u.DisplayName)
	})

	t.Run("unknown member", func(t *testing.T) {
		tk, _ := t_token.GenerateJWT("ghost", string(t_token.RoleMember), "test")
		_, err := p.Authenticate(ctx, tk)
		assert.ErrorIs(t, err, errprocess.ErrAuthentication)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "garbage")
		assert.ErrorIs(t, err, errprocess.ErrAuthentication)
	})

	t.Run("set online stamps last active", func(t *testing.T) {
		require.NoError(t, p.SetOnline(ctx, "u1", true))
		u, _ := p.Profile(ctx, "u1")
		assert.True(t, u.Online)
		assert.False(t, u.LastActive.IsZero())
		assert.NotZero(t, u.Public().LastActive)
	})

	t.Run("set online unknown", func(t *testing.T) {
		assert.ErrorIs(t, p.SetOnline(ctx, "ghost", true), errprocess.ErrNotFound)
	})
}
