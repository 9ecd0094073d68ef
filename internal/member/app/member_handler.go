package app

import (
	"context"

	"language_exchange_service/internal/member/domain"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	memberpb "language_exchange_service/pkg/proto/member"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// MemberGRPCServer 用來實作 MemberServiceServer
type MemberGRPCServer struct {
	memberpb.UnimplementedMemberServiceServer
	Usecase MemberUseCase
}

// Register 實作 Register, 回傳 memberID
func (s *MemberGRPCServer) Register(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	in := memberpb.RegisterRequestFromStruct(req)
	logger.Log.Debug("Register Req", zap.String("email", in.Email), zap.String("native", in.NativeLanguage))

	memberID, err := s.Usecase.Register(ctx, domain.RegisterParam{
		Email:             in.Email,
		Password:          in.Password,
		DisplayName:       in.DisplayName,
		NativeLanguage:    in.NativeLanguage,
		LearningLanguages: in.LearningLanguages,
	})
	if err != nil {
		logger.Log.Error("Register Err", zap.String("email", in.Email), zap.Error(err))
		return nil, toStatus(err)
	}
	return wrapperspb.String(memberID), nil
}

// FindMember 實作 尋找member, 帶回 profile
func (s *MemberGRPCServer) FindMember(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := memberpb.FindRequestFromStruct(req)
	logger.Log.Debug("FindMember", zap.String("member_id", in.MemberID), zap.String("email", in.Email))

	query := &domain.MemberQuery{}
	if in.MemberID != "" {
		query.MemberID = &in.MemberID
	}
	if in.Email != "" {
		query.Email = &in.Email
	}
	member, err := s.Usecase.FindMember(ctx, query)
	if err != nil {
		return nil, toStatus(err)
	}

	profile, err := s.Usecase.GetProfile(ctx, member.MemberID)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeProfile(profile, member.Email)
}

// Login 實作 Login
func (s *MemberGRPCServer) Login(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	in := memberpb.LoginRequestFromStruct(req)
	logger.Log.Debug("Login", zap.String("email", in.Email))

	token, err := s.Usecase.Login(ctx, in.Email, in.Password)
	if err != nil {
		logger.Log.Warn("Login Err", zap.String("email", in.Email), zap.Error(err))
		return nil, toStatus(err)
	}
	return wrapperspb.String(token), nil
}

// Logout 實作 Logout
func (s *MemberGRPCServer) Logout(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.Usecase.Logout(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// ForceLogout 實作 ForceLogout
func (s *MemberGRPCServer) ForceLogout(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	logger.Log.Info("ForceLogout", zap.String("memberID", req.GetValue()))
	if err := s.Usecase.ForceLogout(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// CheckSessionTimeout 實作 CheckSessionTimeout
func (s *MemberGRPCServer) CheckSessionTimeout(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	expired, err := s.Usecase.CheckSessionTimeout(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(expired), nil
}

// ReconnectSession 實作 ReconnectSession
func (s *MemberGRPCServer) ReconnectSession(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	token, err := s.Usecase.ReconnectSession(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(token), nil
}

// Authenticate token -> profile
func (s *MemberGRPCServer) Authenticate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	profile, err := s.Usecase.Authenticate(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeProfile(profile, "")
}

// GetProfile 實作 GetProfile
func (s *MemberGRPCServer) GetProfile(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	profile, err := s.Usecase.GetProfile(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeProfile(profile, "")
}

// SetOnline 實作 SetOnline
func (s *MemberGRPCServer) SetOnline(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	in := memberpb.OnlineRequestFromStruct(req)
	if err := s.Usecase.SetOnline(ctx, in.MemberID, in.Online); err != nil {
		logger.Log.Error("SetOnline Err", zap.String("memberID", in.MemberID), zap.Error(err))
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func encodeProfile(p *domain.Profile, email string) (*structpb.Struct, error) {
	s, err := memberpb.ProfileToStruct(memberpb.Profile{
		ID:                p.MemberID,
		Email:             email,
		DisplayName:       p.DisplayName,
		NativeLanguage:    p.NativeLanguage,
		LearningLanguages: p.LearningLanguages,
		Online:            p.Online,
		LastActive:        p.LastActive,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode profile")
	}
	return s, nil
}

// toStatus map AppError code to grpc status, causes stay in the log
func toStatus(err error) error {
	msg := "internal error"
	if appErr, ok := errprocess.As(err); ok {
		msg = appErr.Message
	}

	switch errprocess.CodeOf(err) {
	case errprocess.CodeAuthentication:
		return status.Error(codes.Unauthenticated, msg)
	case errprocess.CodeAuthorization:
		return status.Error(codes.PermissionDenied, msg)
	case errprocess.CodeNotFound:
		return status.Error(codes.NotFound, msg)
	case errprocess.CodeValidation:
		return status.Error(codes.InvalidArgument, msg)
	case errprocess.CodeConflict:
		return status.Error(codes.AlreadyExists, msg)
	case errprocess.CodeUnavailable:
		return status.Error(codes.Unavailable, msg)
	default:
		logger.Log.Error("member service internal error", zap.Error(err))
		return status.Error(codes.Internal, msg)
	}
}
