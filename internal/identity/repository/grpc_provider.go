package repository

import (
	"context"

	"language_exchange_service/internal/identity/domain"
	errprocess "language_exchange_service/pkg/err"
	memberpb "language_exchange_service/pkg/proto/member"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type grpcProvider struct {
	client memberpb.MemberServiceClient
}

// NewGRPCProvider identity provider backed by member_service
func NewGRPCProvider(client memberpb.MemberServiceClient) domain.Provider {
	return &grpcProvider{client: client}
}

func (p *grpcProvider) Authenticate(ctx context.Context, token string) (domain.User, error) {
	res, err := p.client.Authenticate(ctx, wrapperspb.String(token))
	if err != nil {
		return domain.User{}, fromStatus(err)
	}
	return toUser(memberpb.ProfileFromStruct(res)), nil
}

func (p *grpcProvider) Profile(ctx context.Context, userID string) (domain.User, error) {
	res, err := p.client.GetProfile(ctx, wrapperspb.String(userID))
	if err != nil {
		return domain.User{}, fromStatus(err)
	}
	return toUser(memberpb.ProfileFromStruct(res)), nil
}

func (p *grpcProvider) SetOnline(ctx context.Context, userID string, online bool) error {
	req, err := memberpb.OnlineRequest{MemberID: userID, Online: online}.ToStruct()
	if err != nil {
		return errprocess.Wrap(errprocess.CodeInternal, "encode online request", err)
	}
	if _, err := p.client.SetOnline(ctx, req); err != nil {
		return fromStatus(err)
	}
	return nil
}

func toUser(p memberpb.Profile) domain.User {
	return domain.User{
		ID:                p.ID,
		DisplayName:       p.DisplayName,
		NativeLanguage:    p.NativeLanguage,
		LearningLanguages: p.LearningLanguages,
		Online:            p.Online,
		LastActive:        p.LastActive,
	}
}

// fromStatus map grpc status to AppError
func fromStatus(err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return errprocess.Wrap(errprocess.CodeAuthentication, st.Message(), err)
	case codes.PermissionDenied:
		return errprocess.Wrap(errprocess.CodeAuthorization, st.Message(), err)
	case codes.NotFound:
		return errprocess.Wrap(errprocess.CodeNotFound, st.Message(), err)
	case codes.InvalidArgument:
		return errprocess.Wrap(errprocess.CodeValidation, st.Message(), err)
	case codes.AlreadyExists:
		return errprocess.Wrap(errprocess.CodeConflict, st.Message(), err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return errprocess.Wrap(errprocess.CodeUnavailable, "member service unavailable", err)
	default:
		return errprocess.Wrap(errprocess.CodeInternal, st.Message(), err)
	}
}
