// Package member is the gRPC contract of member_service. Messages are protobuf
// well-known types so the service needs no generated code: structured payloads
// travel as structpb.Struct, scalars as wrapperspb values.
package member

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName full grpc service name
const ServiceName = "member.MemberService"

// MemberServiceClient client API for MemberService
type MemberServiceClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Logout(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ForceLogout(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	CheckSessionTimeout(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	ReconnectSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	FindMember(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Authenticate(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetProfile(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetOnline(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

// MemberServiceServer server API for MemberService
type MemberServiceServer interface {
	Register(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Login(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Logout(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ForceLogout(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	CheckSessionTimeout(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	ReconnectSession(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	FindMember(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Authenticate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetProfile(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SetOnline(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

type memberServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMemberServiceClient create client
func NewMemberServiceClient(cc grpc.ClientConnInterface) MemberServiceClient {
	return &memberServiceClient{cc: cc}
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *memberServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, "Register", in, opts)
}

func (c *memberServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, "Login", in, opts)
}

func (c *memberServiceClient) Logout(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Logout", in, opts)
}

func (c *memberServiceClient) ForceLogout(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "ForceLogout", in, opts)
}

func (c *memberServiceClient) CheckSessionTimeout(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke[wrapperspb.BoolValue](ctx, c.cc, "CheckSessionTimeout", in, opts)
}

func (c *memberServiceClient) ReconnectSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, "ReconnectSession", in, opts)
}

func (c *memberServiceClient) FindMember(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "FindMember", in, opts)
}

func (c *memberServiceClient) Authenticate(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "Authenticate", in, opts)
}

func (c *memberServiceClient) GetProfile(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "GetProfile", in, opts)
}

func (c *memberServiceClient) SetOnline(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "SetOnline", in, opts)
}

// UnimplementedMemberServiceServer embed for forward compatibility
type UnimplementedMemberServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedMemberServiceServer) Register(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedMemberServiceServer) Login(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedMemberServiceServer) Logout(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedMemberServiceServer) ForceLogout(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("ForceLogout")
}
func (UnimplementedMemberServiceServer) CheckSessionTimeout(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, unimplemented("CheckSessionTimeout")
}
func (UnimplementedMemberServiceServer) ReconnectSession(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, unimplemented("ReconnectSession")
}
func (UnimplementedMemberServiceServer) FindMember(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("FindMember")
}
func (UnimplementedMemberServiceServer) Authenticate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, unimplemented("Authenticate")
}
func (UnimplementedMemberServiceServer) GetProfile(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, unimplemented("GetProfile")
}
func (UnimplementedMemberServiceServer) SetOnline(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, unimplemented("SetOnline")
}

// unary build a MethodDesc for a typed server method
func unary[Req, Res any](method string, call func(MemberServiceServer, context.Context, *Req) (*Res, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MemberServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(MemberServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// MemberServiceDesc grpc.ServiceDesc for MemberService
var MemberServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MemberServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", MemberServiceServer.Register),
		unary("Login", MemberServiceServer.Login),
		unary("Logout", MemberServiceServer.Logout),
		unary("ForceLogout", MemberServiceServer.ForceLogout),
		unary("CheckSessionTimeout", MemberServiceServer.CheckSessionTimeout),
		unary("ReconnectSession", MemberServiceServer.ReconnectSession),
		unary("FindMember", MemberServiceServer.FindMember),
		unary("Authenticate", MemberServiceServer.Authenticate),
		unary("GetProfile", MemberServiceServer.GetProfile),
		unary("SetOnline", MemberServiceServer.SetOnline),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "member.proto",
}

// RegisterMemberServiceServer register srv on s
func RegisterMemberServiceServer(s grpc.ServiceRegistrar, srv MemberServiceServer) {
	s.RegisterService(&MemberServiceDesc, srv)
}
