package testtool

import (
	"context"
	"log"
	"net"
	"strings"

	memberpb "language_exchange_service/pkg/proto/member"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"google.golang.org/grpc"
)

// SetupContainer 通用函式來啟動測試容器, 回傳 host 與第一個 exposed port 的對外 port
func SetupContainer(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, string, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", "", err
	}

	natPort, err := nat.NewPort("tcp", strings.TrimSuffix(req.ExposedPorts[0], "/tcp"))
	if err != nil {
		return nil, "", "", err
	}

	port, err := container.MappedPort(ctx, natPort)
	if err != nil {
		return nil, "", "", err
	}

	return container, host, port.Port(), nil
}

// StartMockMemberGRPCServer 在隨機 port 啟動 member grpc server
func StartMockMemberGRPCServer(srv memberpb.MemberServiceServer) (*grpc.Server, string) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("Failed to start gRPC listener: %v", err)
	}

	if srv == nil {
		srv = &MockMemberService{}
	}
	grpcServer := grpc.NewServer()
	memberpb.RegisterMemberServiceServer(grpcServer, srv)

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Printf("Mock gRPC Member Service stopped: %v", err)
		}
	}()

	return grpcServer, listener.Addr().String()
}

// MockMemberService Mock Member gRPC 服務
type MockMemberService struct {
	memberpb.UnimplementedMemberServiceServer
}
