package database

import (
	"context"
	"fmt"
	"time"

	"language_exchange_service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// CreateGRPCClient create grpc client and wait until READY
func CreateGRPCClient(grpcIP string, timeout time.Duration) (*grpc.ClientConn, error) {
	client, err := grpc.NewClient(grpcIP, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc client [%s]: %w", grpcIP, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client.Connect()
	for {
		state := client.GetState()
		logger.Log.Info("grpc connection state", zap.String("target", grpcIP), zap.String("state", state.String()))
		if state == connectivity.Ready {
			return client, nil
		}
		if !client.WaitForStateChange(ctx, state) {
			client.Close()
			return nil, fmt.Errorf("connection [%s] did not become READY within %s", grpcIP, timeout)
		}
	}
}
