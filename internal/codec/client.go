package codec

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// PredictorClient calls the Predict RPC of a running prediction service.
type PredictorClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewPredictorClient connects to the prediction gRPC server at addr.
func NewPredictorClient(addr string) (*PredictorClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &PredictorClient{conn: conn, cc: conn}, nil
}

// NewPredictorClientWithConn wraps an existing connection. Close leaves it open.
func NewPredictorClientWithConn(cc grpc.ClientConnInterface) *PredictorClient {
	return &PredictorClient{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down a connection opened by NewPredictorClient.
func (c *PredictorClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region predict
// Predict sends q and returns the ranked labels. An empty slice means nothing was predicted.
func (c *PredictorClient) Predict(ctx context.Context, q Query) ([]classifier.Result, error) {
	req, err := EncodeQuery(q)
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PredictMethod, req, resp); err != nil {
		return nil, fmt.Errorf("predict rpc: %w", err)
	}
	return DecodePredictions(resp)
}

// #endregion predict
