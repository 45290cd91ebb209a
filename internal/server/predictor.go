package server

import (
	"context"
	"errors"
	"sync"

	"github.com/danielpatrickdp/multiseq-learning/internal/codec"
	"github.com/danielpatrickdp/multiseq-learning/internal/pooler"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/seqmem"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
// PredictorServer is the handler interface behind PredictorServiceDesc.
type PredictorServer interface {
	Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// PredictorServiceDesc describes multiseq.Predictor with structpb messages on the wire.
var PredictorServiceDesc = grpc.ServiceDesc{
	ServiceName: codec.ServiceName,
	HandlerType: (*PredictorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "multiseq/predictor",
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PredictorServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: codec.PredictMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PredictorServer).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region predictor
// Predictor serves queries against one trained engine.
// The engine is single-consumer, so Infer calls are serialized.
type Predictor struct {
	mu      sync.Mutex
	engine  Inferer
	encoder QueryEncoder
}

// NewPredictor creates a predictor with no engine; Predict reports Unavailable until Load.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Load swaps in a trained engine. enc may be nil when only bit queries are served.
func (p *Predictor) Load(eng Inferer, enc QueryEncoder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine = eng
	p.encoder = enc
}

// Loaded reports whether an engine is available.
func (p *Predictor) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine != nil
}

// Predict decodes the query, runs Reset + Predict and encodes the ranked labels.
func (p *Predictor) Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	q, err := codec.DecodeQuery(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return nil, status.Error(codes.Unavailable, "no engine loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	input := sdr.Normalize(q.Bits)
	if q.Input != "" {
		if p.encoder == nil {
			return nil, status.Error(codes.FailedPrecondition, "date queries need an encoder")
		}
		input, err = p.encoder.EncodeString(q.Input)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "encode input: %v", err)
		}
	}

	results, err := p.engine.Infer(input)
	if err != nil {
		if errors.Is(err, pooler.ErrInputOutOfRange) || errors.Is(err, seqmem.ErrColumnOutOfRange) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "infer: %v", err)
	}

	resp, err := codec.EncodePredictions(results)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// #endregion predictor
