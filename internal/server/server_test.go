package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/codec"
	"github.com/danielpatrickdp/multiseq-learning/internal/pooler"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// #region fakes
type fakeEngine struct {
	results []classifier.Result
	err     error
	inputs  []sdr.Vector
}

func (f *fakeEngine) Infer(input sdr.Vector) ([]classifier.Result, error) {
	f.inputs = append(f.inputs, input)
	return f.results, f.err
}

type fakeEncoder struct{}

func (fakeEncoder) EncodeString(raw string) (sdr.Vector, error) {
	if raw == "bad" {
		return nil, errors.New("unparseable date")
	}
	return sdr.Vector{10, 11}, nil
}

// #endregion fakes

// #region helpers
func startServer(t *testing.T) (*Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := New(DefaultServerConfig())
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func healthStatus(t *testing.T, conn *grpc.ClientConn) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := healthpb.NewHealthClient(conn).Check(callCtx(t), &healthpb.HealthCheckRequest{Service: codec.ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	return resp.GetStatus()
}

// #endregion helpers

// #region tests
func TestPredict_UnavailableBeforeLoad(t *testing.T) {
	_, conn := startServer(t)
	client := codec.NewPredictorClientWithConn(conn)

	if st := healthStatus(t, conn); st != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", st)
	}
	_, err := client.Predict(callCtx(t), codec.Query{Bits: []int{1}})
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}

func TestLoad_NilEngineNotServing(t *testing.T) {
	srv, conn := startServer(t)
	srv.Load(&fakeEngine{}, nil)
	srv.Load(nil, nil)

	if srv.Predictor().Loaded() {
		t.Fatal("expected no engine after loading nil")
	}
	if st := healthStatus(t, conn); st != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", st)
	}
}

func TestPredict_Bits(t *testing.T) {
	srv, conn := startServer(t)
	eng := &fakeEngine{results: []classifier.Result{
		{PredictedInput: "b", Similarity: 100, NumOfSameBits: 4},
		{PredictedInput: "c", Similarity: 25, NumOfSameBits: 1},
	}}
	srv.Load(eng, nil)

	if st := healthStatus(t, conn); st != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", st)
	}

	got, err := codec.NewPredictorClientWithConn(conn).Predict(callCtx(t), codec.Query{Bits: []int{3, 1, 3}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(got) != 2 || got[0] != eng.results[0] || got[1] != eng.results[1] {
		t.Fatalf("unexpected predictions: %+v", got)
	}
	if len(eng.inputs) != 1 || !sdr.Equal(eng.inputs[0], sdr.Vector{1, 3}) {
		t.Fatalf("expected normalized input, got %v", eng.inputs)
	}
}

func TestPredict_DateInput(t *testing.T) {
	srv, conn := startServer(t)
	eng := &fakeEngine{}
	client := codec.NewPredictorClientWithConn(conn)

	srv.Load(eng, nil)
	if _, err := client.Predict(callCtx(t), codec.Query{Input: "2010-08-01"}); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition without encoder, got %v", err)
	}

	srv.Load(eng, fakeEncoder{})
	got, err := client.Predict(callCtx(t), codec.Query{Input: "2010-08-01"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty predictions, got %+v", got)
	}
	if !sdr.Equal(eng.inputs[len(eng.inputs)-1], sdr.Vector{10, 11}) {
		t.Fatalf("expected encoded date input, got %v", eng.inputs)
	}

	if _, err := client.Predict(callCtx(t), codec.Query{Input: "bad"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for bad date, got %v", err)
	}
}

func TestPredict_ErrorCodes(t *testing.T) {
	srv, conn := startServer(t)
	eng := &fakeEngine{err: fmt.Errorf("predict: %w", pooler.ErrInputOutOfRange)}
	srv.Load(eng, nil)
	client := codec.NewPredictorClientWithConn(conn)

	if _, err := client.Predict(callCtx(t), codec.Query{Bits: []int{99999}}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	eng.err = errors.New("boom")
	if _, err := client.Predict(callCtx(t), codec.Query{Bits: []int{1}}); status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestPredict_MalformedRequest(t *testing.T) {
	srv, _ := startServer(t)
	srv.Load(&fakeEngine{}, nil)

	_, err := srv.Predictor().Predict(context.Background(), nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for empty request, got %v", err)
	}
}

// #endregion tests
