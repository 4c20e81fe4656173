package gasoptd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
)

// OptimizerGRPCServer implements OptimizerServiceServer over a RunStore and RunExecutor.
type OptimizerGRPCServer struct {
	store    *RunStore
	Executor *RunExecutor
	log      *slog.Logger
}

var _ OptimizerServiceServer = (*OptimizerGRPCServer)(nil)

func NewOptimizerGRPCServer(store *RunStore, executor *RunExecutor) *OptimizerGRPCServer {
	return &OptimizerGRPCServer{
		store:    store,
		Executor: executor,
		log:      logger.Default,
	}
}

// CreateRun accepts {run_id, config_yaml, callback_url, callback_secret, start}
func (s *OptimizerGRPCServer) CreateRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	fields := req.GetFields()
	input := RunInput{
		ConfigYAML:     fields["config_yaml"].GetStringValue(),
		CallbackURL:    fields["callback_url"].GetStringValue(),
		CallbackSecret: fields["callback_secret"].GetStringValue(),
	}
	if _, err := input.Config(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rec, err := s.store.Create(fields["run_id"].GetStringValue(), input)
	if err != nil {
		return nil, grpcError(err)
	}
	s.log.Info("run created (gRPC)", "run_id", rec.Run.ID)

	if fields["start"].GetBoolValue() {
		if rec, err = s.Executor.Start(rec.Run.ID); err != nil {
			return nil, grpcError(err)
		}
	}
	return toStruct(map[string]any{"run": rec.Run})
}

func (s *OptimizerGRPCServer) StartRun(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, ErrRunIDMissing.Error())
	}
	updated, err := s.Executor.Start(req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	s.log.Info("run started (gRPC)", "run_id", req.GetValue())
	return toStruct(map[string]any{"run": updated.Run})
}

func (s *OptimizerGRPCServer) StopRun(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, ErrRunIDMissing.Error())
	}
	updated, err := s.Executor.Stop(req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(map[string]any{"run": updated.Run})
}

// GetRun returns the run with its latest progress and, once available, its result
func (s *OptimizerGRPCServer) GetRun(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, ErrRunIDMissing.Error())
	}
	rec, ok := s.store.Get(req.GetValue())
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	return toStruct(rec)
}

func (s *OptimizerGRPCServer) ListRuns(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	recs := s.store.List(50)
	runs := make([]Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	return toStruct(map[string]any{"runs": runs})
}

// toStruct converts v to a Struct through its JSON encoding
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// grpcError maps run lifecycle errors to status codes
func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrRunIDMissing), errors.Is(err, config.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrRunExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrRunTerminal):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
