package rpc

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/metrics"
	"github.com/danielpatrickdp/regioncheck/internal/orchestrator"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region server-struct

// Server implements RegionServer on top of the shared orchestrator.
// Validation and domain failures are answered in-band with ok=false;
// gRPC status errors are reserved for malformed requests and internal faults.
type Server struct {
	orch   *orchestrator.Orchestrator
	logger zerolog.Logger
	now    func() time.Time
}

// NewServer creates a gRPC handler.
func NewServer(orch *orchestrator.Orchestrator, logger zerolog.Logger) *Server {
	return &Server{
		orch:   orch,
		logger: logger.With().Str("component", "grpc").Logger(),
		now:    time.Now,
	}
}

// #endregion server-struct

// #region classify

// Classify handles regioncheck.v1.Region/Classify.
func (s *Server) Classify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "empty request")
	}
	sub, err := submissionFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	out, err := s.orch.Submit(sub)
	if err != nil {
		s.logger.Error().Err(err).Msg("submit failed")
		return nil, status.Error(codes.Internal, "internal error")
	}

	var fields map[string]interface{}
	if !out.OK() {
		msgs := out.Errors()
		errs := make([]interface{}, len(msgs))
		for i, m := range msgs {
			errs[i] = m
		}
		fields = map[string]interface{}{
			"ok":     false,
			"errors": errs,
			"now":    s.now().UTC().Format(time.RFC3339Nano),
		}
	} else {
		rec := out.Record
		fields = map[string]interface{}{
			"ok":             true,
			"id":             rec.ID,
			"x":              rec.Point.X,
			"y":              rec.Point.Y,
			"r":              rec.Radius,
			"hit":            rec.Hit,
			"shape":          string(rec.Shape),
			"now":            rec.EvaluatedAt.UTC().Format(time.RFC3339Nano),
			"durationMicros": rec.DurationMicros(),
			"replayed":       out.Replayed,
		}
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return resp, nil
}

// submissionFromStruct reads x, y and r as strings or numbers, plus the
// optional clientId and requestId strings.
func submissionFromStruct(req *structpb.Struct) (orchestrator.Submission, error) {
	var sub orchestrator.Submission
	var err error
	f := req.GetFields()
	if sub.X, err = valueText("x", f["x"]); err != nil {
		return sub, err
	}
	if sub.Y, err = valueText("y", f["y"]); err != nil {
		return sub, err
	}
	if sub.R, err = valueText("r", f["r"]); err != nil {
		return sub, err
	}
	if sub.ClientID, err = valueText("clientId", f["clientId"]); err != nil {
		return sub, err
	}
	if sub.RequestKey, err = valueText("requestId", f["requestId"]); err != nil {
		return sub, err
	}
	return sub, nil
}

func valueText(name string, v *structpb.Value) (string, error) {
	if v == nil {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("field %s must be a string or number", name)
	}
}

// #endregion classify

// #region serve

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then stops gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	gs := grpc.NewServer(grpc.UnaryInterceptor(s.interceptor))
	RegisterRegionServer(gs, s)
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("grpc server listening")

	errChan := make(chan error, 1)
	go func() {
		errChan <- gs.Serve(ln)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("grpc server shutting down")
		gs.GracefulStop()
		return nil
	}
}

// interceptor logs and counts every unary call.
func (s *Server) interceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	metrics.RequestCount.WithLabelValues("grpc", info.FullMethod, code.String()).Inc()

	ev := s.logger.Info()
	if code == codes.Internal {
		ev = s.logger.Error()
	}
	ev.Str("method", info.FullMethod).
		Str("code", code.String()).
		Dur("latency", time.Since(start)).
		Msg("grpc request")
	return resp, err
}

// #endregion serve
