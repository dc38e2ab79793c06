package rpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region types
// Request is one remote classification.
type Request struct {
	X, Y, R   string
	ClientID  string // optional; enables server-side history
	RequestID string // optional; makes retries idempotent
}

// Result is the decoded Classify response.
type Result struct {
	OK             bool
	ID             string
	X, Y, R        float64
	Hit            bool
	Shape          string
	Now            time.Time
	DurationMicros float64
	Replayed       bool
	Errors         []string
}

// #endregion types

// #region client-struct
// Client wraps a connection to a Region service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the Region service at addr without TLS.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn uses an existing connection. Close is then a no-op.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the connection opened by NewClient.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region classify
// Classify sends one point to the service. Validation failures come back as
// Result.OK == false with Errors set, not as an error.
func (c *Client) Classify(ctx context.Context, req Request) (Result, error) {
	fields := map[string]interface{}{"x": req.X, "y": req.Y, "r": req.R}
	if req.ClientID != "" {
		fields["clientId"] = req.ClientID
	}
	if req.RequestID != "" {
		fields["requestId"] = req.RequestID
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ClassifyMethod, in, out); err != nil {
		return Result{}, fmt.Errorf("classify rpc: %w", err)
	}
	return decodeResult(out)
}

func decodeResult(s *structpb.Struct) (Result, error) {
	f := s.GetFields()
	res := Result{
		OK:             f["ok"].GetBoolValue(),
		ID:             f["id"].GetStringValue(),
		X:              f["x"].GetNumberValue(),
		Y:              f["y"].GetNumberValue(),
		R:              f["r"].GetNumberValue(),
		Hit:            f["hit"].GetBoolValue(),
		Shape:          f["shape"].GetStringValue(),
		DurationMicros: f["durationMicros"].GetNumberValue(),
		Replayed:       f["replayed"].GetBoolValue(),
	}
	if now := f["now"].GetStringValue(); now != "" {
		t, err := time.Parse(time.RFC3339Nano, now)
		if err != nil {
			return Result{}, fmt.Errorf("decode now: %w", err)
		}
		res.Now = t
	}
	for _, v := range f["errors"].GetListValue().GetValues() {
		res.Errors = append(res.Errors, v.GetStringValue())
	}
	return res, nil
}

// #endregion classify
