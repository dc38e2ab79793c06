// Package rpc exposes the classifier over gRPC. Messages are
// google.protobuf.Struct values so no generated code is needed; the service
// descriptor below is what protoc-gen-go-grpc would emit for
//
//	service Region { rpc Classify(google.protobuf.Struct) returns (google.protobuf.Struct); }
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region descriptor

const (
	ServiceName    = "regioncheck.v1.Region"
	ClassifyMethod = "/" + ServiceName + "/Classify"
)

// RegionServer is the server API for the Region service.
type RegionServer interface {
	Classify(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func classifyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegionServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ClassifyMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegionServer).Classify(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegionServiceDesc is the grpc.ServiceDesc for the Region service.
var RegionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RegionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Classify",
			Handler:    classifyHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "regioncheck/v1/region.proto",
}

// RegisterRegionServer registers srv on s.
func RegisterRegionServer(s grpc.ServiceRegistrar, srv RegionServer) {
	s.RegisterService(&RegionServiceDesc, srv)
}

// #endregion descriptor
