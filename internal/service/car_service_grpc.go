package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "carinventory.v1.CarService"

// Method names served by CarService.
const (
	MethodListCars    = "ListCars"
	MethodGetCar      = "GetCar"
	MethodCreateCar   = "CreateCar"
	MethodUpdateCar   = "UpdateCar"
	MethodDeleteCar   = "DeleteCar"
	MethodHealthCheck = "HealthCheck"
)

// FullMethod returns the "/service/method" path for a method name.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CarServiceServer is the server API for CarService. Messages are protobuf
// well-known types, so no generated code is needed.
type CarServiceServer interface {
	ListCars(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetCar(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CreateCar(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCar(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCar(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	HealthCheck(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCarServiceServer registers srv on s.
func RegisterCarServiceServer(s grpc.ServiceRegistrar, srv CarServiceServer) {
	s.RegisterService(&CarServiceDesc, srv)
}

// unaryHandler adapts a typed method into a grpc.MethodDesc handler.
func unaryHandler[Req proto.Message, Resp proto.Message](
	method string,
	newReq func() Req,
	call func(CarServiceServer, context.Context, Req) (Resp, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CarServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CarServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// CarServiceDesc describes CarService for grpc.Server.
var CarServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CarServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodListCars,
			Handler:    unaryHandler(MethodListCars, newEmpty, CarServiceServer.ListCars),
		},
		{
			MethodName: MethodGetCar,
			Handler:    unaryHandler(MethodGetCar, newString, CarServiceServer.GetCar),
		},
		{
			MethodName: MethodCreateCar,
			Handler:    unaryHandler(MethodCreateCar, newStruct, CarServiceServer.CreateCar),
		},
		{
			MethodName: MethodUpdateCar,
			Handler:    unaryHandler(MethodUpdateCar, newStruct, CarServiceServer.UpdateCar),
		},
		{
			MethodName: MethodDeleteCar,
			Handler:    unaryHandler(MethodDeleteCar, newString, CarServiceServer.DeleteCar),
		},
		{
			MethodName: MethodHealthCheck,
			Handler:    unaryHandler(MethodHealthCheck, newEmpty, CarServiceServer.HealthCheck),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "carinventory/v1/car_service.proto",
}
