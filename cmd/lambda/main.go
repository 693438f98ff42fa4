package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"car-inventory-api/internal/config"
	"car-inventory-api/internal/constants"
	"car-inventory-api/internal/lambda"
	"car-inventory-api/internal/lambda/grpcweb"
	"car-inventory-api/internal/logging"
	"car-inventory-api/internal/repository"
	"car-inventory-api/internal/routes"
	"car-inventory-api/internal/service"
)

// grpcMethod decodes a gRPC-Web request body and invokes one service method.
type grpcMethod func(ctx context.Context, contentType string, body []byte) (proto.Message, error)

// app serves both the REST API and the gRPC-Web service from one function.
type app struct {
	logger  *zap.Logger
	router  http.Handler
	methods map[string]grpcMethod
}

func newApp(store repository.CarStore, logger *zap.Logger) *app {
	svc := service.NewCarServiceImpl(store, logger)

	return &app{
		logger: logger,
		router: routes.NewRouter(store, logger, nil),
		methods: map[string]grpcMethod{
			service.MethodListCars:    unary(newEmpty, svc.ListCars),
			service.MethodGetCar:      unary(newString, svc.GetCar),
			service.MethodCreateCar:   unary(newStruct, svc.CreateCar),
			service.MethodUpdateCar:   unary(newStruct, svc.UpdateCar),
			service.MethodDeleteCar:   unary(newString, svc.DeleteCar),
			service.MethodHealthCheck: unary(newEmpty, svc.HealthCheck),
		},
	}
}

func unary[Req proto.Message, Resp proto.Message](newReq func() Req, call func(context.Context, Req) (Resp, error)) grpcMethod {
	return func(ctx context.Context, contentType string, body []byte) (proto.Message, error) {
		req := newReq()
		if err := grpcweb.UnmarshalRequest(contentType, body, req); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		resp, err := call(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

func main() {
	cfg, err := config.LoadLambdaConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load Lambda config: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)

	pool, err := lambda.GetConnectionPool(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize connection pool", zap.Error(err))
	}

	repo := repository.NewCarRepository(pool)
	if err := repo.Migrate(context.Background()); err != nil {
		logger.Warn("Failed to run migrations", zap.Error(err))
	}

	a := newApp(repo, logger)
	logger.Info(fmt.Sprintf("%s Lambda handler initialized", constants.APIName()))

	awslambda.Start(a.handler)
}

func (a *app) handler(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	contentType := lambda.HeaderValue(request.Headers, "Content-Type")

	if grpcweb.IsGRPCWeb(contentType) {
		return a.handleGRPCWeb(ctx, request, contentType), nil
	}
	return lambda.ServeHTTP(ctx, a.router, request)
}

func (a *app) handleGRPCWeb(ctx context.Context, request events.APIGatewayV2HTTPRequest, contentType string) events.APIGatewayV2HTTPResponse {
	path := request.RequestContext.HTTP.Path
	useText := grpcweb.IsText(contentType)

	a.logger.Info(fmt.Sprintf("%s Lambda gRPC-Web request", constants.APIName()),
		zap.String("method", request.RequestContext.HTTP.Method),
		zap.String("path", path),
		zap.String("content_type", contentType),
	)

	serviceName, methodName, err := grpcweb.ParseMethodPath(path)
	if err != nil {
		a.logger.Warn("Invalid gRPC-Web path", zap.Error(err), zap.String("path", path))
		return errorResponse(status.Error(codes.InvalidArgument, "Invalid path format"), useText)
	}

	call, ok := a.methods[methodName]
	if serviceName != service.ServiceName || !ok {
		return errorResponse(status.Error(codes.Unimplemented,
			fmt.Sprintf("Method %s.%s not implemented", serviceName, methodName)), useText)
	}

	body := []byte(request.Body)
	if request.IsBase64Encoded {
		if body, err = base64.StdEncoding.DecodeString(request.Body); err != nil {
			return errorResponse(status.Error(codes.InvalidArgument, "Failed to decode request"), useText)
		}
	}

	resp, err := call(ctx, contentType, body)
	if err != nil {
		return errorResponse(err, useText)
	}

	payload, respContentType, err := grpcweb.EncodeResponse(resp, useText)
	if err != nil {
		a.logger.Error("Failed to encode response", zap.Error(err))
		return errorResponse(status.Error(codes.Internal, "Failed to encode response"), useText)
	}
	return grpcWebResponse(http.StatusOK, codes.OK, respContentType, payload, useText)
}

func errorResponse(err error, useText bool) events.APIGatewayV2HTTPResponse {
	st, ok := status.FromError(err)
	if !ok {
		st = status.New(codes.Internal, err.Error())
	}
	payload, contentType, httpStatus := grpcweb.EncodeError(st.Err(), useText)
	return grpcWebResponse(httpStatus, st.Code(), contentType, payload, useText)
}

// grpcWebResponse wraps a gRPC-Web body. Binary frames are base64 encoded
// for the gateway; the text encoding is already ASCII.
func grpcWebResponse(httpStatus int, code codes.Code, contentType string, payload []byte, useText bool) events.APIGatewayV2HTTPResponse {
	resp := events.APIGatewayV2HTTPResponse{
		StatusCode: httpStatus,
		Headers: map[string]string{
			"Content-Type":                  contentType,
			"grpc-status":                   fmt.Sprintf("%d", int(code)),
			"Access-Control-Allow-Origin":   "*",
			"Access-Control-Allow-Methods":  "POST, OPTIONS",
			"Access-Control-Allow-Headers":  "Content-Type, x-grpc-web, x-user-agent",
			"Access-Control-Expose-Headers": "grpc-status, grpc-message",
		},
	}
	if useText {
		resp.Body = string(payload)
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(payload)
		resp.IsBase64Encoded = true
	}
	return resp
}
