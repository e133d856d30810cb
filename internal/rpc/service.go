// Package rpc serves the mission generator over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON shapes as the HTTP API,
// so the service needs no generated code.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/alienpod-sim/internal/config"
	"github.com/xtding233/alienpod-sim/internal/mission"
)

const (
	ServiceName = "alienpods.MissionService"

	generateMethod = "/" + ServiceName + "/Generate"
	statsMethod    = "/" + ServiceName + "/Stats"
)

// MissionServer is the server API for alienpods.MissionService.
type MissionServer interface {
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// MissionServiceDesc describes alienpods.MissionService for grpc.Server.
var MissionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MissionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: unaryHandler(generateMethod, MissionServer.Generate)},
		{MethodName: "Stats", Handler: unaryHandler(statsMethod, MissionServer.Stats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alienpods/mission.proto",
}

func unaryHandler(fullMethod string, call func(MissionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MissionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MissionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MissionClient calls alienpods.MissionService.
type MissionClient struct {
	cc grpc.ClientConnInterface
}

func NewMissionClient(cc grpc.ClientConnInterface) *MissionClient {
	return &MissionClient{cc: cc}
}

func (c *MissionClient) Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, generateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MissionClient) Stats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SnapshotSource yields the snapshot each call is served from.
type SnapshotSource interface {
	Snapshot() *config.Snapshot
}

// Service implements MissionServer.
type Service struct {
	snaps SnapshotSource
	rng   mission.RandomSource
}

// NewService returns a service; rng must be safe for concurrent use.
func NewService(snaps SnapshotSource, rng mission.RandomSource) *Service {
	if rng == nil {
		rng = mission.DefaultRNG()
	}
	return &Service{snaps: snaps, rng: rng}
}

// wireRequest mirrors mission.Request with the HTTP defaults for absent fields.
type wireRequest struct {
	MissionType string `json:"mission_type"`
	Research    int    `json:"research"`
	Resources   int    `json:"resources"`
	Difficulty  *int   `json:"difficulty"`
	Landed      *bool  `json:"landed"`
	ShipType    string `json:"ship_type"`
}

func (w wireRequest) request() mission.Request {
	req := mission.Request{
		MissionType: mission.MissionType(w.MissionType),
		Research:    w.Research,
		Resources:   w.Resources,
		Difficulty:  1,
		Landed:      true,
		ShipType:    mission.ShipType(w.ShipType),
	}
	if req.MissionType == "" {
		req.MissionType = mission.Abduction
	}
	if w.Difficulty != nil {
		req.Difficulty = *w.Difficulty
	}
	if w.Landed != nil {
		req.Landed = *w.Landed
	}
	return req
}

type wireStats struct {
	Params wireRequest       `json:"params"`
	Goal   mission.TrialGoal `json:"goal"`
	Trials int               `json:"trials"`
	Seed   *uint64           `json:"seed"`
}

func (s *Service) Generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var w wireRequest
	if err := fromStruct(in, &w); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	res, err := s.snaps.Snapshot().Engine().Generate(w.request(), s.rng)
	if err != nil {
		return nil, statusOf(err)
	}
	return toStruct(res)
}

func (s *Service) Stats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var w wireStats
	if err := fromStruct(in, &w); err != nil {
		return nil, err
	}
	var err error
	if w.Goal, w.Trials, err = mission.NormalizeTrials(w.Goal, w.Trials); err != nil {
		return nil, statusOf(err)
	}
	rng := s.rng
	if w.Seed != nil {
		rng = mission.NewSeededRNG(*w.Seed)
	}
	st, err := mission.RunMonteCarlo(s.snaps.Snapshot().Engine(), w.Params.request(), w.Goal, w.Trials, rng)
	if err != nil {
		return nil, statusOf(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	return toStruct(map[string]any{"stats": st, "histogram": st.Histogram()})
}

// statusOf maps engine errors onto gRPC codes.
func statusOf(err error) error {
	var ce *mission.ConfigError
	switch {
	case errors.Is(err, mission.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &ce):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func fromStruct(in *structpb.Struct, v any) error {
	b, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// NewServer builds a gRPC server carrying the mission service and the
// standard health service, with every call logged.
func NewServer(svc *Service, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(logUnary))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&MissionServiceDesc, svc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Info("grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}
