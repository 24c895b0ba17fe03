package worldstatestore

import (
	"context"
	"net"

	"github.com/pkg/errors"
	commonpb "go.viam.com/api/common/v1"
	pb "go.viam.com/api/service/worldstatestore/v1"
	"go.viam.com/utils/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.viam.com/trajviz/logging"
)

type serviceServer struct {
	pb.UnimplementedWorldStateStoreServiceServer
	name   string
	svc    Service
	logger logging.Logger
}

// NewRPCServiceServer constructs the world state store gRPC service server for a single named service.
func NewRPCServiceServer(name string, svc Service, logger logging.Logger) pb.WorldStateStoreServiceServer {
	return &serviceServer{name: name, svc: svc, logger: logger}
}

func (server *serviceServer) resource(name string) (Service, error) {
	if name != server.name {
		return nil, status.Errorf(codes.NotFound, "world state store %q not found", name)
	}
	return server.svc, nil
}

// ListUUIDs returns a list of world state uuids.
func (server *serviceServer) ListUUIDs(ctx context.Context, req *pb.ListUUIDsRequest) (
	*pb.ListUUIDsResponse, error,
) {
	ctx, span := trace.StartSpan(ctx, "worldstatestore::server::ListUUIDs")
	defer span.End()

	svc, err := server.resource(req.Name)
	if err != nil {
		return nil, err
	}

	uuids, err := svc.ListUUIDs(ctx, req.Extra.AsMap())
	if err != nil {
		return nil, err
	}
	if uuids == nil {
		return nil, ErrNilResponse
	}

	return &pb.ListUUIDsResponse{Uuids: uuids}, nil
}

// GetTransform returns a world state object by uuid.
func (server *serviceServer) GetTransform(ctx context.Context, req *pb.GetTransformRequest) (
	*pb.GetTransformResponse, error,
) {
	ctx, span := trace.StartSpan(ctx, "worldstatestore::server::GetTransform")
	defer span.End()

	svc, err := server.resource(req.Name)
	if err != nil {
		return nil, err
	}

	obj, err := svc.GetTransform(ctx, req.Uuid, req.Extra.AsMap())
	if err != nil {
		if errors.Is(err, ErrTransformNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, err
	}
	if obj == nil {
		return &pb.GetTransformResponse{}, nil
	}

	return &pb.GetTransformResponse{Transform: obj}, nil
}

// DoCommand receives arbitrary commands.
func (server *serviceServer) DoCommand(ctx context.Context,
	req *commonpb.DoCommandRequest,
) (*commonpb.DoCommandResponse, error) {
	ctx, span := trace.StartSpan(ctx, "worldstatestore::server::DoCommand")
	defer span.End()

	svc, err := server.resource(req.Name)
	if err != nil {
		return nil, err
	}
	res, err := svc.DoCommand(ctx, req.Command.AsMap())
	if err != nil {
		return nil, err
	}
	pbRes, err := structpb.NewStruct(res)
	if err != nil {
		return nil, err
	}
	return &commonpb.DoCommandResponse{Result: pbRes}, nil
}

// StreamTransformChanges streams changes to world state transforms to the client.
func (server *serviceServer) StreamTransformChanges(
	req *pb.StreamTransformChangesRequest,
	stream pb.WorldStateStoreService_StreamTransformChangesServer,
) error {
	ctx, span := trace.StartSpan(stream.Context(), "worldstatestore::server::StreamTransformChanges")
	defer span.End()

	svc, err := server.resource(req.Name)
	if err != nil {
		return err
	}

	changes, err := svc.StreamTransformChanges(ctx, req.Extra.AsMap())
	if err != nil {
		return err
	}

	// Send an empty response first so the client doesn't block while checking for errors.
	if err := stream.Send(&pb.StreamTransformChangesResponse{}); err != nil {
		return err
	}

	for change := range changes {
		resp := &pb.StreamTransformChangesResponse{
			ChangeType: change.ChangeType,
			Transform:  change.Transform,
		}
		if len(change.UpdatedFields) > 0 {
			resp.UpdatedFields = &fieldmaskpb.FieldMask{Paths: change.UpdatedFields}
		}
		if err := stream.Send(resp); err != nil {
			return err
		}
	}
	return nil
}

// Serve serves svc under name on lis until ctx is done.
func Serve(ctx context.Context, lis net.Listener, name string, svc Service, logger logging.Logger) error {
	srv := grpc.NewServer()
	pb.RegisterWorldStateStoreServiceServer(srv, NewRPCServiceServer(name, svc, logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()
	logger.Infow("serving world state store", "name", name, "address", lis.Addr().String())

	select {
	case <-ctx.Done():
		srv.Stop()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
