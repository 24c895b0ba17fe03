// Package worldstatestore keeps the scene a visualization client renders. It applies marker
// arrays with the semantics of a persistent scene graph: the last marker sent for an identity
// wins and stays until a Delete for that identity arrives.
package worldstatestore

import (
	"context"

	"github.com/pkg/errors"
	commonpb "go.viam.com/api/common/v1"
	pb "go.viam.com/api/service/worldstatestore/v1"
)

var (
	// ErrNilResponse is returned when a service implementation returns nothing and no error.
	ErrNilResponse = errors.New("world state store returned a nil response")
	// ErrClosed is returned by a closed store.
	ErrClosed = errors.New("world state store is closed")
	// ErrTransformNotFound is returned for unknown uuids.
	ErrTransformNotFound = errors.New("transform not found")
)

// TransformChange is one change applied to the scene.
type TransformChange struct {
	ChangeType    pb.TransformChangeType
	Transform     *commonpb.Transform
	UpdatedFields []string
}

// Service is the read side of a world state store.
type Service interface {
	ListUUIDs(ctx context.Context, extra map[string]any) ([][]byte, error)
	GetTransform(ctx context.Context, uuid []byte, extra map[string]any) (*commonpb.Transform, error)
	// StreamTransformChanges returns a channel that receives every change applied after the call.
	// The channel is closed when ctx is done or the service is closed.
	StreamTransformChanges(ctx context.Context, extra map[string]any) (<-chan TransformChange, error)
	DoCommand(ctx context.Context, cmd map[string]any) (map[string]any, error)
	Close(ctx context.Context) error
}
