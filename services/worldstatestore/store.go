package worldstatestore

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"
	commonpb "go.viam.com/api/common/v1"
	pb "go.viam.com/api/service/worldstatestore/v1"

	"go.viam.com/trajviz/logging"
	"go.viam.com/trajviz/visualization"
)

// DefaultChangeBuffer is the number of changes a subscriber may fall behind before changes are dropped.
const DefaultChangeBuffer = 100

// updatedFields lists the fields a Modify replaces on an existing transform.
var updatedFields = []string{"pose_in_observer_frame", "physical_object", "metadata"}

// Store is an in-memory Service that marker arrays are published to.
type Store struct {
	mu sync.RWMutex

	transforms  map[string]*commonpb.Transform
	subscribers map[chan TransformChange]struct{}
	closed      bool
	done        chan struct{}

	bufferSize int
	logger     logging.Logger
}

// NewStore returns an empty store.
func NewStore(logger logging.Logger) *Store {
	return &Store{
		transforms:  make(map[string]*commonpb.Transform),
		subscribers: make(map[chan TransformChange]struct{}),
		done:        make(chan struct{}),
		bufferSize:  DefaultChangeBuffer,
		logger:      logger,
	}
}

// Publish applies arr in order. A Modify adds or replaces the transform of its identity. A Delete
// removes it if present and is ignored otherwise. Either every marker is applied or none is.
func (s *Store) Publish(ctx context.Context, arr visualization.MarkerArray) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	converted := make([]*commonpb.Transform, len(arr.Markers))
	for i, m := range arr.Markers {
		if m.Action != visualization.Modify {
			continue
		}
		tf, err := MarkerToTransform(m)
		if err != nil {
			return errors.Wrapf(err, "converting marker %s", m.Key())
		}
		converted[i] = tf
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var added, updated, removed int
	for i, m := range arr.Markers {
		key := m.Key()
		existing, ok := s.transforms[key]
		switch {
		case m.Action == visualization.Delete:
			if !ok {
				continue
			}
			delete(s.transforms, key)
			removed++
			s.emit(TransformChange{ChangeType: pb.TransformChangeType_TRANSFORM_CHANGE_TYPE_REMOVED, Transform: existing})
		case ok:
			s.transforms[key] = converted[i]
			updated++
			s.emit(TransformChange{
				ChangeType:    pb.TransformChangeType_TRANSFORM_CHANGE_TYPE_UPDATED,
				Transform:     converted[i],
				UpdatedFields: updatedFields,
			})
		default:
			s.transforms[key] = converted[i]
			added++
			s.emit(TransformChange{ChangeType: pb.TransformChangeType_TRANSFORM_CHANGE_TYPE_ADDED, Transform: converted[i]})
		}
	}
	s.logger.Debugw("published markers", "added", added, "updated", updated, "removed", removed, "size", len(s.transforms))
	return nil
}

// emit must be called with mu held.
func (s *Store) emit(change TransformChange) {
	for ch := range s.subscribers {
		select {
		case ch <- change:
		default:
			// subscriber is full, skip this change
		}
	}
}

// ListUUIDs returns the uuids of all transforms in the store, sorted.
func (s *Store) ListUUIDs(ctx context.Context, extra map[string]any) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uuids := make([][]byte, 0, len(s.transforms))
	for _, tf := range s.transforms {
		uuids = append(uuids, tf.Uuid)
	}
	slices.SortFunc(uuids, bytes.Compare)
	return uuids, nil
}

// GetTransform returns the transform for the given uuid.
func (s *Store) GetTransform(ctx context.Context, uuid []byte, extra map[string]any) (*commonpb.Transform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tf, ok := s.transforms[string(uuid)]
	if !ok {
		return nil, errors.Wrapf(ErrTransformNotFound, "uuid %q", uuid)
	}
	return tf, nil
}

// StreamTransformChanges subscribes to changes published after the call.
func (s *Store) StreamTransformChanges(ctx context.Context, extra map[string]any) (<-chan TransformChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	ch := make(chan TransformChange, s.bufferSize)
	s.subscribers[ch] = struct{}{}
	go func() {
		select {
		case <-ctx.Done():
			s.unsubscribe(ch)
		case <-s.done:
		}
	}()
	return ch, nil
}

func (s *Store) unsubscribe(ch chan TransformChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Len returns the number of transforms in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transforms)
}

// Namespace returns the transforms created from markers of namespace, sorted by uuid.
func (s *Store) Namespace(namespace string) []*commonpb.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*commonpb.Transform
	for _, tf := range s.transforms {
		if TransformNamespace(tf) == namespace {
			out = append(out, tf)
		}
	}
	slices.SortFunc(out, func(a, b *commonpb.Transform) int { return bytes.Compare(a.Uuid, b.Uuid) })
	return out
}

// DoCommand supports "clear", which removes every transform, and "count", which returns the
// number of transforms, optionally restricted to a "namespace".
func (s *Store) DoCommand(ctx context.Context, cmd map[string]any) (map[string]any, error) {
	name, _ := cmd["command"].(string)
	switch name {
	case "clear":
		s.mu.Lock()
		defer s.mu.Unlock()
		removed := len(s.transforms)
		for key, tf := range s.transforms {
			delete(s.transforms, key)
			s.emit(TransformChange{ChangeType: pb.TransformChangeType_TRANSFORM_CHANGE_TYPE_REMOVED, Transform: tf})
		}
		return map[string]any{"removed": removed}, nil
	case "count":
		if ns, ok := cmd["namespace"].(string); ok {
			return map[string]any{"count": len(s.Namespace(ns))}, nil
		}
		return map[string]any{"count": s.Len()}, nil
	default:
		return nil, errors.Errorf("unknown command %q", name)
	}
}

// Close closes every subscription. Publishing to a closed store fails.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	return nil
}

var _ Service = (*Store)(nil)
