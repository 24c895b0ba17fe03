package worldstatestore

import (
	"math"

	"github.com/golang/geo/r3"
	commonpb "go.viam.com/api/common/v1"
	"google.golang.org/protobuf/types/known/structpb"

	"go.viam.com/trajviz/visualization"
)

// markers are in meters, transforms in millimeters.
const mmPerMeter = 1000

// metadata keys of converted transforms.
const (
	metadataNamespace = "namespace"
	metadataType      = "type"
	metadataColor     = "color"
	metadataOpacity   = "opacity"
	metadataPoints    = "points"
)

// MarkerToTransform converts a Modify marker into the transform the scene keeps for it.
func MarkerToTransform(m visualization.Marker) (*commonpb.Transform, error) {
	frame := m.FrameID
	if frame == "" {
		frame = visualization.DefaultFrameID
	}

	points := make([]any, 0, len(m.Points))
	for _, p := range m.Points {
		points = append(points, map[string]any{"x": p.X * mmPerMeter, "y": p.Y * mmPerMeter, "z": p.Z * mmPerMeter})
	}
	metadata, err := structpb.NewStruct(map[string]any{
		metadataNamespace: m.Namespace,
		metadataType:      m.Type.String(),
		metadataColor: map[string]any{
			"r": colorByte(m.Color.R),
			"g": colorByte(m.Color.G),
			"b": colorByte(m.Color.B),
		},
		metadataOpacity: m.Color.A,
		metadataPoints:  points,
	})
	if err != nil {
		return nil, err
	}

	return &commonpb.Transform{
		ReferenceFrame: m.Key(),
		PoseInObserverFrame: &commonpb.PoseInFrame{
			ReferenceFrame: frame,
			Pose: &commonpb.Pose{
				X: m.Position.X * mmPerMeter, Y: m.Position.Y * mmPerMeter, Z: m.Position.Z * mmPerMeter,
				Theta: 0, OX: 0, OY: 0, OZ: 1,
			},
		},
		PhysicalObject: markerGeometry(m),
		Uuid:           []byte(m.Key()),
		Metadata:       metadata,
	}, nil
}

// markerGeometry returns the solid for shaped markers. Lines and triangles only carry points.
func markerGeometry(m visualization.Marker) *commonpb.Geometry {
	scale := m.Scale.Mul(mmPerMeter)
	switch m.Type {
	case visualization.Point, visualization.Sphere:
		return &commonpb.Geometry{
			Label: m.Key(),
			GeometryType: &commonpb.Geometry_Sphere{
				Sphere: &commonpb.Sphere{RadiusMm: scale.X / 2},
			},
		}
	case visualization.Cube:
		return &commonpb.Geometry{
			Label: m.Key(),
			GeometryType: &commonpb.Geometry_Box{
				Box: &commonpb.RectangularPrism{DimsMm: &commonpb.Vector3{X: scale.X, Y: scale.Y, Z: scale.Z}},
			},
		}
	case visualization.Cylinder:
		radius := math.Max(scale.X, scale.Y) / 2
		return &commonpb.Geometry{
			Label: m.Key(),
			GeometryType: &commonpb.Geometry_Capsule{
				Capsule: &commonpb.Capsule{RadiusMm: radius, LengthMm: math.Max(scale.Z, 2*radius)},
			},
		}
	case visualization.TriangleList, visualization.LineStrip:
		return nil
	}
	return nil
}

func colorByte(c float64) float64 {
	return math.Round(math.Max(0, math.Min(1, c)) * 255)
}

// TransformPoints returns the points stored in a transform's metadata, in meters.
func TransformPoints(tf *commonpb.Transform) []r3.Vector {
	var out []r3.Vector
	for _, v := range tf.GetMetadata().GetFields()[metadataPoints].GetListValue().GetValues() {
		fields := v.GetStructValue().GetFields()
		out = append(out, r3.Vector{
			X: fields["x"].GetNumberValue() / mmPerMeter,
			Y: fields["y"].GetNumberValue() / mmPerMeter,
			Z: fields["z"].GetNumberValue() / mmPerMeter,
		})
	}
	return out
}

// TransformNamespace returns the marker namespace a transform was created from.
func TransformNamespace(tf *commonpb.Transform) string {
	return tf.GetMetadata().GetFields()[metadataNamespace].GetStringValue()
}
