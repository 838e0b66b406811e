// Package collision defines the pluggable collision service a simulation
// world may use instead of its own broad and narrow phase.
package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/scene"
)

// Collision is one contact point. Normal points from the first geometry of
// the pair towards the second.
type Collision struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	Depth  float64
}

// Pair lists the contacts between two geometries, GeometryID[0] <
// GeometryID[1].
type Pair struct {
	GeometryID  [2]int
	Collisions []Collision
}

// Detector is a collision service keyed by geometry id. Ids are assigned
// densely in AddGeometry order starting at zero. A nil shape still consumes
// an id so callers can keep index arithmetic.
type Detector interface {
	Name() string
	ClearGeometries()
	NumGeometries() int
	AddGeometry(shape scene.Node) int
	SetGeometryStatic(id int, static bool)
	EnableGeometryCache(on bool) bool
	ClearGeometryCache(shape scene.Node)
	ClearAllGeometryCaches()
	SetNonInterferingPair(id1, id2 int)
	MakeReady() bool
	UpdatePosition(id int, t mgl64.Mat4)
	DetectCollisions(cb func(Pair))
}
