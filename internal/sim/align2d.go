package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

var planeAlign = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})

// align2D removes the out-of-plane drift of a root body in the flipped
// basis. The orientation is turned back into the model frame, reduced to
// its rotation about model y and turned forward again; the angular
// velocity keeps only its solver z component.
func align2D(b *dynamo.Body) {
	q := planeAlign.Mul(b.Quaternion())
	q.V[0] = 0
	q.V[2] = 0
	if q.Len() < 1e-12 {
		q = mgl64.QuatIdent()
	}
	q = q.Normalize()
	b.SetQuaternion(planeAlign.Inverse().Mul(q))

	w := b.AngularVel()
	b.SetAngularVel(mgl64.Vec3{0, 0, w[2]})
}
