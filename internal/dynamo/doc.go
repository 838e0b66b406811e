// Package dynamo is a constraint-based rigid-body dynamics solver.
//
// A [World] owns rigid [Body] values and the joints connecting them. Every
// joint contributes velocity-level constraint rows; each step the world
// assembles the rows into a [Problem] and hands it to a [Stepper], which
// solves for the constraint impulses:
//
//   - [Hinge], [Slider], [Piston]: one or two free axes with optional
//     stops and a velocity motor
//   - [Fixed], [Ball]: welds and point constraints
//   - [Plane2D]: keeps a body in the z=0 plane
//   - [ContactJoint]: one contact point with Coulomb friction, optionally
//     anisotropic with a target slip speed
//
// Global error reduction (ERP) and constraint force mixing (CFM) soften
// every row the same way. Contacts additionally honour a surface layer
// depth and a cap on the correcting velocity.
//
// # Example
//
//	w := dynamo.NewWorld()
//	w.SetGravity(mgl64.Vec3{0, 0, -9.80665})
//	b := w.CreateBody()
//	b.SetMass(dynamo.BoxMass(1, mgl64.Vec3{1, 1, 1}))
//	w.Step(0.001, integrators.NewQuickStep(50, 1.3))
//
// # Thread Safety
//
// A World and everything created from it must be driven from a single
// goroutine. Independent worlds may step concurrently.
package dynamo
