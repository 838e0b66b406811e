// Package control provides the joint controllers run before every step.
//
// A [Controller] reads the link state of one body and writes its joint
// commands: Link.U for torque actuation and tracked surfaces, Link.Dq for
// velocity actuation and pseudo continuous tracks.
//
//   - [PID]: servo of one joint to a target position
//   - [LQR]: state feedback on the joint positions and rates
//   - [Drive]: constant surface speeds for tracks and wheels
//   - [Schedule]: timed actions such as switching devices
//   - [None]: leaves every command untouched
//
// # Usage
//
//	pid := control.NewPID(0, 40, 0, 8, 0.3) // joint, Kp, Ki, Kd, target
//	pid.Compute(body, w.Time())
//	w.StepAll()
package control
