// Package device provides the nonlinear models of the network components.
//
// Every device class implements [Model]:
//
//   - droop, droop_fast, simple_droop, vsm, gfl: inverter-based resources
//   - droop_plant, vsm_plant, gfl_plant: the same units under a plant-level
//     P/Q controller with a communication delay
//   - sg: synchronous generator with exciter and governor
//   - line, load: RL branches in the global frame
//   - infinite_bus: stiff voltage source fixing the system frequency
//
// A model answers two questions. For the power flow it gives two terminal
// equations in the bus voltage, the output current and the system
// frequency, and rebuilds its full state vector from a solved terminal.
// For linearization it evaluates dx/dt and the global D-Q output current.
//
// # Frames
//
// Local d-q quantities relate to the global D-Q frame through the device
// angle: x_D + j x_Q = (x_d + j x_q)·e^{jδ}. The global frame rotates at
// the centre-of-inertia frequency wcom, so dδ/dt = wbase·(w − wcom).
package device
