// Package reducer implements the pure state transitions for every action.
//
// Each reducer maps (state, payload) to a new state without mutating its
// input and without side effects. Rejected input is reported as an
// ir.ValidationError together with the unchanged state; the engine treats
// that as a silent no-op.
//
// Randomness enters only through the GENERATE_TEAMS payload seed, so replaying
// the same actions from the same state always yields the same result.
package reducer
