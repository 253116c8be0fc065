// Package harness runs dispatch scenarios against a fresh Store.
//
// A scenario is a YAML file listing actions to dispatch in order, an
// optional per-step expectation (changed or unchanged), and assertions on
// the final state. Every run uses a deterministic clock, session ID and wall
// time, so the step trace is byte-stable and can be compared against golden
// files in testdata/golden.
//
// Example:
//
//	name: two-kims
//	description: numbering a duplicate first name
//	steps:
//	  - action: SET_TOTAL_MEMBERS
//	    payload: {count: 2}
//	  - action: CONFIRM_TOTAL_MEMBERS
//	  - action: ADD_MEMBER
//	    payload: {name: Kim}
//	  - action: ADD_MEMBER
//	    payload: {name: Kim}
//	    expect: changed
//	assertions:
//	  - type: members
//	    members: [Kim-1, Kim-2]
package harness
