// Package engine implements the teamsplit state container.
//
// The Store owns the application state and exposes Dispatch, State and
// Subscribe. Every dispatched action travels through an ordered middleware
// pipeline into the reducer, after which subscribers are notified.
//
// ARCHITECTURE:
//
// Dispatch Flow:
//
//	Dispatch(action)
//	  → Logging      (records before/after, no state effect)
//	  → Contain      (recovers failures, re-dispatches INTERNAL_ERROR)
//	  → History      (TIME_TRAVEL restores from the buffer; normal actions are
//	                  appended after the reducer runs)
//	  → Invariants   (checks the resulting state, warn-only)
//	  → custom stages registered with WithMiddleware
//	  → reducer.Reduce
//	→ notify subscribers (registration order, synchronous)
//
// Single-Threaded Model:
// A Dispatch call runs the whole pipeline, reducer and notification before it
// returns. Store is not safe for concurrent use; hosts that serve concurrent
// callers (see internal/httpapi) serialize access with their own mutex.
//
// Error Policy:
// Nothing escapes Dispatch. Rejected input (ir.ValidationError) is a silent
// no-op; unexpected failures and panics become INTERNAL_ERROR actions;
// invariant violations are logged and never roll back. Callers detect
// rejection by comparing state before and after.
//
// Listener panics are NOT recovered by the Store.
package engine
