// Package store holds the client-side view of the remote task list.
//
// A Controller owns the task list, the loading flag, the draft text of a
// not yet submitted task, and a per-task operation status. Each operation
// makes exactly one backend call and then patches local state from that
// call's own input and output; the list is only replaced wholesale by Load.
//
// A successful Update or Delete is taken to mean the backend now matches the
// local patch exactly. Partial success is not modeled and the backend is not
// re-read to confirm.
//
// Operations may overlap. The state mutex is held only while reading or
// patching local state, never across a backend call, so two operations on
// the same task can race at the backend (last write wins there).
package store
