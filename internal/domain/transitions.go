// Transition tables for the request and session state machines.
//
// Status changes go through these tables rather than ad hoc writes so that an
// illegal transition is rejected in one place and the legal set stays closed.
// The reschedule of a cancelled session is deliberately absent here: it is a
// delete-and-replace, not a status change on the cancelled row.
package domain

// requestTransitions lists the legal next states per request status.
// Declined and cancelled are terminal. Accepted changes only through the
// derived session (cancel resets the request to accepted, a no-op here).
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending: {RequestAccepted, RequestDeclined, RequestCancelled},
}

// sessionTransitions lists the legal next states per session status.
// scheduled → scheduled covers reschedules of a live session.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionScheduled:  {SessionScheduled, SessionInProgress, SessionCancelled},
	SessionInProgress: {SessionCompleted, SessionCancelled},
}

// CanTransition reports whether a request may move from its current status
// to the given one.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the request status admits no further transition.
func (s RequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0 && s != RequestAccepted
}

// CanTransition reports whether a session may move from its current status
// to the given one.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	for _, next := range sessionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether the session occupies its time slot for conflict
// purposes (scheduled or currently running).
func (s SessionStatus) Active() bool {
	return s == SessionScheduled || s == SessionInProgress
}
