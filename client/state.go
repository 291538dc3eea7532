package client

// State of a client session
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// EventKind names a session transition
type EventKind string

const (
	EventAuthStart   EventKind = "auth_start"
	EventAuthSuccess EventKind = "auth_success"
	EventAuthFailure EventKind = "auth_failure"
	EventLogout      EventKind = "logout"
	EventUserUpdated EventKind = "user_updated"
)

var transitions = map[State]map[EventKind]State{
	StateUnauthenticated: {
		EventAuthStart: StateLoading,
		EventLogout:    StateUnauthenticated,
	},
	StateLoading: {
		EventAuthSuccess: StateAuthenticated,
		EventAuthFailure: StateUnauthenticated,
		EventLogout:      StateUnauthenticated,
	},
	StateAuthenticated: {
		EventAuthStart:   StateLoading,
		EventAuthFailure: StateUnauthenticated,
		EventUserUpdated: StateAuthenticated,
		EventLogout:      StateUnauthenticated,
	},
}

// Snapshot is an immutable view of a session. A user and token are present
// exactly when the state is StateAuthenticated.
type Snapshot struct {
	state State
	user  *User
	token string
	err   string
}

func (s Snapshot) State() State { return s.state }

// User returns a copy of the signed in user, nil unless authenticated
func (s Snapshot) User() *User { return s.user.clone() }

func (s Snapshot) Token() string { return s.token }

// Err is the message of the last failed authentication
func (s Snapshot) Err() string { return s.err }

func (s Snapshot) IsAuthenticated() bool { return s.state == StateAuthenticated }

func (s Snapshot) next(kind EventKind) (State, error) {
	to, ok := transitions[s.state][kind]
	if !ok {
		return s.state, ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"from":  s.state.String(),
			"event": string(kind),
		})
	}
	return to, nil
}

// Begin moves to loading before a network round trip
func (s Snapshot) Begin() (Snapshot, error) {
	to, err := s.next(EventAuthStart)
	if err != nil {
		return s, err
	}
	return Snapshot{state: to}, nil
}

// Succeed moves to authenticated with user and token
func (s Snapshot) Succeed(user User, token string) (Snapshot, error) {
	to, err := s.next(EventAuthSuccess)
	if err != nil {
		return s, err
	}
	return Snapshot{state: to, user: user.clone(), token: token}, nil
}

// Fail drops credentials and records message
func (s Snapshot) Fail(message string) (Snapshot, error) {
	to, err := s.next(EventAuthFailure)
	if err != nil {
		return s, err
	}
	return Snapshot{state: to, err: message}, nil
}

// SignOut is allowed from every state
func (s Snapshot) SignOut() Snapshot {
	to, _ := s.next(EventLogout)
	return Snapshot{state: to}
}

// WithUser replaces the user of an authenticated session
func (s Snapshot) WithUser(user User) (Snapshot, error) {
	to, err := s.next(EventUserUpdated)
	if err != nil {
		return s, err
	}
	return Snapshot{state: to, user: user.clone(), token: s.token}, nil
}
