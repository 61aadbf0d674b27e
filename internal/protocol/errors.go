package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrInternal      = "E_INTERNAL"

	// Path lifecycle.
	ErrNoPath        = "E_NO_PATH"
	ErrTimeout       = "E_TIMEOUT"
	ErrGoalChanged   = "E_GOAL_CHANGED"
	ErrPathStopped   = "E_PATH_STOPPED"
	ErrDig           = "E_DIG"
	ErrPlace         = "E_PLACE"
	ErrStuck         = "E_STUCK"
	ErrNoScaffolding = "E_NO_SCAFFOLDING"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrInternal:        {},
	ErrNoPath:          {},
	ErrTimeout:         {},
	ErrGoalChanged:     {},
	ErrPathStopped:     {},
	ErrDig:             {},
	ErrPlace:           {},
	ErrStuck:           {},
	ErrNoScaffolding:   {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
