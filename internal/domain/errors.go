package domain

import "errors"

var (
	ErrAuth                = errors.New("authentication failed")
	ErrInvalidMessage      = errors.New("invalid message format")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrInvalidMatchType    = errors.New("unrecognized match type")
	ErrMatchNotReady       = errors.New("match not ready to start")
	ErrUserAlreadyInMatch  = errors.New("user already in an active match")
	ErrMatchAlreadyStarted = errors.New("match already started")
	ErrRateLimited         = errors.New("too many join attempts")
)

// Stable numeric codes delivered in the outbound message. 1001-1007 predate
// this service and must not be renumbered; new kinds append.
const (
	CodeOK                 = 0
	CodeAuth               = 1001
	CodeInvalidMessage     = 1002
	CodeTransport          = 1003
	CodeStore              = 1004
	CodeConnectionNotFound = 1005
	CodeMatchNotFound      = 1006
	CodeInvalidMatchType   = 1007
	CodeMatchNotReady      = 1008
	CodeUserAlreadyInMatch = 1009
	CodeMatchStarted       = 1010
	CodeRateLimited        = 1011
)

// CodeOf maps an error to its wire code. Anything unrecognized is reported
// as a store failure, the catch-all for collaborator errors.
func CodeOf(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrAuth):
		return CodeAuth
	case errors.Is(err, ErrInvalidMessage):
		return CodeInvalidMessage
	case errors.Is(err, ErrConnectionNotFound):
		return CodeConnectionNotFound
	case errors.Is(err, ErrMatchNotFound):
		return CodeMatchNotFound
	case errors.Is(err, ErrInvalidMatchType):
		return CodeInvalidMatchType
	case errors.Is(err, ErrMatchNotReady):
		return CodeMatchNotReady
	case errors.Is(err, ErrUserAlreadyInMatch):
		return CodeUserAlreadyInMatch
	case errors.Is(err, ErrMatchAlreadyStarted):
		return CodeMatchStarted
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeStore
	}
}
