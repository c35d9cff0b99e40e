package world

import "errors"

// Error taxonomy shared by the coordinator, gateway and controllers.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrEnemyNotFound    = errors.New("enemy not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStaleRequest     = errors.New("stale request")
	ErrSessionEnded     = errors.New("session has ended")
	ErrCapacityExceeded = errors.New("checkpoint capacity exceeded")
)
