package simulation

import "errors"

var (
	ErrDegenerateArena = errors.New("arena must have positive finite width and height")
	ErrArenaNotSet     = errors.New("arena has not been set")
)
