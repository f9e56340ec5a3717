package game

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomLocked   = errors.New("room locked")
	ErrKicked       = errors.New("kicked from room")
)
