package game

import "fmt"

type RoomNotFoundError struct {
	RoomID string
}

func (e RoomNotFoundError) Error() string {
	return fmt.Sprintf("Room not found: %s", e.RoomID)
}

type InvalidActionError struct {
	Msg string
}

func (e InvalidActionError) Error() string {
	return e.Msg
}
