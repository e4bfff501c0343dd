package nats

import (
	"fmt"
)

// Subject used by gateways to announce a player joining a room.
const JoinRoomSubject = "bridge.joinroom"

func GetRoom2AllSubject(roomID string) string {
	return fmt.Sprintf("room.%s.room2all", roomID)
}

func GetPlayer2RoomSubject(roomID string) string {
	return fmt.Sprintf("room.%s.player2room", roomID)
}

func GetPlayerInboxSubject(playerID string) string {
	return fmt.Sprintf("player.%s.inbox", playerID)
}
