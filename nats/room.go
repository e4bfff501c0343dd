package nats

import (
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"

	"openbridge.com/server/game"
	"openbridge.com/server/logging"
)

var natsRoomLogger = logging.GetZeroLogger("nats::room", nil)

// NatsRoom is the adapter between one room's NATS subjects and its game
// loop. Inbound player actions arrive on room.<id>.player2room and are
// queued into the room mailbox; the room never touches NATS directly.
type NatsRoom struct {
	roomID string
	nc     *natsgo.Conn

	player2RoomSubscription *natsgo.Subscription
	serverRoom              *game.Room
}

func newNatsRoom(nc *natsgo.Conn, roomID string, serverRoom *game.Room) (*NatsRoom, error) {
	natsRoom := &NatsRoom{
		roomID:     roomID,
		nc:         nc,
		serverRoom: serverRoom,
	}

	subject := GetPlayer2RoomSubject(roomID)
	var err error
	natsRoom.player2RoomSubscription, err = nc.Subscribe(subject, natsRoom.player2Room)
	if err != nil {
		natsRoomLogger.Error().Str(logging.RoomIDKey, roomID).
			Msgf("Failed to subscribe to %s", subject)
		return nil, err
	}
	return natsRoom, nil
}

func (n *NatsRoom) player2Room(msg *natsgo.Msg) {
	var action game.PlayerAction
	err := jsoniter.Unmarshal(msg.Data, &action)
	if err != nil {
		natsRoomLogger.Error().Str(logging.RoomIDKey, n.roomID).
			Msgf("Invalid player action json: %s", string(msg.Data))
		return
	}
	if action.PlayerID == "" {
		natsRoomLogger.Debug().Str(logging.RoomIDKey, n.roomID).
			Msg("Dropping action without player id")
		return
	}
	action.RoomID = n.roomID
	n.serverRoom.QueueAction(&action)
}

func (n *NatsRoom) cleanup() {
	if n.player2RoomSubscription != nil {
		n.player2RoomSubscription.Unsubscribe()
	}
}
