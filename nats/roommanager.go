package nats

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"openbridge.com/server/game"
	"openbridge.com/server/logging"
)

var natsLogger = logging.GetZeroLogger("nats::roommanager", nil)

type joinRoomMessage struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
}

// RoomManager drives the game layer from NATS. It owns the lazy creation of
// room adapters on first join and implements game.MessageReceiver by
// publishing to the room broadcast and player inbox subjects.
type RoomManager struct {
	nc          *natsgo.Conn
	gameManager *game.Manager

	lock        sync.Mutex
	activeRooms map[string]*NatsRoom
}

func NewRoomManager(nc *natsgo.Conn, delays game.Delays) (*RoomManager, error) {
	rm := &RoomManager{
		nc:          nc,
		activeRooms: make(map[string]*NatsRoom),
	}
	rm.gameManager = game.NewManager(rm, delays, false)
	rm.gameManager.OnRoomEnded(rm.onRoomEnded)

	_, err := nc.Subscribe(JoinRoomSubject, rm.onJoinRoom)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to subscribe to join subject")
	}
	return rm, nil
}

// GameManager exposes the registry to the REST layer.
func (rm *RoomManager) GameManager() *game.Manager {
	return rm.gameManager
}

func (rm *RoomManager) onJoinRoom(msg *natsgo.Msg) {
	var join joinRoomMessage
	err := jsoniter.Unmarshal(msg.Data, &join)
	if err != nil || join.RoomID == "" || join.PlayerID == "" {
		natsLogger.Error().Msgf("Invalid join message: %s", string(msg.Data))
		return
	}

	serverRoom := rm.gameManager.JoinRoom(join.RoomID, join.PlayerID)

	rm.lock.Lock()
	defer rm.lock.Unlock()
	if _, ok := rm.activeRooms[join.RoomID]; !ok {
		natsRoom, err := newNatsRoom(rm.nc, join.RoomID, serverRoom)
		if err != nil {
			natsLogger.Error().Str(logging.RoomIDKey, join.RoomID).
				Msgf("Failed to attach room to NATS: %s", err)
			return
		}
		rm.activeRooms[join.RoomID] = natsRoom
		natsLogger.Info().Str(logging.RoomIDKey, join.RoomID).
			Str(logging.PlayerIDKey, join.PlayerID).Msg("Room attached to NATS")
	}
}

func (rm *RoomManager) onRoomEnded(roomID string) {
	rm.lock.Lock()
	natsRoom, ok := rm.activeRooms[roomID]
	if ok {
		delete(rm.activeRooms, roomID)
	}
	rm.lock.Unlock()
	if ok {
		natsRoom.cleanup()
		natsLogger.Info().Str(logging.RoomIDKey, roomID).Msg("Room detached from NATS")
	}
}

// BroadcastRoomMessage implements game.MessageReceiver.
func (rm *RoomManager) BroadcastRoomMessage(roomID string, message *game.RoomMessage) {
	data, err := jsoniter.Marshal(message)
	if err != nil {
		natsLogger.Error().Str(logging.RoomIDKey, roomID).Msgf("Failed to marshal message: %s", err)
		return
	}
	if err := rm.nc.Publish(GetRoom2AllSubject(roomID), data); err != nil {
		natsLogger.Error().Str(logging.RoomIDKey, roomID).Msgf("Failed to publish broadcast: %s", err)
	}
}

// SendToPlayer implements game.MessageReceiver.
func (rm *RoomManager) SendToPlayer(playerID string, message *game.RoomMessage) {
	data, err := jsoniter.Marshal(message)
	if err != nil {
		natsLogger.Error().Str(logging.PlayerIDKey, playerID).Msgf("Failed to marshal message: %s", err)
		return
	}
	if err := rm.nc.Publish(GetPlayerInboxSubject(playerID), data); err != nil {
		natsLogger.Error().Str(logging.PlayerIDKey, playerID).Msgf("Failed to publish private message: %s", err)
	}
}
