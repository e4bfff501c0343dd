package game

import (
	"sync"

	"openbridge.com/server/logging"
)

var managerLogger = logging.GetZeroLogger("game::manager", nil)

// Manager is the registry of active rooms. Rooms are created lazily by the
// join path only; every other lookup fails with RoomNotFoundError.
type Manager struct {
	lock            sync.Mutex
	rooms           map[string]*Room
	messageReceiver MessageReceiver
	delays          Delays
	testMode        bool
	roomEndedCb     func(roomID string)
}

// NewManager builds the room registry. testMode runs rooms without their
// own goroutines or timers so tests can drive them synchronously.
func NewManager(messageReceiver MessageReceiver, delays Delays, testMode bool) *Manager {
	return &Manager{
		rooms:           make(map[string]*Room),
		messageReceiver: messageReceiver,
		delays:          delays,
		testMode:        testMode,
	}
}

// OnRoomEnded registers a callback invoked after a room leaves the registry,
// letting the transport driver tear down its subscriptions.
func (m *Manager) OnRoomEnded(cb func(roomID string)) {
	m.roomEndedCb = cb
}

// JoinRoom binds a player to a room, creating the room on first join, and
// queues the join action.
func (m *Manager) JoinRoom(roomID string, playerID string) *Room {
	m.lock.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		managerLogger.Info().Str(logging.RoomIDKey, roomID).Msg("Creating new room")
		room = newRoom(roomID, m, m.messageReceiver, m.delays, m.testMode)
		m.rooms[roomID] = room
		if !m.testMode {
			go room.runRoom()
		}
	}
	m.lock.Unlock()

	join := &PlayerAction{Type: ActionJoinRoom, PlayerID: playerID, RoomID: roomID}
	if m.testMode {
		room.handleAction(join)
	} else {
		room.QueueAction(join)
	}
	return room
}

// GetRoom returns an existing room; it never creates one.
func (m *Manager) GetRoom(roomID string) (*Room, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, RoomNotFoundError{RoomID: roomID}
	}
	return room, nil
}

// ActiveRooms returns the last published snapshot of every live room.
func (m *Manager) ActiveRooms() []*RoomSnapshot {
	m.lock.Lock()
	defer m.lock.Unlock()
	snapshots := make([]*RoomSnapshot, 0, len(m.rooms))
	for _, room := range m.rooms {
		snapshots = append(snapshots, room.Snapshot())
	}
	return snapshots
}

func (m *Manager) roomEnded(roomID string) {
	m.lock.Lock()
	delete(m.rooms, roomID)
	m.lock.Unlock()
	managerLogger.Info().Str(logging.RoomIDKey, roomID).Msg("Room removed from registry")
	if m.roomEndedCb != nil {
		m.roomEndedCb(roomID)
	}
}
