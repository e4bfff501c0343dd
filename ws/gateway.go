// Package ws is the connection gateway. It gives each websocket client a
// connection identity and bridges its frames to the NATS fabric the game
// server listens on; the game layer itself never sees a socket.
package ws

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"

	"openbridge.com/server/game"
	"openbridge.com/server/logging"
	natssubjects "openbridge.com/server/nats"
)

var gatewayLogger = logging.GetZeroLogger("ws::gateway", nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The gateway fronts browser clients from arbitrary origins.
		return true
	},
}

type Gateway struct {
	nc   *natsgo.Conn
	port int
}

func NewGateway(nc *natsgo.Conn, port int) *Gateway {
	return &Gateway{nc: nc, port: port}
}

// Run blocks serving websocket connections on /ws.
func (gw *Gateway) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.handleConnection)
	addr := fmt.Sprintf(":%d", gw.port)
	gatewayLogger.Info().Msgf("Websocket gateway listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

type clientConn struct {
	playerID string
	conn     *websocket.Conn
	nc       *natsgo.Conn

	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once

	roomID           string
	inboxSubscription *natsgo.Subscription
	roomSubscription  *natsgo.Subscription
}

type helloMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

func (gw *Gateway) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gatewayLogger.Error().Msgf("Failed to upgrade connection: %s", err)
		return
	}

	client := &clientConn{
		playerID:  uuid.New().String(),
		conn:      conn,
		nc:        gw.nc,
		writeChan: make(chan []byte, 64),
		closeChan: make(chan struct{}),
	}
	gatewayLogger.Info().Str(logging.PlayerIDKey, client.playerID).Msg("Client connected")

	client.inboxSubscription, err = gw.nc.Subscribe(
		natssubjects.GetPlayerInboxSubject(client.playerID), client.forward)
	if err != nil {
		gatewayLogger.Error().Str(logging.PlayerIDKey, client.playerID).
			Msgf("Failed to subscribe to inbox: %s", err)
		conn.Close()
		return
	}

	go client.writeLoop()

	hello, _ := jsoniter.Marshal(helloMessage{Type: "connected", PlayerID: client.playerID})
	client.send(hello)

	client.readLoop()
}

// forward relays a NATS message (inbox or room broadcast) down the socket.
func (c *clientConn) forward(msg *natsgo.Msg) {
	c.send(msg.Data)
}

func (c *clientConn) send(data []byte) {
	select {
	case c.writeChan <- data:
	case <-c.closeChan:
	default:
		// Slow consumer; drop rather than stall the NATS callback.
		gatewayLogger.Warn().Str(logging.PlayerIDKey, c.playerID).Msg("Dropping message to slow client")
	}
}

func (c *clientConn) writeLoop() {
	for {
		select {
		case data := <-c.writeChan:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				gatewayLogger.Debug().Str(logging.PlayerIDKey, c.playerID).
					Msgf("Write failed: %s", err)
				// Close the socket; the read loop notices and runs teardown.
				c.conn.Close()
				return
			}
		case <-c.closeChan:
			return
		}
	}
}

func (c *clientConn) readLoop() {
	defer c.teardown()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				gatewayLogger.Debug().Str(logging.PlayerIDKey, c.playerID).
					Msgf("Read failed: %s", err)
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *clientConn) handleFrame(data []byte) {
	var action game.PlayerAction
	if err := jsoniter.Unmarshal(data, &action); err != nil {
		gatewayLogger.Debug().Str(logging.PlayerIDKey, c.playerID).
			Msgf("Dropping malformed frame: %s", string(data))
		return
	}
	// Trust nothing from the wire about identity.
	action.PlayerID = c.playerID

	if action.Type == game.ActionJoinRoom {
		c.joinRoom(action.RoomID)
		return
	}
	if c.roomID == "" {
		gatewayLogger.Debug().Str(logging.PlayerIDKey, c.playerID).
			Msgf("Dropping action [%s] before any room join", action.Type)
		return
	}
	payload, err := jsoniter.Marshal(&action)
	if err != nil {
		return
	}
	if err := c.nc.Publish(natssubjects.GetPlayer2RoomSubject(c.roomID), payload); err != nil {
		gatewayLogger.Error().Str(logging.PlayerIDKey, c.playerID).
			Msgf("Failed to publish action: %s", err)
	}
}

func (c *clientConn) joinRoom(roomID string) {
	if roomID == "" || roomID == c.roomID {
		return
	}
	if c.roomSubscription != nil {
		c.roomSubscription.Unsubscribe()
		c.roomSubscription = nil
	}

	sub, err := c.nc.Subscribe(natssubjects.GetRoom2AllSubject(roomID), c.forward)
	if err != nil {
		gatewayLogger.Error().Str(logging.PlayerIDKey, c.playerID).
			Msgf("Failed to subscribe to room %s: %s", roomID, err)
		return
	}
	c.roomSubscription = sub
	c.roomID = roomID

	join, _ := jsoniter.Marshal(map[string]string{"playerId": c.playerID, "roomId": roomID})
	if err := c.nc.Publish(natssubjects.JoinRoomSubject, join); err != nil {
		gatewayLogger.Error().Str(logging.PlayerIDKey, c.playerID).
			Msgf("Failed to publish join: %s", err)
	}
}

// teardown runs once per connection. A client that vanished mid-game takes
// its seat's whole room with it, so signal a disconnect to the room.
func (c *clientConn) teardown() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		if c.roomID != "" {
			disconnect, _ := jsoniter.Marshal(&game.PlayerAction{
				Type:     game.ActionDisconnect,
				PlayerID: c.playerID,
				RoomID:   c.roomID,
			})
			c.nc.Publish(natssubjects.GetPlayer2RoomSubject(c.roomID), disconnect)
		}
		if c.inboxSubscription != nil {
			c.inboxSubscription.Unsubscribe()
		}
		if c.roomSubscription != nil {
			c.roomSubscription.Unsubscribe()
		}
		c.conn.Close()
		gatewayLogger.Info().Str(logging.PlayerIDKey, c.playerID).Msg("Client disconnected")
	})
}
