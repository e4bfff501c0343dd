package game

import (
	"openbridge.com/server/bridge"
	"openbridge.com/server/odds"
)

// Inbound action types. Names match the client event protocol.
const (
	ActionJoinRoom    = "joinRoom"
	ActionTakeSeat    = "takeSeat"
	ActionLeaveSeat   = "leaveSeat"
	ActionToggleReady = "toggleReady"
	ActionDealCards   = "dealCards"
	ActionPlaceBet    = "placeBet"
	ActionSubmitBid   = "submitBid"
	ActionPlayCard    = "playCard"
	ActionDisconnect  = "disconnect"
)

// Outbound message types.
const (
	MessageRoomUpdate = "roomUpdate"
	MessageYourHand   = "yourHand"
	MessageOddsUpdate = "oddsUpdate"
	MessageRoomClosed = "roomClosed"
)

// BetInfo is a spectator's wager: which hidden hand they are observing and
// their prediction of the final contract ("3NT", "4", "H", or partial).
type BetInfo struct {
	TargetSeat bridge.Seat `json:"targetSeat"`
	Prediction string      `json:"prediction"`
}

// PlayerAction is an inbound action from the transport, already stamped with
// the acting connection's identity.
type PlayerAction struct {
	Type     string      `json:"type"`
	PlayerID string      `json:"playerId"`
	RoomID   string      `json:"roomId,omitempty"`
	Seat     bridge.Seat `json:"seat,omitempty"`
	Bid      string      `json:"bid,omitempty"`
	Card     string      `json:"card,omitempty"`
	Bet      *BetInfo    `json:"bet,omitempty"`
}

// BidEntry is one auction call.
type BidEntry struct {
	Seat bridge.Seat `json:"seat"`
	Bid  bridge.Bid  `json:"bid"`
}

// RoomSnapshot is the full public state of a room. Hands are never included
// here; they travel only in per-recipient yourHand messages.
type RoomSnapshot struct {
	RoomID           string               `json:"roomId"`
	Seats            map[bridge.Seat]string `json:"seats"`
	ReadyPlayers     map[bridge.Seat]bool   `json:"readyPlayers"`
	GameState        GameState            `json:"gameState"`
	LastBid          *bridge.Bid          `json:"lastBid"`
	Declarer         bridge.Seat          `json:"declarer,omitempty"`
	BidHistory       []BidEntry           `json:"bidHistory"`
	CurrentTurn      bridge.Seat          `json:"currentTurn,omitempty"`
	PlayedCards      []bridge.PlayedCard  `json:"playedCards"`
	Tricks           map[bridge.Seat]int  `json:"tricks"`
	TotalTricks      int                  `json:"totalTricks"`
	Spectators       []string             `json:"spectators"`
	BettingCountdown int                  `json:"bettingCountdown,omitempty"`
}

// RoomMessage is an outbound message, either broadcast to a room or
// delivered to one connection.
type RoomMessage struct {
	Type    string         `json:"type"`
	Room    *RoomSnapshot  `json:"room,omitempty"`
	// Hand has no omitempty so that an explicit empty hand still reaches
	// the client when a seat is vacated.
	Hand    []bridge.Card  `json:"hand"`
	Odds    *odds.Result   `json:"odds,omitempty"`
	Quote   float64        `json:"quote,omitempty"`
	Message string         `json:"message,omitempty"`
}

// MessageReceiver is the transport capability injected into the game layer.
// The game never talks to connections directly.
type MessageReceiver interface {
	BroadcastRoomMessage(roomID string, message *RoomMessage)
	SendToPlayer(playerID string, message *RoomMessage)
}
