package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openbridge.com/server/bridge"
)

type testReceiver struct {
	broadcasts []*RoomMessage
	private    map[string][]*RoomMessage
}

func newTestReceiver() *testReceiver {
	return &testReceiver{private: make(map[string][]*RoomMessage)}
}

func (t *testReceiver) BroadcastRoomMessage(roomID string, message *RoomMessage) {
	t.broadcasts = append(t.broadcasts, message)
}

func (t *testReceiver) SendToPlayer(playerID string, message *RoomMessage) {
	t.private[playerID] = append(t.private[playerID], message)
}

func (t *testReceiver) lastSnapshot() *RoomSnapshot {
	for i := len(t.broadcasts) - 1; i >= 0; i-- {
		if t.broadcasts[i].Type == MessageRoomUpdate {
			return t.broadcasts[i].Room
		}
	}
	return nil
}

func (t *testReceiver) closedMessage() string {
	for i := len(t.broadcasts) - 1; i >= 0; i-- {
		if t.broadcasts[i].Type == MessageRoomClosed {
			return t.broadcasts[i].Message
		}
	}
	return ""
}

func (t *testReceiver) lastPrivate(playerID string, msgType string) *RoomMessage {
	msgs := t.private[playerID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i]
		}
	}
	return nil
}

var seatPlayers = map[bridge.Seat]string{
	bridge.North: "player-n",
	bridge.West:  "player-w",
	bridge.South: "player-s",
	bridge.East:  "player-e",
}

func act(room *Room, action *PlayerAction) {
	room.handleAction(action)
}

func setupWaitingRoom(t *testing.T) (*Manager, *Room, *testReceiver) {
	receiver := newTestReceiver()
	manager := NewManager(receiver, DefaultDelays(), true)
	room := manager.JoinRoom("table-1", seatPlayers[bridge.North])
	for _, seat := range []bridge.Seat{bridge.West, bridge.South, bridge.East} {
		manager.JoinRoom("table-1", seatPlayers[seat])
	}
	manager.JoinRoom("table-1", "spectator-1")
	for seat, playerID := range seatPlayers {
		act(room, &PlayerAction{Type: ActionTakeSeat, PlayerID: playerID, Seat: seat})
	}
	require.Equal(t, []string{"spectator-1"}, room.Snapshot().Spectators)
	return manager, room, receiver
}

func readyAll(room *Room) {
	for _, playerID := range seatPlayers {
		act(room, &PlayerAction{Type: ActionToggleReady, PlayerID: playerID})
	}
}

func dealAndStartBidding(t *testing.T, room *Room) {
	readyAll(room)
	act(room, &PlayerAction{Type: ActionDealCards, PlayerID: seatPlayers[bridge.North]})
	require.Equal(t, RoomBetting, room.gameState)
	for i := 0; i < DefaultDelays().BettingCountdownSec; i++ {
		room.onCountdownTick()
	}
	require.Equal(t, RoomBidding, room.gameState)
}

func submitBid(room *Room, seat bridge.Seat, bid string) {
	act(room, &PlayerAction{Type: ActionSubmitBid, PlayerID: seatPlayers[seat], Bid: bid})
}

func playCard(room *Room, seat bridge.Seat, card string) {
	act(room, &PlayerAction{Type: ActionPlayCard, PlayerID: seatPlayers[seat], Card: card})
}

func popDeferred(t *testing.T, room *Room) deferredEvent {
	require.NotEmpty(t, room.pendingDeferred, "expected a scheduled deferred event")
	ev := room.pendingDeferred[0]
	room.pendingDeferred = room.pendingDeferred[1:]
	return ev
}

func TestTakeSeatRules(t *testing.T) {
	receiver := newTestReceiver()
	manager := NewManager(receiver, DefaultDelays(), true)
	room := manager.JoinRoom("table-1", "alice")
	manager.JoinRoom("table-1", "bob")

	act(room, &PlayerAction{Type: ActionTakeSeat, PlayerID: "alice", Seat: bridge.North})
	assert.Equal(t, "alice", room.seats[bridge.North])
	assert.NotContains(t, room.spectators, "alice")

	// Seat already taken.
	act(room, &PlayerAction{Type: ActionTakeSeat, PlayerID: "bob", Seat: bridge.North})
	assert.Equal(t, "alice", room.seats[bridge.North])

	// An identity occupies at most one seat.
	act(room, &PlayerAction{Type: ActionTakeSeat, PlayerID: "alice", Seat: bridge.South})
	assert.Equal(t, "", room.seats[bridge.South])

	// Invalid seat is a no-op.
	act(room, &PlayerAction{Type: ActionTakeSeat, PlayerID: "bob", Seat: "X"})
	assert.Equal(t, "", room.seats["X"])
}

func TestLeaveSeatClearsReadiness(t *testing.T) {
	_, room, receiver := setupWaitingRoom(t)
	act(room, &PlayerAction{Type: ActionToggleReady, PlayerID: seatPlayers[bridge.North]})
	require.True(t, room.readyPlayers[bridge.North])

	act(room, &PlayerAction{Type: ActionLeaveSeat, PlayerID: seatPlayers[bridge.North]})
	assert.Equal(t, "", room.seats[bridge.North])
	assert.False(t, room.readyPlayers[bridge.North])
	assert.Contains(t, room.spectators, seatPlayers[bridge.North])

	// The vacating player gets an explicit empty hand.
	handMsg := receiver.lastPrivate(seatPlayers[bridge.North], MessageYourHand)
	require.NotNil(t, handMsg)
	assert.Empty(t, handMsg.Hand)
}

func TestDealRequiresFullAndReadyTable(t *testing.T) {
	_, room, _ := setupWaitingRoom(t)

	// Not all ready yet.
	act(room, &PlayerAction{Type: ActionDealCards, PlayerID: seatPlayers[bridge.North]})
	assert.Equal(t, RoomWaiting, room.gameState)

	readyAll(room)

	// Spectators cannot trigger the deal.
	act(room, &PlayerAction{Type: ActionDealCards, PlayerID: "spectator-1"})
	assert.Equal(t, RoomWaiting, room.gameState)

	act(room, &PlayerAction{Type: ActionDealCards, PlayerID: seatPlayers[bridge.South]})
	assert.Equal(t, RoomBetting, room.gameState)
	assert.Equal(t, DefaultDelays().BettingCountdownSec, room.bettingCountdown)
}

func TestDealDeliversPrivateHandsAndSpectatorOdds(t *testing.T) {
	_, room, receiver := setupWaitingRoom(t)
	readyAll(room)
	act(room, &PlayerAction{Type: ActionDealCards, PlayerID: seatPlayers[bridge.North]})

	for seat, playerID := range seatPlayers {
		handMsg := receiver.lastPrivate(playerID, MessageYourHand)
		require.NotNil(t, handMsg, "seat %s should receive a hand", seat)
		assert.Equal(t, bridge.HandSize, len(handMsg.Hand))
	}

	// The spectator sees North's hand by default, plus its odds.
	specHand := receiver.lastPrivate("spectator-1", MessageYourHand)
	require.NotNil(t, specHand)
	assert.Equal(t, room.hands[bridge.North], specHand.Hand)
	oddsMsg := receiver.lastPrivate("spectator-1", MessageOddsUpdate)
	require.NotNil(t, oddsMsg)
	require.NotNil(t, oddsMsg.Odds)
	assert.Equal(t, len(bridge.Strains), len(oddsMsg.Odds.Matrix))

	// The broadcast snapshot never carries hands.
	snapshot := receiver.lastSnapshot()
	assert.Equal(t, RoomBetting, snapshot.GameState)
	assert.Equal(t, DefaultDelays().BettingCountdownSec, snapshot.BettingCountdown)
}

func TestCountdownAdvancesToBidding(t *testing.T) {
	_, room, receiver := setupWaitingRoom(t)
	readyAll(room)
	act(room, &PlayerAction{Type: ActionDealCards, PlayerID: seatPlayers[bridge.North]})
	require.Equal(t, 15, room.bettingCountdown)

	for i := 0; i < 14; i++ {
		room.onCountdownTick()
		assert.Equal(t, RoomBetting, room.gameState)
	}
	room.onCountdownTick()
	assert.Equal(t, RoomBidding, room.gameState)
	assert.Equal(t, bridge.North, room.currentTurn)
	assert.Equal(t, bridge.North, receiver.lastSnapshot().CurrentTurn)

	// A stale tick after the transition must not touch the auction.
	room.onCountdownTick()
	assert.Equal(t, RoomBidding, room.gameState)
}

func TestPlaceBetTargetAndLocking(t *testing.T) {
	_, room, receiver := setupWaitingRoom(t)
	readyAll(room)

	// Target selection before the deal is remembered.
	act(room, &PlayerAction{Type: ActionPlaceBet, PlayerID: "spectator-1",
		Bet: &BetInfo{TargetSeat: bridge.East}})
	act(room, &PlayerAction{Type: ActionDealCards, PlayerID: seatPlayers[bridge.North]})

	specHand := receiver.lastPrivate("spectator-1", MessageYourHand)
	require.NotNil(t, specHand)
	assert.Equal(t, room.hands[bridge.East], specHand.Hand)

	// A prediction during BETTING is quoted against the observed hand.
	act(room, &PlayerAction{Type: ActionPlaceBet, PlayerID: "spectator-1",
		Bet: &BetInfo{TargetSeat: bridge.East, Prediction: "3NT"}})
	assert.Equal(t, "3NT", room.bets["spectator-1"].Prediction)
	oddsMsg := receiver.lastPrivate("spectator-1", MessageOddsUpdate)
	require.NotNil(t, oddsMsg)
	assert.Greater(t, oddsMsg.Quote, 1.0)

	// Seated players cannot bet.
	act(room, &PlayerAction{Type: ActionPlaceBet, PlayerID: seatPlayers[bridge.North],
		Bet: &BetInfo{TargetSeat: bridge.South, Prediction: "1C"}})
	_, ok := room.bets[seatPlayers[bridge.North]]
	assert.False(t, ok)

	// Predictions lock once bidding starts; target change still works.
	for i := 0; i < 15; i++ {
		room.onCountdownTick()
	}
	require.Equal(t, RoomBidding, room.gameState)
	act(room, &PlayerAction{Type: ActionPlaceBet, PlayerID: "spectator-1",
		Bet: &BetInfo{TargetSeat: bridge.South, Prediction: "7NT"}})
	assert.Equal(t, "3NT", room.bets["spectator-1"].Prediction)
	assert.Equal(t, bridge.South, room.bets["spectator-1"].TargetSeat)
	specHand = receiver.lastPrivate("spectator-1", MessageYourHand)
	assert.Equal(t, room.hands[bridge.South], specHand.Hand)
}

func TestBiddingTurnAndLegalityEnforced(t *testing.T) {
	_, room, _ := setupWaitingRoom(t)
	dealAndStartBidding(t, room)
	require.Equal(t, bridge.North, room.currentTurn)

	// Out of turn.
	submitBid(room, bridge.South, "1C")
	assert.Empty(t, room.bidHistory)

	submitBid(room, bridge.North, "1H")
	require.Equal(t, 1, len(room.bidHistory))
	assert.Equal(t, bridge.West, room.currentTurn)
	assert.Equal(t, "1H", room.lastBid.String())
	assert.Equal(t, bridge.North, room.declarer)

	// Insufficient bid is ignored; turn does not advance.
	submitBid(room, bridge.West, "1C")
	assert.Equal(t, 1, len(room.bidHistory))
	assert.Equal(t, bridge.West, room.currentTurn)

	submitBid(room, bridge.West, "1S")
	assert.Equal(t, "1S", room.lastBid.String())
	assert.Equal(t, bridge.West, room.declarer)
	assert.Equal(t, bridge.South, room.currentTurn)
}

func TestAuctionEndsAfterThreePasses(t *testing.T) {
	_, room, _ := setupWaitingRoom(t)
	dealAndStartBidding(t, room)

	submitBid(room, bridge.North, "2D")
	submitBid(room, bridge.West, "Pass")
	submitBid(room, bridge.South, "Pass")
	submitBid(room, bridge.East, "Pass")

	assert.Equal(t, RoomPlaying, room.gameState)
	assert.Equal(t, bridge.North, room.declarer)
	// Play starts with the seat after declarer in table rotation.
	assert.Equal(t, bridge.West, room.currentTurn)
}

func TestAuctionAllPassClosesRoom(t *testing.T) {
	manager, room, receiver := setupWaitingRoom(t)
	dealAndStartBidding(t, room)

	for _, seat := range []bridge.Seat{bridge.North, bridge.West, bridge.South, bridge.East} {
		submitBid(room, seat, "Pass")
	}

	assert.True(t, room.closed)
	assert.NotEmpty(t, receiver.closedMessage())
	_, err := manager.GetRoom("table-1")
	require.Error(t, err)
	assert.IsType(t, RoomNotFoundError{}, err)
}

func TestSuitFollowingEnforced(t *testing.T) {
	_, room, _ := setupWaitingRoom(t)
	dealAndStartBidding(t, room)
	room.hands = riggedHands(t)

	submitBid(room, bridge.North, "3NT")
	submitBid(room, bridge.West, "Pass")
	submitBid(room, bridge.South, "Pass")
	submitBid(room, bridge.East, "Pass")
	require.Equal(t, RoomPlaying, room.gameState)

	playCard(room, bridge.West, "H-A")
	require.Equal(t, 1, len(room.playedCards))

	// South holds hearts and must follow; a spade discard is rejected.
	playCard(room, bridge.South, "S-4")
	assert.Equal(t, 1, len(room.playedCards))
	assert.Equal(t, bridge.South, room.currentTurn)

	// A card South does not hold is rejected.
	playCard(room, bridge.South, "H-2")
	assert.Equal(t, 1, len(room.playedCards))

	playCard(room, bridge.South, "H-4")
	assert.Equal(t, 2, len(room.playedCards))
}

func TestDisconnectInWaitingVacatesSeat(t *testing.T) {
	manager, room, _ := setupWaitingRoom(t)

	act(room, &PlayerAction{Type: ActionDisconnect, PlayerID: seatPlayers[bridge.East]})
	assert.Equal(t, "", room.seats[bridge.East])
	assert.False(t, room.closed)
	_, err := manager.GetRoom("table-1")
	assert.NoError(t, err)
}

func TestDisconnectMidGameClosesRoom(t *testing.T) {
	manager, room, receiver := setupWaitingRoom(t)
	dealAndStartBidding(t, room)

	act(room, &PlayerAction{Type: ActionDisconnect, PlayerID: seatPlayers[bridge.East]})
	assert.True(t, room.closed)
	assert.Contains(t, receiver.closedMessage(), "disconnected")
	_, err := manager.GetRoom("table-1")
	assert.Error(t, err)
}

func TestSpectatorDisconnectOnlyDropsSpectator(t *testing.T) {
	_, room, _ := setupWaitingRoom(t)
	dealAndStartBidding(t, room)

	act(room, &PlayerAction{Type: ActionDisconnect, PlayerID: "spectator-1"})
	assert.False(t, room.closed)
	assert.NotContains(t, room.spectators, "spectator-1")
}

// riggedHands is a full deal where, with North declaring 3NT and every seat
// playing the scripted cards below, North-South takes exactly 10 tricks.
func riggedHands(t *testing.T) map[bridge.Seat][]bridge.Card {
	layout := map[bridge.Seat][]string{
		bridge.North: {"S-A", "S-K", "S-Q", "S-2", "H-K", "H-Q", "H-3", "D-K", "D-Q", "D-3", "C-5", "C-3", "C-2"},
		bridge.West:  {"S-J", "S-T", "S-3", "H-A", "H-J", "H-T", "H-2", "D-J", "D-T", "D-4", "C-J", "C-T", "C-4"},
		bridge.South: {"S-9", "S-8", "S-4", "H-9", "H-8", "H-4", "D-A", "D-9", "D-8", "D-2", "C-K", "C-Q", "C-9"},
		bridge.East:  {"S-7", "S-6", "S-5", "H-7", "H-6", "H-5", "D-7", "D-6", "D-5", "C-A", "C-8", "C-7", "C-6"},
	}
	hands := make(map[bridge.Seat][]bridge.Card)
	for seat, cards := range layout {
		hand := make([]bridge.Card, len(cards))
		for i, s := range cards {
			card, err := bridge.NewCard(s)
			require.NoError(t, err)
			hand[i] = card
		}
		hands[seat] = hand
	}
	return hands
}

type scriptedPlay struct {
	seat bridge.Seat
	card string
}

func TestFullDealThreeNoTrumpMade(t *testing.T) {
	manager, room, receiver := setupWaitingRoom(t)
	dealAndStartBidding(t, room)
	room.hands = riggedHands(t)

	submitBid(room, bridge.North, "3NT")
	submitBid(room, bridge.West, "Pass")
	submitBid(room, bridge.South, "Pass")
	submitBid(room, bridge.East, "Pass")
	require.Equal(t, RoomPlaying, room.gameState)
	require.Equal(t, bridge.West, room.currentTurn)

	tricks := [][]scriptedPlay{
		{{bridge.West, "H-A"}, {bridge.South, "H-4"}, {bridge.East, "H-5"}, {bridge.North, "H-3"}}, // W
		{{bridge.West, "H-J"}, {bridge.South, "H-8"}, {bridge.East, "H-6"}, {bridge.North, "H-Q"}}, // N
		{{bridge.North, "S-A"}, {bridge.West, "S-3"}, {bridge.South, "S-4"}, {bridge.East, "S-5"}}, // N
		{{bridge.North, "S-K"}, {bridge.West, "S-T"}, {bridge.South, "S-8"}, {bridge.East, "S-6"}}, // N
		{{bridge.North, "S-Q"}, {bridge.West, "S-J"}, {bridge.South, "S-9"}, {bridge.East, "S-7"}}, // N
		{{bridge.North, "S-2"}, {bridge.West, "D-4"}, {bridge.South, "D-2"}, {bridge.East, "C-6"}}, // N
		{{bridge.North, "H-K"}, {bridge.West, "H-T"}, {bridge.South, "H-9"}, {bridge.East, "H-7"}}, // N
		{{bridge.North, "D-K"}, {bridge.West, "D-J"}, {bridge.South, "D-8"}, {bridge.East, "D-5"}}, // N
		{{bridge.North, "D-Q"}, {bridge.West, "D-T"}, {bridge.South, "D-9"}, {bridge.East, "D-6"}}, // N
		{{bridge.North, "D-3"}, {bridge.West, "H-2"}, {bridge.South, "D-A"}, {bridge.East, "D-7"}}, // S
		{{bridge.South, "C-K"}, {bridge.East, "C-7"}, {bridge.North, "C-2"}, {bridge.West, "C-4"}}, // S
		{{bridge.South, "C-Q"}, {bridge.East, "C-A"}, {bridge.North, "C-3"}, {bridge.West, "C-J"}}, // E
		{{bridge.East, "C-8"}, {bridge.North, "C-5"}, {bridge.West, "C-T"}, {bridge.South, "C-9"}}, // W
	}

	for trickNum, trick := range tricks {
		for _, play := range trick {
			require.Equal(t, play.seat, room.currentTurn,
				"trick %d: expected %s to act", trickNum+1, play.seat)
			playCard(room, play.seat, play.card)
		}
		require.Equal(t, bridge.TrickSize, len(room.playedCards),
			"trick %d should be complete", trickNum+1)

		// A stale card arriving while the trick is on display is ignored.
		if trickNum == 0 {
			playCard(room, bridge.West, "H-J")
			require.Equal(t, bridge.TrickSize, len(room.playedCards))
		}

		room.onDeferred(popDeferred(t, room))
	}

	assert.Equal(t, 10, room.tricks[bridge.North]+room.tricks[bridge.South])
	assert.Equal(t, 3, room.tricks[bridge.East]+room.tricks[bridge.West])
	assert.Equal(t, bridge.TricksPerDeal, room.totalTricks)

	assert.True(t, room.closed)
	closed := receiver.closedMessage()
	assert.Contains(t, closed, "3NT")
	assert.Contains(t, closed, "made")
	assert.Contains(t, closed, "10")
	_, err := manager.GetRoom("table-1")
	assert.Error(t, err)
}

func TestContractFailedMessage(t *testing.T) {
	_, room, _ := setupWaitingRoom(t)
	four, err := bridge.NewBid("4S")
	require.NoError(t, err)
	room.lastBid = &four
	room.declarer = bridge.East
	room.tricks = map[bridge.Seat]int{bridge.North: 3, bridge.South: 2, bridge.East: 5, bridge.West: 3}

	msg := room.contractResultMessage()
	assert.Contains(t, msg, "failed")
	assert.Contains(t, msg, "8")
}

func TestManagerNotFound(t *testing.T) {
	manager := NewManager(newTestReceiver(), DefaultDelays(), true)
	_, err := manager.GetRoom("nope")
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("Room not found: %s", "nope"), err.Error())
}

func TestActiveRooms(t *testing.T) {
	manager := NewManager(newTestReceiver(), DefaultDelays(), true)
	manager.JoinRoom("a", "p1")
	manager.JoinRoom("b", "p2")
	snapshots := manager.ActiveRooms()
	assert.Equal(t, 2, len(snapshots))
}
