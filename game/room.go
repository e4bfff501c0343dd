package game

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"openbridge.com/server/bridge"
	"openbridge.com/server/logging"
	"openbridge.com/server/odds"
)

// Room owns one table session. All state below is mutated only by the room's
// own goroutine; actions, countdown ticks and deferred events arrive through
// the mailbox channels, so no locking is needed on game state.
type Room struct {
	roomID          string
	manager         *Manager
	messageReceiver MessageReceiver
	logger          *zerolog.Logger
	delays          Delays
	testMode        bool

	chAction   chan *PlayerAction
	chTick     chan bool
	chDeferred chan deferredEvent
	done       chan struct{}
	closed     bool

	seats            map[bridge.Seat]string
	readyPlayers     map[bridge.Seat]bool
	gameState        GameState
	hands            map[bridge.Seat][]bridge.Card
	bidHistory       []BidEntry
	lastBid          *bridge.Bid
	declarer         bridge.Seat
	currentTurn      bridge.Seat
	playedCards      []bridge.PlayedCard
	tricks           map[bridge.Seat]int
	totalTricks      int
	spectators       []string
	bets             map[string]*BetInfo
	bettingCountdown int
	countdown        *bettingTimer

	// Last published snapshot, readable from other goroutines (REST).
	publishedSnapshot atomic.Value

	// Captured scheduled events when running under the test driver.
	pendingDeferred []deferredEvent
}

type deferredKind string

const (
	deferredClearTrick deferredKind = "clearTrick"
	deferredEndDeal    deferredKind = "endDeal"
)

// deferredEvent is a one-shot scheduled action. trickCount pins the event to
// the trick it was scheduled for so a stale event cannot act on a later one.
type deferredEvent struct {
	kind       deferredKind
	winner     bridge.Seat
	trickCount int
}

func newRoom(roomID string, manager *Manager, messageReceiver MessageReceiver, delays Delays, testMode bool) *Room {
	logger := logging.GetZeroLogger("game::room", nil)
	roomLogger := logger.With().Str(logging.RoomIDKey, roomID).Logger()
	room := &Room{
		roomID:          roomID,
		manager:         manager,
		messageReceiver: messageReceiver,
		logger:          &roomLogger,
		delays:          delays,
		testMode:        testMode,
		chAction:        make(chan *PlayerAction, 16),
		chTick:          make(chan bool, 1),
		chDeferred:      make(chan deferredEvent, 8),
		done:            make(chan struct{}),
		seats:           make(map[bridge.Seat]string),
		readyPlayers:    make(map[bridge.Seat]bool),
		gameState:       RoomWaiting,
		tricks:          make(map[bridge.Seat]int),
		spectators:      make([]string, 0),
		bets:            make(map[string]*BetInfo),
	}
	for _, seat := range bridge.Seats {
		room.seats[seat] = ""
		room.readyPlayers[seat] = false
		room.tricks[seat] = 0
	}
	room.publishedSnapshot.Store(room.buildSnapshot())
	return room
}

func (r *Room) runRoom() {
	r.logger.Info().Msg("Room loop started")
	for {
		select {
		case action := <-r.chAction:
			r.handleAction(action)
		case <-r.chTick:
			r.onCountdownTick()
		case ev := <-r.chDeferred:
			r.onDeferred(ev)
		}
		if r.closed {
			r.logger.Info().Msg("Room loop returning")
			return
		}
	}
}

// QueueAction delivers an inbound action into the room mailbox. Safe to call
// from any goroutine; actions for a torn-down room are dropped.
func (r *Room) QueueAction(action *PlayerAction) {
	select {
	case r.chAction <- action:
	case <-r.done:
	}
}

// Snapshot returns the last published room state. Safe for concurrent use.
func (r *Room) Snapshot() *RoomSnapshot {
	return r.publishedSnapshot.Load().(*RoomSnapshot)
}

func (r *Room) handleAction(action *PlayerAction) {
	r.logger.Trace().
		Str(logging.ActionTypeKey, action.Type).
		Str(logging.PlayerIDKey, action.PlayerID).
		Msgf("Player action: %+v", action)

	switch action.Type {
	case ActionJoinRoom:
		r.onJoin(action.PlayerID)
	case ActionTakeSeat:
		r.onTakeSeat(action.PlayerID, action.Seat)
	case ActionLeaveSeat:
		r.onLeaveSeat(action.PlayerID)
	case ActionToggleReady:
		r.onToggleReady(action.PlayerID)
	case ActionDealCards:
		r.onDealCards(action.PlayerID)
	case ActionPlaceBet:
		r.onPlaceBet(action.PlayerID, action.Bet)
	case ActionSubmitBid:
		r.onSubmitBid(action.PlayerID, action.Bid)
	case ActionPlayCard:
		r.onPlayCard(action.PlayerID, action.Card)
	case ActionDisconnect:
		r.onDisconnect(action.PlayerID)
	default:
		r.logger.Debug().Msgf("Ignoring unknown action type [%s]", action.Type)
	}
}

func (r *Room) seatOf(playerID string) bridge.Seat {
	for _, seat := range bridge.Seats {
		if r.seats[seat] == playerID {
			return seat
		}
	}
	return ""
}

func (r *Room) isSpectator(playerID string) bool {
	for _, id := range r.spectators {
		if id == playerID {
			return true
		}
	}
	return false
}

func (r *Room) removeSpectator(playerID string) {
	remaining := make([]string, 0, len(r.spectators))
	for _, id := range r.spectators {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	r.spectators = remaining
}

func (r *Room) onJoin(playerID string) {
	if r.seatOf(playerID) == "" && !r.isSpectator(playerID) {
		r.spectators = append(r.spectators, playerID)
	}
	r.broadcast()
}

func (r *Room) onTakeSeat(playerID string, seat bridge.Seat) {
	if r.gameState != RoomWaiting || !seat.Valid() {
		return
	}
	if r.seats[seat] != "" || r.seatOf(playerID) != "" {
		return
	}
	r.seats[seat] = playerID
	r.removeSpectator(playerID)
	delete(r.bets, playerID)
	r.broadcast()
}

func (r *Room) onLeaveSeat(playerID string) {
	if r.gameState != RoomWaiting {
		return
	}
	seat := r.seatOf(playerID)
	if seat == "" {
		return
	}
	r.seats[seat] = ""
	r.readyPlayers[seat] = false
	if !r.isSpectator(playerID) {
		r.spectators = append(r.spectators, playerID)
	}
	r.sendToPlayer(playerID, &RoomMessage{Type: MessageYourHand, Hand: []bridge.Card{}})
	r.broadcast()
}

func (r *Room) onToggleReady(playerID string) {
	if r.gameState != RoomWaiting {
		return
	}
	seat := r.seatOf(playerID)
	if seat == "" {
		return
	}
	r.readyPlayers[seat] = !r.readyPlayers[seat]
	r.broadcast()
}

func (r *Room) onDealCards(playerID string) {
	if r.gameState != RoomWaiting {
		return
	}
	if r.seatOf(playerID) == "" {
		return
	}
	for _, seat := range bridge.Seats {
		if r.seats[seat] == "" || !r.readyPlayers[seat] {
			return
		}
	}

	deck := bridge.NewDeck(nil)
	hands := deck.Deal()
	r.hands = make(map[bridge.Seat][]bridge.Card)
	for seat, hand := range hands {
		r.hands[seat] = bridge.SortHand(hand)
	}

	r.gameState = RoomBetting
	r.bettingCountdown = r.delays.BettingCountdownSec
	r.logger.Info().
		Str(logging.GameStateKey, string(r.gameState)).
		Msgf("Cards dealt. Betting window open for %d seconds", r.bettingCountdown)

	for _, seat := range bridge.Seats {
		r.sendToPlayer(r.seats[seat], &RoomMessage{Type: MessageYourHand, Hand: r.hands[seat]})
	}
	for _, spectatorID := range r.spectators {
		r.deliverSpectatorView(spectatorID)
	}

	r.startCountdown()
	r.broadcast()
}

// deliverSpectatorView sends a spectator the hand they chose to observe
// (North by default) along with the odds for that hand.
func (r *Room) deliverSpectatorView(spectatorID string) {
	targetSeat := bridge.North
	if bet, ok := r.bets[spectatorID]; ok && bet.TargetSeat.Valid() {
		targetSeat = bet.TargetSeat
	}
	hand := r.hands[targetSeat]
	result := odds.Compute(hand)
	r.sendToPlayer(spectatorID, &RoomMessage{Type: MessageYourHand, Hand: hand})
	r.sendToPlayer(spectatorID, &RoomMessage{Type: MessageOddsUpdate, Odds: &result})
}

func (r *Room) onPlaceBet(playerID string, bet *BetInfo) {
	if bet == nil {
		return
	}
	if r.seatOf(playerID) != "" || !r.isSpectator(playerID) {
		return
	}

	current, ok := r.bets[playerID]
	if !ok {
		current = &BetInfo{TargetSeat: bridge.North}
		r.bets[playerID] = current
	}

	targetChanged := false
	if bet.TargetSeat.Valid() && bet.TargetSeat != current.TargetSeat {
		current.TargetSeat = bet.TargetSeat
		targetChanged = true
	}

	// Predictions lock when the betting window closes; seat selection stays
	// meaningful for the rest of the game.
	if r.gameState == RoomBetting {
		current.Prediction = bet.Prediction
	}

	if r.hands != nil && (targetChanged || r.gameState == RoomBetting) {
		r.deliverSpectatorView(playerID)
		if r.gameState == RoomBetting && current.Prediction != "" {
			result := odds.Compute(r.hands[current.TargetSeat])
			if quote, ok := odds.Quote(result, current.Prediction); ok {
				r.sendToPlayer(playerID, &RoomMessage{Type: MessageOddsUpdate, Odds: &result, Quote: quote})
			}
		}
	}
}

func (r *Room) onSubmitBid(playerID string, bidStr string) {
	if r.gameState != RoomBidding {
		return
	}
	seat := r.seatOf(playerID)
	if seat == "" || seat != r.currentTurn {
		return
	}
	bid, err := bridge.NewBid(bidStr)
	if err != nil {
		r.logger.Debug().Str(logging.SeatKey, string(seat)).Msgf("Rejecting malformed bid [%s]", bidStr)
		return
	}
	if !bridge.IsLegalBid(r.lastBid, bid) {
		r.logger.Debug().Str(logging.SeatKey, string(seat)).
			Msgf("Rejecting illegal bid [%s] over [%s]", bid, r.lastBid)
		return
	}

	r.bidHistory = append(r.bidHistory, BidEntry{Seat: seat, Bid: bid})
	if !bid.Pass {
		b := bid
		r.lastBid = &b
		r.declarer = seat
	}
	r.currentTurn = seat.Next()

	if len(r.bidHistory) >= 4 {
		lastThreePassed := true
		for _, entry := range r.bidHistory[len(r.bidHistory)-3:] {
			if !entry.Bid.Pass {
				lastThreePassed = false
				break
			}
		}
		if lastThreePassed && r.lastBid != nil {
			r.gameState = RoomPlaying
			r.currentTurn = r.declarer.Next()
			r.logger.Info().
				Str(logging.GameStateKey, string(r.gameState)).
				Msgf("Auction complete. Contract %s by %s", r.lastBid, r.declarer)
		} else if lastThreePassed && len(r.bidHistory) == 4 && r.lastBid == nil {
			r.logger.Info().Msg("All four players passed. Closing room")
			r.endRoom("All four players passed. The deal is thrown in.")
			return
		}
	}
	r.broadcast()
}

func (r *Room) onPlayCard(playerID string, cardStr string) {
	if r.gameState != RoomPlaying {
		return
	}
	seat := r.seatOf(playerID)
	if seat == "" || seat != r.currentTurn {
		return
	}
	// A resolved trick stays on display until the deferred clear fires;
	// nothing may be played into it.
	if len(r.playedCards) >= bridge.TrickSize {
		return
	}
	card, err := bridge.NewCard(cardStr)
	if err != nil {
		r.logger.Debug().Str(logging.SeatKey, string(seat)).Msgf("Rejecting malformed card [%s]", cardStr)
		return
	}
	hand := r.hands[seat]
	if !bridge.HandContains(hand, card) {
		r.logger.Debug().Str(logging.SeatKey, string(seat)).Msgf("Rejecting card [%s] not in hand", card)
		return
	}
	if len(r.playedCards) > 0 {
		lead := r.playedCards[0].Card.Suit
		if card.Suit != lead && bridge.HandHasSuit(hand, lead) {
			r.logger.Debug().Str(logging.SeatKey, string(seat)).
				Msgf("Rejecting card [%s]: must follow %s", card, lead)
			return
		}
	}

	r.hands[seat] = bridge.RemoveCard(hand, card)
	r.playedCards = append(r.playedCards, bridge.PlayedCard{Seat: seat, Card: card})

	if len(r.playedCards) == bridge.TrickSize {
		winner := bridge.JudgeTrick(r.playedCards, r.lastBid)
		r.tricks[winner]++
		r.totalTricks++
		r.logger.Info().
			Str(logging.SeatKey, string(winner)).
			Msgf("Trick %d won by %s", r.totalTricks, winner)
		r.broadcast()

		if r.totalTricks == bridge.TricksPerDeal {
			r.schedule(time.Duration(r.delays.GameEndMillis)*time.Millisecond,
				deferredEvent{kind: deferredEndDeal, trickCount: r.totalTricks})
		} else {
			r.schedule(time.Duration(r.delays.TrickDisplayMillis)*time.Millisecond,
				deferredEvent{kind: deferredClearTrick, winner: winner, trickCount: r.totalTricks})
		}
		return
	}

	r.currentTurn = seat.Next()
	r.broadcast()
}

func (r *Room) onDisconnect(playerID string) {
	seat := r.seatOf(playerID)
	if seat != "" && r.gameState != RoomWaiting {
		r.logger.Info().Str(logging.SeatKey, string(seat)).Msg("Seated player disconnected mid-game. Closing room")
		r.endRoom(fmt.Sprintf("Player %s disconnected. The game has been terminated.", seat))
		return
	}
	if seat != "" {
		r.seats[seat] = ""
		r.readyPlayers[seat] = false
	}
	r.removeSpectator(playerID)
	delete(r.bets, playerID)
	r.broadcast()
}

func (r *Room) onCountdownTick() {
	// A stale tick can arrive after the betting window already closed.
	if r.gameState != RoomBetting {
		return
	}
	r.bettingCountdown--
	if r.bettingCountdown <= 0 {
		r.stopCountdown()
		r.gameState = RoomBidding
		r.currentTurn = bridge.North
		r.logger.Info().
			Str(logging.GameStateKey, string(r.gameState)).
			Msg("Betting window closed. Auction begins with North")
	}
	r.broadcast()
}

func (r *Room) onDeferred(ev deferredEvent) {
	switch ev.kind {
	case deferredClearTrick:
		if r.gameState != RoomPlaying || len(r.playedCards) != bridge.TrickSize || r.totalTricks != ev.trickCount {
			return
		}
		r.playedCards = nil
		r.currentTurn = ev.winner
		r.broadcast()
	case deferredEndDeal:
		if r.gameState != RoomPlaying || r.totalTricks != bridge.TricksPerDeal {
			return
		}
		r.endRoom(r.contractResultMessage())
	}
}

func (r *Room) contractResultMessage() string {
	target := 6 + r.lastBid.Level
	side := r.declarer.Side()
	sideTricks := r.tricks[side[0]] + r.tricks[side[1]]
	if sideTricks >= target {
		return fmt.Sprintf("Contract %s made! (%d tricks)", r.lastBid, sideTricks)
	}
	return fmt.Sprintf("Contract %s failed! Declarer's side took only %d tricks.", r.lastBid, sideTricks)
}

func (r *Room) schedule(delay time.Duration, ev deferredEvent) {
	if r.testMode {
		r.pendingDeferred = append(r.pendingDeferred, ev)
		return
	}
	time.AfterFunc(delay, func() {
		select {
		case r.chDeferred <- ev:
		case <-r.done:
		}
	})
}

func (r *Room) startCountdown() {
	if r.testMode {
		return
	}
	r.countdown = newBettingTimer(r.roomID, func() {
		// The tick channel is drained by the room loop; drop ticks rather
		// than block the timer goroutine.
		select {
		case r.chTick <- true:
		default:
		}
	})
	r.countdown.Run()
}

// stopCountdown destroys the betting timer. It must run exactly once per
// timer; both the phase transition and room teardown route through here.
func (r *Room) stopCountdown() {
	if r.countdown != nil {
		r.countdown.Destroy()
		r.countdown = nil
	}
}

// endRoom broadcasts a closing message, cancels the timers and removes the
// room from the registry. Terminal; the room loop exits after this.
func (r *Room) endRoom(message string) {
	r.messageReceiver.BroadcastRoomMessage(r.roomID, &RoomMessage{Type: MessageRoomClosed, Message: message})
	r.stopCountdown()
	r.closed = true
	close(r.done)
	r.manager.roomEnded(r.roomID)
}

func (r *Room) sendToPlayer(playerID string, message *RoomMessage) {
	if playerID == "" {
		return
	}
	r.messageReceiver.SendToPlayer(playerID, message)
}

func (r *Room) broadcast() {
	snapshot := r.buildSnapshot()
	r.publishedSnapshot.Store(snapshot)
	r.messageReceiver.BroadcastRoomMessage(r.roomID, &RoomMessage{Type: MessageRoomUpdate, Room: snapshot})
}

func (r *Room) buildSnapshot() *RoomSnapshot {
	snapshot := &RoomSnapshot{
		RoomID:       r.roomID,
		Seats:        make(map[bridge.Seat]string),
		ReadyPlayers: make(map[bridge.Seat]bool),
		GameState:    r.gameState,
		Declarer:     r.declarer,
		CurrentTurn:  r.currentTurn,
		BidHistory:   append([]BidEntry{}, r.bidHistory...),
		PlayedCards:  append([]bridge.PlayedCard{}, r.playedCards...),
		Tricks:       make(map[bridge.Seat]int),
		TotalTricks:  r.totalTricks,
		Spectators:   append([]string{}, r.spectators...),
	}
	for _, seat := range bridge.Seats {
		snapshot.Seats[seat] = r.seats[seat]
		snapshot.ReadyPlayers[seat] = r.readyPlayers[seat]
		snapshot.Tricks[seat] = r.tricks[seat]
	}
	if r.lastBid != nil {
		b := *r.lastBid
		snapshot.LastBid = &b
	}
	if r.gameState == RoomBetting {
		snapshot.BettingCountdown = r.bettingCountdown
	}
	return snapshot
}
