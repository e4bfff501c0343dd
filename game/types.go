package game

// GameState is the phase a room is in. A room with no live deal is WAITING.
type GameState string

const (
	RoomWaiting GameState = "WAITING"
	RoomBetting GameState = "BETTING"
	RoomBidding GameState = "BIDDING"
	RoomPlaying GameState = "PLAYING"
)
