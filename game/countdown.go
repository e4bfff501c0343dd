package game

import (
	"runtime/debug"
	"time"

	"openbridge.com/server/logging"
)

var bettingTimerLogger = logging.GetZeroLogger("game::betting_timer", nil)

// bettingTimer fires the callback once per second while the betting window
// is open. The callback posts into the room mailbox; it must never block.
type bettingTimer struct {
	roomID    string
	chEndLoop chan bool
	callback  func()
}

func newBettingTimer(roomID string, callback func()) *bettingTimer {
	return &bettingTimer{
		roomID:    roomID,
		chEndLoop: make(chan bool, 10),
		callback:  callback,
	}
}

func (t *bettingTimer) Run() {
	go t.loop()
}

func (t *bettingTimer) Destroy() {
	t.chEndLoop <- true
}

func (t *bettingTimer) loop() {
	defer func() {
		if err := recover(); err != nil {
			bettingTimerLogger.Error().
				Str(logging.RoomIDKey, t.roomID).
				Msgf("Betting timer loop returning due to panic: %s\nStack Trace:\n%s", err, string(debug.Stack()))
		}
	}()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-t.chEndLoop:
			return
		case <-ticker.C:
			t.callback()
		}
	}
}
