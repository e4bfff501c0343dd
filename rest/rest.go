package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"openbridge.com/server/game"
	"openbridge.com/server/logging"
)

var restLogger = logging.GetZeroLogger("rest::rest", nil)

var gameManager *game.Manager

//
// APP error definition
//
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type roomSummary struct {
	RoomID      string         `json:"roomId"`
	GameState   game.GameState `json:"gameState"`
	SeatsFilled int            `json:"seatsFilled"`
	Spectators  int            `json:"spectators"`
}

// RunRestServer blocks serving the admin/monitoring endpoints.
func RunRestServer(manager *game.Manager, port int) {
	gameManager = manager

	r := gin.Default()
	r.GET("/ready", checkReady)
	r.GET("/rooms", getRooms)
	r.GET("/rooms/:roomId", getRoom)

	addr := fmt.Sprintf(":%d", port)
	restLogger.Info().Msgf("REST server listening on %s", addr)
	r.Run(addr)
}

func checkReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func getRooms(c *gin.Context) {
	snapshots := gameManager.ActiveRooms()
	summaries := make([]roomSummary, 0, len(snapshots))
	for _, snapshot := range snapshots {
		filled := 0
		for _, playerID := range snapshot.Seats {
			if playerID != "" {
				filled++
			}
		}
		summaries = append(summaries, roomSummary{
			RoomID:      snapshot.RoomID,
			GameState:   snapshot.GameState,
			SeatsFilled: filled,
			Spectators:  len(snapshot.Spectators),
		})
	}
	c.JSON(http.StatusOK, summaries)
}

func getRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	room, err := gameManager.GetRoom(roomID)
	if err != nil {
		restLogger.Debug().Str(logging.RoomIDKey, roomID).Msg("Room lookup failed")
		c.JSON(http.StatusNotFound, appError{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, room.Snapshot())
}
