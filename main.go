package main

import (
	"flag"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"openbridge.com/server/game"
	"openbridge.com/server/logging"
	"openbridge.com/server/nats"
	"openbridge.com/server/rest"
	"openbridge.com/server/util"
	"openbridge.com/server/ws"
)

var mainLogger = logging.GetZeroLogger("main::main", nil)

func main() {
	zerolog.SetGlobalLevel(util.Env.GetZeroLogLogLevel())

	var delaysFile = flag.String("delays", "", "YAML file overriding countdown and display delays")
	flag.Parse()

	delays := game.DefaultDelays()
	if *delaysFile != "" {
		parsed, err := game.ParseDelayConfig(*delaysFile)
		if err != nil {
			mainLogger.Fatal().Err(err).Msgf("Unable to parse delay config %s", *delaysFile)
		}
		delays = parsed
	}
	if util.Env.ShouldDisableDelays() {
		mainLogger.Warn().Msg("Delays are disabled")
		delays = game.NoDelays()
	}

	natsURL := util.Env.GetNatsURL()
	mainLogger.Info().Msgf("Connecting to NATS at %s", natsURL)
	nc, err := natsgo.Connect(natsURL)
	if err != nil {
		mainLogger.Fatal().Err(err).Msgf("Error connecting to NATS server %s", natsURL)
	}

	roomManager, err := nats.NewRoomManager(nc, delays)
	if err != nil {
		mainLogger.Fatal().Err(err).Msg("Error initializing room manager")
	}

	go rest.RunRestServer(roomManager.GameManager(), util.Env.GetRestPort())

	gateway := ws.NewGateway(nc, util.Env.GetWebsocketPort())
	if err := gateway.Run(); err != nil {
		mainLogger.Fatal().Err(err).Msg("Websocket gateway terminated")
	}
}
