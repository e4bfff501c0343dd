package util

import (
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"openbridge.com/server/logging"
)

var environmentLogger = logging.GetZeroLogger("util::environment", nil)

type serverEnvironment struct {
	NatsURL       string
	WebsocketPort string
	RestPort      string
	LogLevel      string
	DisableDelays string
}

// Env is a helper object for accessing environment variables.
var Env = &serverEnvironment{
	NatsURL:       "NATS_URL",
	WebsocketPort: "WS_PORT",
	RestPort:      "REST_PORT",
	LogLevel:      "LOG_LEVEL",
	DisableDelays: "DISABLE_DELAYS",
}

func (s *serverEnvironment) GetNatsURL() string {
	url := os.Getenv(s.NatsURL)
	if url == "" {
		return "nats://localhost:4222"
	}
	return url
}

func (s *serverEnvironment) GetWebsocketPort() int {
	return s.getIntEnv(s.WebsocketPort, 3001)
}

func (s *serverEnvironment) GetRestPort() int {
	return s.getIntEnv(s.RestPort, 8080)
}

func (s *serverEnvironment) ShouldDisableDelays() bool {
	v := os.Getenv(s.DisableDelays)
	return v == "1" || v == "true"
}

func (s *serverEnvironment) GetZeroLogLogLevel() zerolog.Level {
	l := os.Getenv(s.LogLevel)
	switch l {
	case "":
		return zerolog.InfoLevel
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		environmentLogger.Warn().Msgf("Invalid %s [%s]. Falling back to info", s.LogLevel, l)
		return zerolog.InfoLevel
	}
}

func (s *serverEnvironment) getIntEnv(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		environmentLogger.Warn().Msgf("Invalid integer [%s] for %s. Falling back to %d", v, key, defaultVal)
		return defaultVal
	}
	return n
}
