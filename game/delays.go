package game

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Delays holds the pause times used by the room state machine.
type Delays struct {
	// Seconds the betting window stays open after a deal.
	BettingCountdownSec int `yaml:"bettingCountdownSec"`
	// Milliseconds a resolved trick stays on display before clearing.
	TrickDisplayMillis uint32 `yaml:"trickDisplayMillis"`
	// Milliseconds between the final trick and the room closing.
	GameEndMillis uint32 `yaml:"gameEndMillis"`
}

func DefaultDelays() Delays {
	return Delays{
		BettingCountdownSec: 15,
		TrickDisplayMillis:  1500,
		GameEndMillis:       2000,
	}
}

// NoDelays keeps the betting window at one second so the room can
// still leave WAITING, but removes the display pauses.
func NoDelays() Delays {
	return Delays{
		BettingCountdownSec: 1,
		TrickDisplayMillis:  0,
		GameEndMillis:       0,
	}
}

func ParseDelayConfig(delaysFile string) (Delays, error) {
	bytes, err := ioutil.ReadFile(delaysFile)
	if err != nil {
		return Delays{}, errors.Wrap(err, fmt.Sprintf("Error reading delay config file [%s]", delaysFile))
	}

	data := DefaultDelays()
	err = yaml.Unmarshal(bytes, &data)
	if err != nil {
		return Delays{}, errors.Wrap(err, fmt.Sprintf("Error parsing delays YAML file [%s]", delaysFile))
	}

	return data, nil
}
