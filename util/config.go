package util

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the limits and timings the server runs with.
type ServerConfig struct {
	MinPlayers              int `yaml:"min-players"`
	MaxPlayers              int `yaml:"max-players"`
	DeckSize                int `yaml:"deck-size"`
	PersistTimeoutMs        int `yaml:"persist-timeout-ms"`
	IdleGameMinutes         int `yaml:"idle-game-minutes"`
	EvictionIntervalSeconds int `yaml:"eviction-interval-seconds"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MinPlayers:              3,
		MaxPlayers:              10,
		DeckSize:                52,
		PersistTimeoutMs:        3000,
		IdleGameMinutes:         720,
		EvictionIntervalSeconds: 60,
	}
}

// ParseServerConfig reads the YAML config file. A missing file yields the
// defaults; keys left out of the file keep their default values.
func ParseServerConfig(configFile string) (ServerConfig, error) {
	config := DefaultServerConfig()
	bytes, err := ioutil.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return ServerConfig{}, errors.Wrap(err, fmt.Sprintf("Error reading server config file [%s]", configFile))
	}

	err = yaml.Unmarshal(bytes, &config)
	if err != nil {
		return ServerConfig{}, errors.Wrap(err, fmt.Sprintf("Error parsing server config YAML file [%s]", configFile))
	}
	if err := config.Validate(); err != nil {
		return ServerConfig{}, errors.Wrapf(err, "Invalid server config [%s]", configFile)
	}
	return config, nil
}

func (c ServerConfig) Validate() error {
	if c.MinPlayers < 1 || c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("player limits %d..%d are not a valid range", c.MinPlayers, c.MaxPlayers)
	}
	if c.DeckSize < c.MaxPlayers {
		return fmt.Errorf("deck size %d cannot deal one card to %d players", c.DeckSize, c.MaxPlayers)
	}
	if c.PersistTimeoutMs <= 0 || c.IdleGameMinutes <= 0 || c.EvictionIntervalSeconds <= 0 {
		return fmt.Errorf("timeouts and intervals must be positive")
	}
	return nil
}

func (c ServerConfig) PersistTimeout() time.Duration {
	return time.Duration(c.PersistTimeoutMs) * time.Millisecond
}

func (c ServerConfig) IdleGameTimeout() time.Duration {
	return time.Duration(c.IdleGameMinutes) * time.Minute
}

func (c ServerConfig) EvictionInterval() time.Duration {
	return time.Duration(c.EvictionIntervalSeconds) * time.Second
}
