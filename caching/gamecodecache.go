package caching

import (
	crypto_rand "crypto/rand"
	"fmt"
	"math/big"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Game codes avoid letters and digits that read alike (0/O, 1/I).
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// GameCodeCache maps opaque game ids to the short codes players type in,
// in both directions.
type GameCodeCache struct {
	gameIDToCode *lru.Cache
	gameCodeToID *lru.Cache
}

func NewCache(size int) (*GameCodeCache, error) {
	gameIDToCode, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize gameIDToCode cache")
	}
	gameCodeToID, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize gameCodeToID cache")
	}
	return &GameCodeCache{
		gameIDToCode: gameIDToCode,
		gameCodeToID: gameCodeToID,
	}, nil
}

func (c *GameCodeCache) Add(gameID string, gameCode string) error {
	if gameID == "" {
		return fmt.Errorf("Invalid game ID [%s]", gameID)
	} else if gameCode == "" {
		return fmt.Errorf("Invalid game Code [%s]", gameCode)
	}

	c.gameIDToCode.Add(gameID, gameCode)
	c.gameCodeToID.Add(gameCode, gameID)
	return nil
}

func (c *GameCodeCache) GameIDToCode(gameID string) (string, bool) {
	v, exists := c.gameIDToCode.Get(gameID)
	if !exists {
		return "", false
	}
	return v.(string), true
}

func (c *GameCodeCache) GameCodeToID(gameCode string) (string, bool) {
	v, exists := c.gameCodeToID.Get(gameCode)
	if !exists {
		return "", false
	}
	return v.(string), true
}

// Allocate returns the game's code, creating and caching a new one that is
// not in use if the game has none.
func (c *GameCodeCache) Allocate(gameID string) (string, error) {
	if code, ok := c.GameIDToCode(gameID); ok {
		return code, nil
	}
	for attempt := 0; attempt < 10; attempt++ {
		code, err := NewGameCode()
		if err != nil {
			return "", err
		}
		if c.gameCodeToID.Contains(code) {
			continue
		}
		return code, c.Add(gameID, code)
	}
	return "", fmt.Errorf("Unable to allocate a free game code for [%s]", gameID)
}

func (c *GameCodeCache) Remove(gameID string) {
	if code, ok := c.GameIDToCode(gameID); ok {
		c.gameCodeToID.Remove(code)
	}
	c.gameIDToCode.Remove(gameID)
}

func NewGameCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, codeLength)
	for i := range code {
		n, err := crypto_rand.Int(crypto_rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "Unable to generate game code")
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
