package data

import (
	"errors"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/pkg/game"

	"github.com/go-kratos/kratos/v2/log"
)

// NewGameTransport creates the HTTP transport to the game backend from game.*.
func NewGameTransport(c *conf.Game, logger log.Logger) (*game.HTTPTransport, error) {
	if c == nil {
		return nil, errors.New("game config is required")
	}
	return game.NewHTTPTransport(game.Options{
		Endpoint:     c.Endpoint,
		Host:         c.Host,
		UserAgent:    c.UserAgent,
		UnityVersion: c.UnityVersion,
		Timeout:      c.Timeout,
		ProxyURL:     c.ProxyURL,
	}, logger)
}
