package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"boerenbridge.com/server/game"
	"boerenbridge.com/server/history"
	"boerenbridge.com/server/logging"
	"boerenbridge.com/server/manager"
)

var restLogger = log.With().Str("logger_name", "game::rest").Logger()

//
// APP error definition
//
type appError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Kind    game.ErrorKind  `json:"kind,omitempty"`
	Players []game.PlayerID `json:"players,omitempty"`
}

// GameLister is the part of the history store the history endpoint needs.
type GameLister interface {
	ListGames(ctx context.Context, filter history.GameFilter) (history.GamePage, error)
}

type Server struct {
	manager *manager.Manager
	lister  GameLister
	router  *gin.Engine
}

// NewServer sets up the routes. lister may be nil, in which case the game
// history endpoint answers 501.
func NewServer(m *manager.Manager, lister GameLister) *Server {
	s := &Server{manager: m, lister: lister, router: gin.New()}
	s.router.Use(gin.Logger(), gin.Recovery())

	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/codes/:code", s.lookupCode)

	games := s.router.Group("/games")
	{
		games.GET("", s.listGames)
		games.POST("", s.newGame)
		games.GET("/:id", s.gameState)
		games.DELETE("/:id", s.endGame)
		games.POST("/:id/resume", s.resumeGame)
		games.POST("/:id/bids", s.submitBids)
		games.POST("/:id/bids/forbidden", s.forbiddenBid)
		games.POST("/:id/tricks", s.submitTricks)
		games.POST("/:id/next-round", s.nextRound)
		games.POST("/:id/complete", s.completeGame)
		games.POST("/:id/reset", s.resetGame)
		games.GET("/:id/views", s.gameViews)
		games.GET("/:id/scoreboard", s.scoreboard)
		games.GET("/:id/players/:playerId/stats", s.playerStats)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(port string) error {
	restLogger.Info().Msgf("REST server listening on port %s", port)
	return s.router.Run(fmt.Sprintf(":%s", port))
}

type newGameRequest struct {
	Players []struct {
		ID   game.PlayerID `json:"id"`
		Name string        `json:"name"`
	} `json:"players"`
	MaxCards int `json:"maxCards"`
}

type bidsRequest struct {
	Bids map[game.PlayerID]int `json:"bids"`
}

type tricksRequest struct {
	TricksWon map[game.PlayerID]int `json:"tricksWon"`
}

type forbiddenBidResponse struct {
	CardsCount   int  `json:"cardsCount"`
	ForbiddenBid *int `json:"forbiddenBid"`
}

type viewsResponse struct {
	GameID       string          `json:"gameId"`
	GameCode     string          `json:"gameCode"`
	Phase        game.Phase      `json:"phase"`
	CurrentRound int             `json:"currentRound"`
	TotalRounds  int             `json:"totalRounds"`
	CardsCount   int             `json:"cardsCount"`
	Progress     float64         `json:"progress"`
	IsFinalRound bool            `json:"isFinalRound"`
	Dealer       *game.Player    `json:"dealer,omitempty"`
	BiddingOrder []game.Player   `json:"biddingOrder"`
	Standings    []game.Standing `json:"standings"`
	Result       *game.Result    `json:"result,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "activeGames": s.manager.ActiveGames()})
}

func (s *Server) newGame(c *gin.Context) {
	var req newGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	players := make([]game.Player, len(req.Players))
	for i, p := range req.Players {
		players[i] = game.Player{ID: p.ID, Name: p.Name}
	}
	out, err := s.manager.NewGame(c.Request.Context(), players, req.MaxCards)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) gameState(c *gin.Context) {
	out, err := s.manager.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) lookupCode(c *gin.Context) {
	out, err := s.manager.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) endGame(c *gin.Context) {
	if err := s.manager.End(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) resumeGame(c *gin.Context) {
	out, err := s.manager.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) submitBids(c *gin.Context) {
	var req bidsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	s.dispatch(c, game.SubmitBids{Bids: req.Bids})
}

func (s *Server) submitTricks(c *gin.Context) {
	var req tricksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	s.dispatch(c, game.SubmitTricks{TricksWon: req.TricksWon})
}

func (s *Server) nextRound(c *gin.Context) {
	s.dispatch(c, game.AdvanceRound{})
}

func (s *Server) completeGame(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	s.dispatch(c, game.CompleteGame{Force: force})
}

func (s *Server) resetGame(c *gin.Context) {
	s.dispatch(c, game.Reset{})
}

func (s *Server) dispatch(c *gin.Context, event game.Event) {
	out, err := s.manager.Dispatch(c.Request.Context(), c.Param("id"), event)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// forbiddenBid answers which bid the last bidder may not make, given the
// bids of everyone else.
func (s *Server) forbiddenBid(c *gin.Context) {
	var req bidsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	out, err := s.manager.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := forbiddenBidResponse{CardsCount: game.CurrentCards(out.State)}
	if bid, ok := game.ForbiddenBid(req.Bids, resp.CardsCount); ok {
		resp.ForbiddenBid = &bid
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) gameViews(c *gin.Context) {
	out, err := s.manager.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	state := out.State
	views := viewsResponse{
		GameID:       out.GameID,
		GameCode:     out.GameCode,
		Phase:        state.CurrentPhase,
		CurrentRound: state.CurrentRound,
		TotalRounds:  state.TotalRounds,
		CardsCount:   game.CurrentCards(state),
		Progress:     game.Progress(state),
		IsFinalRound: game.IsFinalRound(state),
		BiddingOrder: game.CurrentBiddingOrder(state),
		Standings:    game.Standings(state),
	}
	if dealer, ok := game.Dealer(state); ok {
		views.Dealer = &dealer
	}
	if result, ok := game.Winner(state); ok {
		views.Result = &result
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) scoreboard(c *gin.Context) {
	out, err := s.manager.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, game.BuildScoreboard(out.State))
}

func (s *Server) playerStats(c *gin.Context) {
	playerID, err := strconv.Atoi(c.Param("playerId"))
	if err != nil {
		s.badRequest(c, errors.Wrapf(err, "Invalid player id %s", c.Param("playerId")))
		return
	}
	out, err := s.manager.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, p := range out.State.Players {
		if p.ID == game.PlayerID(playerID) {
			c.JSON(http.StatusOK, game.StatsForPlayer(out.State, p.ID))
			return
		}
	}
	s.fail(c, errors.Wrapf(manager.ErrGameNotFound, "player %d is not in game %s", playerID, out.GameID))
}

func (s *Server) listGames(c *gin.Context) {
	if s.lister == nil {
		c.JSON(http.StatusNotImplemented, appError{
			Code:    http.StatusNotImplemented,
			Message: "game history is not available on this server",
		})
		return
	}
	var filter history.GameFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		s.badRequest(c, err)
		return
	}
	page, err := s.lister.ListGames(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) badRequest(c *gin.Context, err error) {
	restLogger.Error().Msgf("Failed to parse request. Error: %v", err)
	c.JSON(http.StatusBadRequest, appError{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	})
	c.Error(err)
}

// fail maps an error to its HTTP status: rejected input is 400, an event
// the game cannot take now is 409, stored history that cannot be replayed
// is 422 and an unknown game is 404.
func (s *Server) fail(c *gin.Context, err error) {
	resp := appError{Code: http.StatusInternalServerError, Message: err.Error()}
	cause := errors.Cause(err)
	if verr, ok := cause.(*game.ValidationError); ok {
		resp.Code = http.StatusBadRequest
		resp.Kind = verr.Kind
		resp.Players = verr.Players
	} else {
		switch cause {
		case manager.ErrGameNotFound:
			resp.Code = http.StatusNotFound
		case manager.ErrInvalidTransition, manager.ErrGameAbandoned:
			resp.Code = http.StatusConflict
		case manager.ErrCorruptHistory:
			resp.Code = http.StatusUnprocessableEntity
		}
	}
	if resp.Code == http.StatusInternalServerError {
		restLogger.Error().Str(logging.GameIDKey, c.Param("id")).Err(err).Msg("Request failed")
	} else {
		restLogger.Debug().Str(logging.GameIDKey, c.Param("id")).Msg(err.Error())
	}
	c.JSON(resp.Code, resp)
	c.Error(err)
}
