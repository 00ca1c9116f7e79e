// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/game"
	"github.com/jason-s-yu/modernart/internal/models"
	"github.com/jason-s-yu/modernart/internal/monitor"
	"github.com/jason-s-yu/modernart/internal/store"
	"github.com/sirupsen/logrus"
)

// Publisher receives an ActionRecord for every committed command.
type Publisher interface {
	Publish(ctx context.Context, record models.ActionRecord) error
}

// ResultRecorder archives the outcome of a finished game.
type ResultRecorder interface {
	RecordGameResults(ctx context.Context, g *models.Game, winners []uuid.UUID) error
}

// Options configures an Engine. Only Rules is required; the zero value of
// every other field disables the feature.
type Options struct {
	Rules          game.Rules
	Monitor        *monitor.Monitor
	Publisher      Publisher
	Results        ResultRecorder
	AuctionTimeout time.Duration
	Seed           int64 // 0 seeds from the clock
}

// Engine runs commands against stored games. Every command is a pure
// reducer applied inside Store.Update; side effects (action log, metrics,
// subscriber notification, archive) happen only after the write committed.
type Engine struct {
	store   store.Store
	logger  *logrus.Logger
	rules   game.Rules
	monitor *monitor.Monitor
	pub     Publisher
	results ResultRecorder
	timeout time.Duration

	randMu sync.Mutex
	rng    *rand.Rand

	subsMu sync.Mutex
	subs   map[uuid.UUID]map[*Subscription]struct{}

	timersMu sync.Mutex
	timers   map[uuid.UUID]*time.Timer
	closed   bool
}

func New(st store.Store, logger *logrus.Logger, opts Options) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		store:   st,
		logger:  logger,
		rules:   opts.Rules,
		monitor: opts.Monitor,
		pub:     opts.Publisher,
		results: opts.Results,
		timeout: opts.AuctionTimeout,
		rng:     rand.New(rand.NewSource(seed)),
		subs:    make(map[uuid.UUID]map[*Subscription]struct{}),
		timers:  make(map[uuid.UUID]*time.Timer),
	}
}

// env returns a reducer environment with its own generator, since
// *rand.Rand is not safe for concurrent use.
func (e *Engine) env() game.Env {
	e.randMu.Lock()
	seed := e.rng.Int63()
	e.randMu.Unlock()
	return game.Env{Rules: e.rules, Rand: rand.New(rand.NewSource(seed))}
}

func (e *Engine) Get(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	return e.store.Get(ctx, gameID)
}

// CreateGame stores a new waiting game hosted by host.
func (e *Engine) CreateGame(ctx context.Context, host models.Player) (*models.Game, error) {
	g := game.NewGame(uuid.New(), host, e.env())
	if err := e.store.Create(ctx, g); err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{"game_id": g.ID, "host": host.ID}).Info("game created")
	e.publish(ctx, g, host.ID, "action_create", map[string]interface{}{"name": host.Name})
	return g, nil
}

func (e *Engine) Join(ctx context.Context, gameID uuid.UUID, p models.Player) (*models.Game, error) {
	g, _, err := e.run(ctx, gameID, game.Join{Player: p})
	return g, err
}

func (e *Engine) Start(ctx context.Context, gameID, by uuid.UUID) (*models.Game, error) {
	g, _, err := e.run(ctx, gameID, game.Start{By: by})
	return g, err
}

// Offer first closes a round whose end condition already holds, then puts
// the card up for auction.
func (e *Engine) Offer(ctx context.Context, gameID, seller uuid.UUID, cardID int, secondCardID *int) (*models.Game, error) {
	if _, err := e.CheckRound(ctx, gameID); err != nil {
		return nil, err
	}
	g, _, err := e.run(ctx, gameID, game.Offer{Seller: seller, CardID: cardID, SecondCardID: secondCardID})
	if err != nil {
		return nil, err
	}
	if g.Auction != nil {
		e.armTimer(gameID, g.Auction.Card.ID)
	}
	return g, nil
}

func (e *Engine) SetFixedPrice(ctx context.Context, gameID, seller uuid.UUID, price int) (*models.Game, error) {
	g, _, err := e.run(ctx, gameID, game.SetFixedPrice{Seller: seller, Price: price})
	return g, err
}

func (e *Engine) PlaceBid(ctx context.Context, gameID, bidder uuid.UUID, amount int) (*models.Game, error) {
	g, _, err := e.run(ctx, gameID, game.PlaceBid{Bidder: bidder, Amount: amount})
	return g, err
}

func (e *Engine) Buy(ctx context.Context, gameID, buyer uuid.UUID) (*models.Game, error) {
	g, _, err := e.run(ctx, gameID, game.AcceptFixedPrice{Buyer: buyer})
	return g, err
}

// Finish resolves and settles the active auction, then runs the round
// check. A sealed tie closes bidding and returns the committed game together
// with a *game.TieBreakError; finish again with forcedWinner to settle it.
// Finishing when no auction is active is a no-op.
func (e *Engine) Finish(ctx context.Context, gameID, by uuid.UUID, forcedWinner *uuid.UUID) (*models.Game, error) {
	return e.finish(ctx, gameID, game.Finish{By: by, ForcedWinner: forcedWinner})
}

func (e *Engine) finish(ctx context.Context, gameID uuid.UUID, cmd game.Finish) (*models.Game, error) {
	g, eff, err := e.run(ctx, gameID, cmd)
	if err != nil {
		return nil, err
	}
	if eff.Tie != nil {
		return g, eff.Tie
	}
	if eff.Settlement == nil {
		return g, nil
	}
	e.stopTimer(gameID)
	return e.CheckRound(ctx, gameID)
}

// Cancel withdraws the seller's auction.
func (e *Engine) Cancel(ctx context.Context, gameID, seller uuid.UUID) (*models.Game, error) {
	_, eff, err := e.run(ctx, gameID, game.CancelAuction{Seller: seller})
	if err != nil {
		return nil, err
	}
	if eff.Settlement != nil {
		e.stopTimer(gameID)
	}
	return e.CheckRound(ctx, gameID)
}

// CheckRound ends the current round if its end condition holds. It is safe
// to call at any time.
func (e *Engine) CheckRound(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	g, _, err := e.run(ctx, gameID, game.AdvanceRound{})
	return g, err
}

// run applies cmd in one store transaction and performs the post-commit
// side effects when the game changed.
func (e *Engine) run(ctx context.Context, gameID uuid.UUID, cmd game.Command) (*models.Game, game.Effect, error) {
	start := time.Now()
	env := e.env()
	var eff game.Effect
	g, err := e.store.Update(ctx, gameID, func(cur *models.Game) (*models.Game, error) {
		next, ef, err := game.Reduce(cur, cmd, env)
		if err != nil {
			return nil, err
		}
		eff = ef
		if !ef.Changed {
			return nil, store.ErrSkipWrite
		}
		return next, nil
	})
	e.monitor.ObserveCommand(cmd.Name(), outcome(eff, err), time.Since(start))

	log := e.logger.WithFields(logrus.Fields{
		"game_id": gameID,
		"command": cmd.Name(),
		"actor":   cmd.Actor(),
	})
	if err != nil {
		switch {
		case errors.Is(err, game.ErrInvariantViolation):
			log.Errorf("command aborted: %v", err)
		case errors.Is(err, store.ErrConcurrencyConflict):
			log.Warnf("command gave up: %v", err)
		default:
			log.Debugf("command refused: %v", err)
		}
		return nil, game.Effect{}, err
	}
	if !eff.Changed {
		return g, eff, nil
	}

	log.WithField("version", g.Version).Debug("command committed")
	e.afterCommit(ctx, g, cmd, eff)
	return g, eff, nil
}

func (e *Engine) afterCommit(ctx context.Context, g *models.Game, cmd game.Command, eff game.Effect) {
	e.publish(ctx, g, cmd.Actor(), cmd.Name(), eff.Payload)

	if _, ok := cmd.(game.Start); ok {
		e.monitor.GameStarted()
	}
	if s := eff.Settlement; s != nil {
		_, cancelled := cmd.(game.CancelAuction)
		result := "void"
		switch {
		case cancelled:
			result = "cancelled"
		case s.WinnerID != nil:
			result = "sold"
		}
		e.monitor.IncAuctionSettled(string(s.Type), result)
	}
	if eff.RoundAdvanced {
		e.monitor.IncRoundsEnded()
		e.logger.WithFields(logrus.Fields{"game_id": g.ID, "round": eff.Payload["round"]}).Info("round ended")
		if g.Status == models.StatusFinished {
			e.onGameFinished(ctx, g)
		}
	}

	e.notify(g)
}

func (e *Engine) onGameFinished(ctx context.Context, g *models.Game) {
	e.monitor.GameFinished()
	e.stopTimer(g.ID)
	winners := game.Winners(g)
	e.logger.WithFields(logrus.Fields{"game_id": g.ID, "winners": winners}).Info("game finished")
	if e.results == nil {
		return
	}
	if err := e.results.RecordGameResults(ctx, g, winners); err != nil {
		e.logger.WithField("game_id", g.ID).Errorf("record game results: %v", err)
	}
}

// publish appends the action to the log. Failures are logged and counted;
// the game state is already committed.
func (e *Engine) publish(ctx context.Context, g *models.Game, actor uuid.UUID, action string, payload map[string]interface{}) {
	if e.pub == nil {
		return
	}
	rec := models.ActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.Version,
		ActorUserID:   actor,
		ActionType:    action,
		ActionPayload: payload,
		Timestamp:     g.UpdatedAt.UnixMilli(),
	}
	if err := e.pub.Publish(ctx, rec); err != nil {
		e.monitor.IncPublishFailures()
		e.logger.WithField("game_id", g.ID).Warnf("publish %s: %v", action, err)
	}
}

func outcome(eff game.Effect, err error) string {
	switch {
	case err == nil && !eff.Changed:
		return "noop"
	case err == nil:
		return "ok"
	case errors.Is(err, game.ErrValidationRejected):
		return "rejected"
	case errors.Is(err, game.ErrPreconditionFailed):
		return "precondition"
	case errors.Is(err, store.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}
