// internal/game/reducer.go
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

// Env carries what a reducer needs beyond the game itself.
type Env struct {
	Rules Rules
	Rand  *rand.Rand       // used to shuffle the deck on Start
	Now   func() time.Time // defaults to time.Now
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) rand() *rand.Rand {
	if e.Rand != nil {
		return e.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Effect describes what a command did.
type Effect struct {
	Changed       bool
	Settlement    *Settlement
	Tie           *TieBreakError
	RoundAdvanced bool
	Payload       map[string]interface{}
}

// Command is one of the state transitions a game accepts. The set is closed:
// only the types in this file implement it.
type Command interface {
	Name() string
	Actor() uuid.UUID
	apply(g *models.Game, env Env) (Effect, error)
}

// NewGame builds a waiting game hosted by host.
func NewGame(id uuid.UUID, host models.Player, env Env) *models.Game {
	now := env.now()
	host.IsHost = true
	host.Money = env.Rules.StartingMoney
	return &models.Game{
		ID:           id,
		Status:       models.StatusWaiting,
		Players:      []*models.Player{&host},
		Round:        0,
		ArtistCounts: make(map[string]int),
		ArtistValues: make(map[string]int),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Reduce applies cmd to a copy of state. On error, or when the command had
// no effect, the original state is returned untouched.
func Reduce(state *models.Game, cmd Command, env Env) (*models.Game, Effect, error) {
	if state == nil {
		return nil, Effect{}, fmt.Errorf("%w: no game state", ErrPreconditionFailed)
	}
	next := state.Clone()
	eff, err := cmd.apply(next, env)
	if err != nil {
		return state, Effect{}, err
	}
	if !eff.Changed {
		return state, eff, nil
	}
	next.UpdatedAt = env.now()
	return next, eff, nil
}

// Join seats a new player while the game is waiting.
type Join struct {
	Player models.Player
}

func (c Join) Name() string     { return "action_join" }
func (c Join) Actor() uuid.UUID { return c.Player.ID }

func (c Join) apply(g *models.Game, env Env) (Effect, error) {
	if g.Status != models.StatusWaiting {
		return Effect{}, ErrNotWaiting
	}
	if g.Player(c.Player.ID) != nil {
		return Effect{}, ErrAlreadyJoined
	}
	p := c.Player
	p.IsHost = false
	p.Money = env.Rules.StartingMoney
	p.Hand, p.Collection, p.Sold = nil, nil, nil
	g.Players = append(g.Players, &p)
	return Effect{Changed: true, Payload: map[string]interface{}{"name": p.Name, "seat": len(g.Players) - 1}}, nil
}

// Start shuffles a fresh deck, deals the opening hands and begins round 1.
type Start struct {
	By uuid.UUID
}

func (c Start) Name() string     { return "action_start" }
func (c Start) Actor() uuid.UUID { return c.By }

func (c Start) apply(g *models.Game, env Env) (Effect, error) {
	if g.Status != models.StatusWaiting {
		return Effect{}, ErrNotWaiting
	}
	if host := g.Host(); host == nil || host.ID != c.By {
		return Effect{}, ErrNotHost
	}
	if len(g.Players) < env.Rules.MinPlayers {
		return Effect{}, ErrNotEnoughPlayers
	}

	deck := Shuffle(GenerateDeck(env.Rules), env.rand())
	rest, err := DealInitialHands(g.Players, deck, env.Rules.CardsPerPlayer)
	if err != nil {
		return Effect{}, err
	}
	for _, p := range g.Players {
		p.Money = env.Rules.StartingMoney
		p.Collection, p.Sold = nil, nil
	}
	g.Deck = rest
	g.DiscardPile = nil
	g.Round = 1
	g.ArtistCounts = make(map[string]int)
	g.ArtistValues = make(map[string]int)
	g.History = nil
	g.Auction = nil
	g.Status = models.StatusInProgress
	g.TurnPlayerID = g.Players[0].ID
	return Effect{Changed: true, Payload: map[string]interface{}{"players": len(g.Players), "deckSize": len(rest)}}, nil
}

// Offer puts a card from the turn player's hand up for auction. For a double
// auction SecondCardID may name a second, non-double card of the same artist.
type Offer struct {
	Seller       uuid.UUID
	CardID       int
	SecondCardID *int
}

func (c Offer) Name() string     { return "action_offer" }
func (c Offer) Actor() uuid.UUID { return c.Seller }

func (c Offer) apply(g *models.Game, env Env) (Effect, error) {
	if g.Status != models.StatusInProgress {
		return Effect{}, ErrNotInProgress
	}
	if g.Auction != nil {
		return Effect{}, ErrAuctionActive
	}
	if RoundOver(g, env.Rules) {
		return Effect{}, ErrRoundPending
	}
	if g.TurnPlayerID != c.Seller {
		return Effect{}, ErrNotYourTurn
	}
	seller := g.Player(c.Seller)
	if seller == nil {
		return Effect{}, ErrUnknownPlayer
	}
	card, ok := seller.HandCard(c.CardID)
	if !ok {
		return Effect{}, ErrCardNotInHand
	}

	var second *models.Card
	if c.SecondCardID != nil {
		if card.AuctionType != models.AuctionDouble || *c.SecondCardID == c.CardID {
			return Effect{}, ErrInvalidSecondCard
		}
		sc, ok := seller.HandCard(*c.SecondCardID)
		if !ok {
			return Effect{}, ErrCardNotInHand
		}
		if sc.Artist != card.Artist || sc.AuctionType == models.AuctionDouble {
			return Effect{}, ErrInvalidSecondCard
		}
		seller.TakeFromHand(sc.ID)
		second = &sc
	}
	seller.TakeFromHand(card.ID)

	g.Auction = &models.Auction{
		Type:         card.AuctionType,
		Card:         card,
		SecondCard:   second,
		HostPlayerID: seller.ID,
		Bids:         []models.Bid{},
		StartedAt:    env.now(),
	}
	payload := map[string]interface{}{"cardId": card.ID, "artist": card.Artist, "type": string(card.AuctionType)}
	if second != nil {
		payload["secondCardId"] = second.ID
	}
	return Effect{Changed: true, Payload: payload}, nil
}

// SetFixedPrice announces the price of a fixed-price auction.
type SetFixedPrice struct {
	Seller uuid.UUID
	Price  int
}

func (c SetFixedPrice) Name() string     { return "action_set_fixed_price" }
func (c SetFixedPrice) Actor() uuid.UUID { return c.Seller }

func (c SetFixedPrice) apply(g *models.Game, env Env) (Effect, error) {
	a := g.Auction
	if a == nil {
		return Effect{}, ErrNoActiveAuction
	}
	if a.Type != models.AuctionFixed {
		return Effect{}, ErrWrongAuctionType
	}
	if a.HostPlayerID != c.Seller {
		return Effect{}, ErrNotSeller
	}
	if a.FixedPrice != nil || len(a.Bids) > 0 {
		return Effect{}, ErrFixedPriceSet
	}
	seller := g.Player(c.Seller)
	if seller == nil {
		return Effect{}, ErrUnknownPlayer
	}
	if c.Price <= 0 || c.Price > seller.Money {
		return Effect{}, ErrInvalidPrice
	}
	price := c.Price
	a.FixedPrice = &price
	return Effect{Changed: true, Payload: map[string]interface{}{"price": price}}, nil
}

// PlaceBid records a bid after validating it against the current snapshot.
type PlaceBid struct {
	Bidder uuid.UUID
	Amount int
}

func (c PlaceBid) Name() string     { return "action_bid" }
func (c PlaceBid) Actor() uuid.UUID { return c.Bidder }

func (c PlaceBid) apply(g *models.Game, env Env) (Effect, error) {
	if g.Status != models.StatusInProgress {
		return Effect{}, ErrNotInProgress
	}
	bidder := g.Player(c.Bidder)
	if bidder == nil {
		return Effect{}, ErrUnknownPlayer
	}
	if err := Validate(g.Auction, c.Bidder, c.Amount, bidder.Money); err != nil {
		return Effect{}, err
	}
	recordBid(g.Auction, models.Bid{PlayerID: c.Bidder, Amount: c.Amount})
	return Effect{Changed: true, Payload: map[string]interface{}{"amount": c.Amount}}, nil
}

// AcceptFixedPrice buys the card of a fixed-price auction at its price.
type AcceptFixedPrice struct {
	Buyer uuid.UUID
}

func (c AcceptFixedPrice) Name() string     { return "action_buy" }
func (c AcceptFixedPrice) Actor() uuid.UUID { return c.Buyer }

func (c AcceptFixedPrice) apply(g *models.Game, env Env) (Effect, error) {
	a := g.Auction
	if a == nil {
		return Effect{}, ErrNoActiveAuction
	}
	if a.Type != models.AuctionFixed {
		return Effect{}, ErrWrongAuctionType
	}
	buyer := g.Player(c.Buyer)
	if buyer == nil {
		return Effect{}, ErrUnknownPlayer
	}
	if a.FixedPrice == nil {
		return Effect{}, reject(ReasonPriceNotSet)
	}
	price := *a.FixedPrice
	if err := Validate(a, c.Buyer, price, buyer.Money); err != nil {
		return Effect{}, err
	}
	recordBid(a, models.Bid{PlayerID: c.Buyer, Amount: price})
	return Effect{Changed: true, Payload: map[string]interface{}{"amount": price}}, nil
}

// Finish resolves and settles the active auction. By is the seller, the game
// host, or uuid.Nil when an external timer fires. ForcedWinner breaks a
// sealed-auction tie. A non-zero CardID limits the finish to the auction of
// that card.
type Finish struct {
	By           uuid.UUID
	ForcedWinner *uuid.UUID
	CardID       int
}

func (c Finish) Name() string     { return "action_finish" }
func (c Finish) Actor() uuid.UUID { return c.By }

func (c Finish) apply(g *models.Game, env Env) (Effect, error) {
	a := g.Auction
	if a == nil || (c.CardID != 0 && a.Card.ID != c.CardID) {
		return Effect{}, nil
	}
	if c.By != uuid.Nil && c.By != a.HostPlayerID {
		if host := g.Host(); host == nil || host.ID != c.By {
			return Effect{}, ErrNotSeller
		}
	}

	res, err := Resolve(a, g.Players, c.ForcedWinner)
	if err != nil {
		return Effect{}, err
	}
	s, err := Settle(g, res)
	var tie *TieBreakError
	if errors.As(err, &tie) {
		// bidding closes once the bids have been revealed
		changed := !a.Resolved
		a.Resolved = true
		return Effect{Changed: changed, Tie: tie, Payload: map[string]interface{}{"tied": tie.Tied, "amount": tie.Amount}}, nil
	}
	if err != nil {
		return Effect{}, err
	}

	payload := map[string]interface{}{"seller": s.SellerID, "price": s.Price, "cards": len(s.Cards)}
	if s.WinnerID != nil {
		payload["winner"] = *s.WinnerID
	}
	return Effect{Changed: true, Settlement: s, Payload: payload}, nil
}

// CancelAuction withdraws the active auction before it is resolved.
type CancelAuction struct {
	Seller uuid.UUID
}

func (c CancelAuction) Name() string     { return "action_cancel" }
func (c CancelAuction) Actor() uuid.UUID { return c.Seller }

func (c CancelAuction) apply(g *models.Game, env Env) (Effect, error) {
	s, err := Cancel(g, c.Seller)
	if err != nil || s == nil {
		return Effect{}, err
	}
	return Effect{Changed: true, Settlement: s, Payload: map[string]interface{}{"cards": len(s.Cards)}}, nil
}

// AdvanceRound ends the round when its end condition holds.
type AdvanceRound struct{}

func (c AdvanceRound) Name() string     { return "action_round_end" }
func (c AdvanceRound) Actor() uuid.UUID { return uuid.Nil }

func (c AdvanceRound) apply(g *models.Game, env Env) (Effect, error) {
	round := g.Round
	advanced, err := CheckAndAdvanceRound(g, env.Rules)
	if err != nil || !advanced {
		return Effect{}, err
	}
	payload := map[string]interface{}{"round": round, "values": g.ArtistValues, "status": string(g.Status)}
	if g.Status == models.StatusFinished {
		payload["winners"] = Winners(g)
	}
	return Effect{Changed: true, RoundAdvanced: true, Payload: payload}, nil
}
