// internal/models/game.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the coarse lifecycle state of a game.
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "in-progress"
	StatusFinished   GameStatus = "finished"
)

// RoundResult records how a finished round was valued and paid.
type RoundResult struct {
	Round   int               `json:"round"`
	Counts  map[string]int    `json:"counts"`
	Values  map[string]int    `json:"values"`
	Payouts map[uuid.UUID]int `json:"payouts"`
}

// Game is the root aggregate. Everything a game needs lives inside this one
// document so it can be read and written atomically.
type Game struct {
	ID      uuid.UUID  `json:"id"`
	Status  GameStatus `json:"status"`
	Players []*Player  `json:"players"`
	Round   int        `json:"round"`

	ArtistCounts map[string]int `json:"artistCounts"`
	ArtistValues map[string]int `json:"artistValues"`
	History      []RoundResult  `json:"history,omitempty"`

	Deck        []Card `json:"deck"`
	DiscardPile []Card `json:"discardPile"`

	// Auction is nil when no sale is running. It is omitted from the stored
	// document rather than written as null.
	Auction      *Auction  `json:"auction,omitempty"`
	TurnPlayerID uuid.UUID `json:"turnPlayerId"`

	// Version is bumped by the store on every committed write.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Player returns the player with the given id, or nil.
func (g *Game) Player(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Seat returns the seat index of the given player, or -1.
func (g *Game) Seat(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Host returns the player that created the game, or nil.
func (g *Game) Host() *Player {
	for _, p := range g.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy of the game so reducers never mutate the
// snapshot they were handed.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		pc.Hand = cloneCards(p.Hand)
		pc.Collection = cloneCards(p.Collection)
		pc.Sold = cloneCards(p.Sold)
		c.Players[i] = &pc
	}
	c.ArtistCounts = cloneIntMap(g.ArtistCounts)
	c.ArtistValues = cloneIntMap(g.ArtistValues)
	if g.History != nil {
		c.History = make([]RoundResult, len(g.History))
		for i, r := range g.History {
			rc := r
			rc.Counts = cloneIntMap(r.Counts)
			rc.Values = cloneIntMap(r.Values)
			if r.Payouts != nil {
				rc.Payouts = make(map[uuid.UUID]int, len(r.Payouts))
				for k, v := range r.Payouts {
					rc.Payouts[k] = v
				}
			}
			c.History[i] = rc
		}
	}
	c.Deck = cloneCards(g.Deck)
	c.DiscardPile = cloneCards(g.DiscardPile)
	if g.Auction != nil {
		a := *g.Auction
		if g.Auction.Bids != nil {
			a.Bids = append(make([]Bid, 0, len(g.Auction.Bids)), g.Auction.Bids...)
		}
		if g.Auction.SecondCard != nil {
			sc := *g.Auction.SecondCard
			a.SecondCard = &sc
		}
		if g.Auction.HighestBid != nil {
			hb := *g.Auction.HighestBid
			a.HighestBid = &hb
		}
		if g.Auction.FixedPrice != nil {
			fp := *g.Auction.FixedPrice
			a.FixedPrice = &fp
		}
		c.Auction = &a
	}
	return &c
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	return append(make([]Card, 0, len(cards)), cards...)
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
