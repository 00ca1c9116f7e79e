// internal/models/auction.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is a single offer made by a player.
type Bid struct {
	PlayerID uuid.UUID `json:"playerId"`
	Amount   int       `json:"amount"`
}

// Auction is the single active sale inside a game. It is removed from the
// game document once settled or cancelled.
type Auction struct {
	Type AuctionType `json:"type"`
	Card Card        `json:"card"`

	// SecondCard is the optional partner card of a double auction.
	SecondCard *Card `json:"secondCard,omitempty"`

	HostPlayerID uuid.UUID `json:"hostPlayerId"` // the seller
	Bids         []Bid     `json:"bids"`
	HighestBid   *Bid      `json:"highestBid,omitempty"`
	FixedPrice   *int      `json:"fixedPrice,omitempty"`
	Resolved     bool      `json:"resolved"`
	StartedAt    time.Time `json:"startedAt"`
}

// Cards returns every card being sold in this auction.
func (a *Auction) Cards() []Card {
	if a.SecondCard != nil {
		return []Card{a.Card, *a.SecondCard}
	}
	return []Card{a.Card}
}

// BidOf returns the bid recorded for a player, if any.
func (a *Auction) BidOf(playerID uuid.UUID) (Bid, bool) {
	for _, b := range a.Bids {
		if b.PlayerID == playerID {
			return b, true
		}
	}
	return Bid{}, false
}
