// internal/game/settle.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

// Settlement describes what Settle or Cancel did to the game.
type Settlement struct {
	Type     models.AuctionType
	SellerID uuid.UUID
	WinnerID *uuid.UUID
	Price    int
	Cards    []models.Card
	NextTurn uuid.UUID
}

// Settle applies a resolver result to the game: money moves from winner to
// seller, the cards join the winner's collection, artist counts grow, the
// turn passes to the seat after the seller and the auction is removed.
// A void result discards the cards instead.
//
// Settle on a game without an auction is a no-op returning (nil, nil), so a
// duplicate finish trigger is harmless. On error the game may be partially
// modified; callers work on a clone and drop it.
func Settle(g *models.Game, res Result) (*Settlement, error) {
	a := g.Auction
	if a == nil {
		return nil, nil
	}
	if res.TiePending() {
		return nil, &TieBreakError{Tied: res.Tied, Amount: res.Price}
	}

	seller := g.Player(a.HostPlayerID)
	if seller == nil {
		return nil, fmt.Errorf("%w: seller %s not in game", ErrInvariantViolation, a.HostPlayerID)
	}
	cards := a.Cards()
	s := &Settlement{Type: a.Type, SellerID: seller.ID, Cards: cards}

	if !res.HasWinner() {
		g.DiscardPile = append(g.DiscardPile, cards...)
	} else {
		winner := g.Player(*res.WinnerID)
		if winner == nil {
			return nil, fmt.Errorf("%w: winner %s not in game", ErrInvariantViolation, *res.WinnerID)
		}
		if len(a.Bids) == 0 {
			return nil, fmt.Errorf("%w: winner resolved with no bids", ErrInvariantViolation)
		}
		if res.Price < 0 || winner.Money-res.Price < 0 {
			return nil, fmt.Errorf("%w: player %s would pay %d with only %d",
				ErrInvariantViolation, winner.ID, res.Price, winner.Money)
		}
		winner.Money -= res.Price
		seller.Money += res.Price
		winner.Collection = append(winner.Collection, cards...)

		if g.ArtistCounts == nil {
			g.ArtistCounts = make(map[string]int)
		}
		g.ArtistCounts[a.Card.Artist] += len(cards)

		w := winner.ID
		s.WinnerID = &w
		s.Price = res.Price
	}

	a.Resolved = true
	g.Auction = nil
	g.TurnPlayerID = nextTurn(g, g.Seat(seller.ID))
	s.NextTurn = g.TurnPlayerID
	return s, nil
}

// Cancel withdraws the active auction. The cards go back to the seller's
// hand and the turn passes on; money and counts are untouched.
func Cancel(g *models.Game, sellerID uuid.UUID) (*Settlement, error) {
	a := g.Auction
	if a == nil {
		return nil, nil
	}
	if a.HostPlayerID != sellerID {
		return nil, ErrNotSeller
	}
	if a.Resolved {
		return nil, ErrAuctionResolved
	}
	seller := g.Player(sellerID)
	if seller == nil {
		return nil, fmt.Errorf("%w: seller %s not in game", ErrInvariantViolation, sellerID)
	}

	cards := a.Cards()
	seller.Hand = append(seller.Hand, cards...)
	g.Auction = nil
	g.TurnPlayerID = nextTurn(g, g.Seat(sellerID))
	return &Settlement{Type: a.Type, SellerID: sellerID, Cards: cards, NextTurn: g.TurnPlayerID}, nil
}

// nextTurn returns the first player after seat who still holds cards. When
// nobody has cards left it simply returns the next seat.
func nextTurn(g *models.Game, seat int) uuid.UUID {
	n := len(g.Players)
	if n == 0 {
		return uuid.Nil
	}
	if seat < 0 {
		seat = n - 1
	}
	for i := 1; i <= n; i++ {
		p := g.Players[(seat+i)%n]
		if len(p.Hand) > 0 {
			return p.ID
		}
	}
	return g.Players[(seat+1)%n].ID
}

func anyCardsInHand(g *models.Game) bool {
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			return true
		}
	}
	return false
}
