// internal/game/resolve.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

// Result is the outcome of resolving an auction. WinnerID is nil when the
// auction is void, or when a sealed auction is tied and awaits a decision,
// in which case Tied lists the candidates.
type Result struct {
	WinnerID *uuid.UUID
	Price    int
	Tied     []uuid.UUID
}

// HasWinner reports whether the result names a buyer.
func (r Result) HasWinner() bool {
	return r.WinnerID != nil
}

// TiePending reports whether the result is waiting on a forced winner.
func (r Result) TiePending() bool {
	return r.WinnerID == nil && len(r.Tied) > 1
}

// Resolve determines the winner and clearing price of an auction. players
// must be in seat order; it is used for the once-auction proximity rule.
// forcedWinner is only consulted to settle a sealed-auction tie.
func Resolve(a *models.Auction, players []*models.Player, forcedWinner *uuid.UUID) (Result, error) {
	if a == nil {
		return Result{}, ErrNoActiveAuction
	}
	if len(a.Bids) == 0 {
		return Result{}, nil
	}

	switch a.Type {
	case models.AuctionOpen, models.AuctionDouble:
		if a.HighestBid == nil {
			return Result{}, nil
		}
		return winnerResult(a.HighestBid.PlayerID, a.HighestBid.Amount), nil

	case models.AuctionFixed:
		if a.FixedPrice == nil {
			return Result{}, fmt.Errorf("%w: fixed auction has a bid but no price", ErrInvariantViolation)
		}
		return winnerResult(a.Bids[0].PlayerID, *a.FixedPrice), nil

	case models.AuctionSealed:
		tied, amount := topBidders(a.Bids)
		if len(tied) == 1 {
			return winnerResult(tied[0], amount), nil
		}
		if forcedWinner == nil {
			return Result{Price: amount, Tied: tied}, nil
		}
		for _, id := range tied {
			if id == *forcedWinner {
				return winnerResult(id, amount), nil
			}
		}
		return Result{}, ErrInvalidForcedWinner

	case models.AuctionOnce:
		tied, amount := topBidders(a.Bids)
		return winnerResult(closestToSeller(tied, a.HostPlayerID, players), amount), nil

	default:
		return Result{}, fmt.Errorf("%w: unknown auction type %q", ErrInvariantViolation, a.Type)
	}
}

func winnerResult(id uuid.UUID, price int) Result {
	w := id
	return Result{WinnerID: &w, Price: price}
}

// topBidders returns every bidder tied at the maximum amount, in bid order.
func topBidders(bids []models.Bid) ([]uuid.UUID, int) {
	top := 0
	var tied []uuid.UUID
	for _, b := range bids {
		switch {
		case b.Amount > top:
			top = b.Amount
			tied = []uuid.UUID{b.PlayerID}
		case b.Amount == top:
			tied = append(tied, b.PlayerID)
		}
	}
	return tied, top
}

// closestToSeller picks the candidate with the smallest forward seat
// distance from the seller. Candidates missing from the table sort last.
func closestToSeller(candidates []uuid.UUID, sellerID uuid.UUID, players []*models.Player) uuid.UUID {
	n := len(players)
	seat := func(id uuid.UUID) int {
		for i, p := range players {
			if p.ID == id {
				return i
			}
		}
		return -1
	}
	sellerSeat := seat(sellerID)

	best := candidates[0]
	bestDist := n + 1
	for _, id := range candidates {
		s := seat(id)
		dist := n + 1
		if s >= 0 && sellerSeat >= 0 {
			dist = (s - sellerSeat + n) % n
		}
		if dist < bestDist {
			best, bestDist = id, dist
		}
	}
	return best
}
