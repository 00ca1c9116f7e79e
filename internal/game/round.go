// internal/game/round.go
package game

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

// RoundOver reports whether the current round must end: an artist reached
// the threshold, or no auction is running and nobody has a card to offer.
func RoundOver(g *models.Game, rules Rules) bool {
	if g.Status != models.StatusInProgress {
		return false
	}
	for _, n := range g.ArtistCounts {
		if n >= rules.RoundEndThreshold {
			return true
		}
	}
	return g.Auction == nil && !anyCardsInHand(g)
}

// ArtistValues ranks the artists played this round by count, highest first,
// and assigns the payouts in rank order. Equal counts are ordered by the
// artist's position in rules.Artists; artists not listed there sort after
// all listed ones, alphabetically. Artists with no cards played earn nothing.
func ArtistValues(counts map[string]int, rules Rules) map[string]int {
	order := make(map[string]int, len(rules.Artists))
	for i, a := range rules.Artists {
		order[a] = i
	}
	rank := func(a string) int {
		if i, ok := order[a]; ok {
			return i
		}
		return len(order)
	}

	artists := make([]string, 0, len(counts))
	for a, n := range counts {
		if n > 0 {
			artists = append(artists, a)
		}
	}
	sort.Slice(artists, func(i, j int) bool {
		ai, aj := artists[i], artists[j]
		if counts[ai] != counts[aj] {
			return counts[ai] > counts[aj]
		}
		if rank(ai) != rank(aj) {
			return rank(ai) < rank(aj)
		}
		return ai < aj
	})

	values := make(map[string]int)
	for i, a := range artists {
		if i >= len(rules.Payouts) {
			break
		}
		values[a] = rules.Payouts[i]
	}
	return values
}

// Payout pays every player value x matching cards for the cards they won
// this round, then moves those cards to the player's sold pile.
func Payout(g *models.Game, values map[string]int) map[uuid.UUID]int {
	paid := make(map[uuid.UUID]int, len(g.Players))
	for _, p := range g.Players {
		total := 0
		for _, c := range p.Collection {
			total += values[c.Artist]
		}
		p.Money += total
		paid[p.ID] = total
		p.Sold = append(p.Sold, p.Collection...)
		p.Collection = nil
	}
	return paid
}

// CheckAndAdvanceRound ends the round if RoundOver holds: it values the
// artists, pays the players, then either finishes the game or starts the
// next round with replenished hands. It returns false when nothing changed.
// If no cards are left to start another round the game finishes early.
func CheckAndAdvanceRound(g *models.Game, rules Rules) (bool, error) {
	if !RoundOver(g, rules) {
		return false, nil
	}

	values := ArtistValues(g.ArtistCounts, rules)
	payouts := Payout(g, values)
	g.History = append(g.History, models.RoundResult{
		Round:   g.Round,
		Counts:  g.ArtistCounts,
		Values:  values,
		Payouts: payouts,
	})
	g.ArtistValues = values
	g.ArtistCounts = make(map[string]int)

	if g.Auction != nil {
		g.DiscardPile = append(g.DiscardPile, g.Auction.Cards()...)
		g.Auction = nil
	}

	if g.Round >= rules.MaxRounds {
		g.Status = models.StatusFinished
		return true, nil
	}

	deck, err := ReplenishHands(g.Players, g.Deck, rules.CardsPerPlayer)
	if errors.Is(err, ErrInsufficientCards) {
		g.Status = models.StatusFinished
		return true, nil
	}
	if err != nil {
		return false, err
	}
	g.Deck = deck
	g.Round++
	g.TurnPlayerID = nextTurn(g, -1)
	return true, nil
}

// Winners returns the richest players of a game, more than one on a tie.
func Winners(g *models.Game) []uuid.UUID {
	best := -1
	var ids []uuid.UUID
	for _, p := range g.Players {
		switch {
		case p.Money > best:
			best = p.Money
			ids = []uuid.UUID{p.ID}
		case p.Money == best:
			ids = append(ids, p.ID)
		}
	}
	return ids
}
