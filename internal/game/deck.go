// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/modernart/internal/models"
)

// GenerateDeck builds the unshuffled deck: CardsPerArtist cards for every
// artist, ids starting at 1. Auction types are assigned cyclically within
// each artist so every artist carries the same mix of mechanisms.
func GenerateDeck(rules Rules) []models.Card {
	deck := make([]models.Card, 0, len(rules.Artists)*rules.CardsPerArtist)
	id := 1
	for _, artist := range rules.Artists {
		for i := 0; i < rules.CardsPerArtist; i++ {
			deck = append(deck, models.Card{
				ID:          id,
				Artist:      artist,
				AuctionType: models.AuctionTypes[i%len(models.AuctionTypes)],
			})
			id++
		}
	}
	return deck
}

// Shuffle returns a uniformly permuted copy of cards (Fisher-Yates).
func Shuffle(cards []models.Card, r *rand.Rand) []models.Card {
	out := append([]models.Card(nil), cards...)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DealInitialHands gives each player, in seat order, the next contiguous
// slice of cardsPerPlayer cards and returns the undealt remainder.
// Existing hands are replaced.
func DealInitialHands(players []*models.Player, deck []models.Card, cardsPerPlayer int) ([]models.Card, error) {
	need := len(players) * cardsPerPlayer
	if need > len(deck) {
		return deck, fmt.Errorf("%w: %d players x %d cards = %d > %d in deck",
			ErrInsufficientCards, len(players), cardsPerPlayer, need, len(deck))
	}
	for i, p := range players {
		start := i * cardsPerPlayer
		p.Hand = append([]models.Card(nil), deck[start:start+cardsPerPlayer]...)
	}
	return append([]models.Card(nil), deck[need:]...), nil
}

// ReplenishHands deals one card at a time around the table, in seat order,
// until every hand holds handSize cards or the deck runs out. It fails only
// when nobody ends up holding a card, since the round could not be played.
func ReplenishHands(players []*models.Player, deck []models.Card, handSize int) ([]models.Card, error) {
	remaining := append([]models.Card(nil), deck...)
	for dealt := true; dealt && len(remaining) > 0; {
		dealt = false
		for _, p := range players {
			if len(remaining) == 0 {
				break
			}
			if len(p.Hand) >= handSize {
				continue
			}
			p.Hand = append(p.Hand, remaining[0])
			remaining = remaining[1:]
			dealt = true
		}
	}
	for _, p := range players {
		if len(p.Hand) > 0 {
			return remaining, nil
		}
	}
	return remaining, fmt.Errorf("%w: no cards left to start the round", ErrInsufficientCards)
}
