package models

import "github.com/google/uuid"

type Player struct {
	ID     uuid.UUID `json:"uid"`
	Name   string    `json:"name"`
	Money  int       `json:"money"`
	IsHost bool      `json:"isHost"`

	// Hand holds the cards the player may still offer.
	Hand []Card `json:"hand"`

	// Collection holds the cards won during the current round. They are paid
	// out and moved to Sold when the round ends.
	Collection []Card `json:"collection"`
	Sold       []Card `json:"sold,omitempty"`
}

// CountArtist returns how many cards of the given artist are in the collection.
func (p *Player) CountArtist(artist string) int {
	n := 0
	for _, c := range p.Collection {
		if c.Artist == artist {
			n++
		}
	}
	return n
}

// TakeFromHand removes the card with the given id from the hand and returns it.
func (p *Player) TakeFromHand(cardID int) (Card, bool) {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i:i], p.Hand[i+1:]...)
			return c, true
		}
	}
	return Card{}, false
}

// HandCard returns the card with the given id without removing it.
func (p *Player) HandCard(cardID int) (Card, bool) {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c, true
		}
	}
	return Card{}, false
}
