// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

// ObfPlayerState is one player as seen by the requesting user. Hands of
// other players are reduced to their size.
type ObfPlayerState struct {
	PlayerID      uuid.UUID     `json:"player_id"`
	Name          string        `json:"name"`
	Money         int           `json:"money"`
	IsHost        bool          `json:"isHost"`
	HandSize      int           `json:"hand_size"`
	IsCurrentTurn bool          `json:"isCurrentTurn"`
	Hand          []models.Card `json:"hand,omitempty"` // only for self
	Collection    []models.Card `json:"collection"`
}

// ObfAuction is the active auction as seen by the requesting user. Sealed and
// once bids stay hidden until the auction is revealed; the viewer always
// sees their own bid.
type ObfAuction struct {
	Type         models.AuctionType `json:"type"`
	Card         models.Card        `json:"card"`
	SecondCard   *models.Card       `json:"secondCard,omitempty"`
	HostPlayerID uuid.UUID          `json:"hostPlayerId"`
	BidCount     int                `json:"bidCount"`
	Bids         []models.Bid       `json:"bids,omitempty"`
	HighestBid   *models.Bid        `json:"highestBid,omitempty"`
	MyBid        *models.Bid        `json:"myBid,omitempty"`
	FixedPrice   *int               `json:"fixedPrice,omitempty"`
	Resolved     bool               `json:"resolved"`
}

// ObfGameState is the snapshot pushed to one client.
type ObfGameState struct {
	GameID       uuid.UUID            `json:"game_id"`
	Status       models.GameStatus    `json:"status"`
	Round        int                  `json:"round"`
	TurnPlayerID uuid.UUID            `json:"turnPlayerId"`
	DeckSize     int                  `json:"deckSize"`
	DiscardSize  int                  `json:"discardSize"`
	ArtistCounts map[string]int       `json:"artistCounts"`
	ArtistValues map[string]int       `json:"artistValues"`
	History      []models.RoundResult `json:"history,omitempty"`
	Auction      *ObfAuction          `json:"auction,omitempty"`
	Players      []ObfPlayerState     `json:"players"`
	Winners      []uuid.UUID          `json:"winners,omitempty"`
	Version      int64                `json:"version"`
}

// ObfuscatedState builds the snapshot of g for the requesting user.
func ObfuscatedState(g *models.Game, forUser uuid.UUID) ObfGameState {
	obf := ObfGameState{
		GameID:       g.ID,
		Status:       g.Status,
		Round:        g.Round,
		TurnPlayerID: g.TurnPlayerID,
		DeckSize:     len(g.Deck),
		DiscardSize:  len(g.DiscardPile),
		ArtistCounts: g.ArtistCounts,
		ArtistValues: g.ArtistValues,
		History:      g.History,
		Version:      g.Version,
	}
	if g.Status == models.StatusFinished {
		obf.Winners = Winners(g)
	}

	for _, pl := range g.Players {
		ps := ObfPlayerState{
			PlayerID:      pl.ID,
			Name:          pl.Name,
			Money:         pl.Money,
			IsHost:        pl.IsHost,
			HandSize:      len(pl.Hand),
			IsCurrentTurn: pl.ID == g.TurnPlayerID,
			Collection:    pl.Collection,
		}
		if pl.ID == forUser {
			ps.Hand = pl.Hand
		}
		obf.Players = append(obf.Players, ps)
	}

	if a := g.Auction; a != nil {
		oa := &ObfAuction{
			Type:         a.Type,
			Card:         a.Card,
			SecondCard:   a.SecondCard,
			HostPlayerID: a.HostPlayerID,
			BidCount:     len(a.Bids),
			FixedPrice:   a.FixedPrice,
			Resolved:     a.Resolved,
		}
		switch a.Type {
		case models.AuctionOpen, models.AuctionDouble, models.AuctionFixed:
			oa.Bids = a.Bids
			oa.HighestBid = a.HighestBid
		case models.AuctionSealed, models.AuctionOnce:
			if a.Resolved {
				oa.Bids = a.Bids
			}
		}
		if b, ok := a.BidOf(forUser); ok {
			oa.MyBid = &b
		}
		obf.Auction = oa
	}
	return obf
}
