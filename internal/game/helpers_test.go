package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testEnv(seed int64) Env {
	return Env{
		Rules: DefaultRules(),
		Rand:  rand.New(rand.NewSource(seed)),
		Now:   func() time.Time { return fixedNow },
	}
}

// newPlayers builds n players with the given money in seat order.
func newPlayers(n, money int) []*models.Player {
	ps := make([]*models.Player, n)
	for i := range ps {
		ps[i] = &models.Player{ID: uuid.New(), Name: string(rune('A' + i)), Money: money}
	}
	ps[0].IsHost = true
	return ps
}

// inProgressGame builds a round-1 game where every player holds one card of
// each artist, so turns never skip anyone.
func inProgressGame(t *testing.T, n int) *models.Game {
	t.Helper()
	ps := newPlayers(n, 100)
	id := 1
	for _, p := range ps {
		for _, artist := range DefaultArtists {
			p.Hand = append(p.Hand, models.Card{ID: id, Artist: artist, AuctionType: models.AuctionOpen})
			id++
		}
	}
	return &models.Game{
		ID:           uuid.New(),
		Status:       models.StatusInProgress,
		Players:      ps,
		Round:        1,
		ArtistCounts: map[string]int{},
		ArtistValues: map[string]int{},
		TurnPlayerID: ps[0].ID,
	}
}

func openAuction(t models.AuctionType, seller uuid.UUID, artist string) *models.Auction {
	return &models.Auction{
		Type:         t,
		Card:         models.Card{ID: 999, Artist: artist, AuctionType: t},
		HostPlayerID: seller,
		Bids:         []models.Bid{},
	}
}

func intPtr(v int) *int { return &v }

func totalMoney(g *models.Game) int {
	sum := 0
	for _, p := range g.Players {
		sum += p.Money
	}
	return sum
}
