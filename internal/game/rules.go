// internal/game/rules.go
package game

import "fmt"

// DefaultArtists is the canonical artist order. It is also the tie-break
// order when two artists were played equally often in a round.
var DefaultArtists = []string{"Lite Metal", "Yoko", "Christin P.", "Karl", "Krypto"}

// Rules holds the numeric constants of a game. A zero Rules is not usable;
// start from DefaultRules and apply overrides.
type Rules struct {
	Artists           []string `json:"artists"`
	CardsPerArtist    int      `json:"cardsPerArtist"`    // cards of each artist in the deck
	CardsPerPlayer    int      `json:"cardsPerPlayer"`    // initial hand size, also the per-round top-up target
	StartingMoney     int      `json:"startingMoney"`     // money each player starts with
	MinPlayers        int      `json:"minPlayers"`        // players required to start
	RoundEndThreshold int      `json:"roundEndThreshold"` // played cards of one artist that end the round
	MaxRounds         int      `json:"maxRounds"`         // rounds before the game finishes
	Payouts           []int    `json:"payouts"`           // value paid for 1st, 2nd, 3rd most played artist
}

// DefaultRules returns the standard five-artist, four-round setup.
func DefaultRules() Rules {
	return Rules{
		Artists:           append([]string(nil), DefaultArtists...),
		CardsPerArtist:    12,
		CardsPerPlayer:    10,
		StartingMoney:     100,
		MinPlayers:        2,
		RoundEndThreshold: 5,
		MaxRounds:         4,
		Payouts:           []int{30, 20, 10},
	}
}

// Update overrides the numeric rules present in newRules. Keys that are
// absent or nil are ignored and the old value persists.
func (rules *Rules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		// JSON numbers decode as float64
		switch v := val.(type) {
		case float64:
			*field = int(v)
		case int:
			*field = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if *field < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		return nil
	}

	if err := assignInt(&rules.CardsPerArtist, "cardsPerArtist", 1); err != nil {
		return err
	}
	if err := assignInt(&rules.CardsPerPlayer, "cardsPerPlayer", 1); err != nil {
		return err
	}
	if err := assignInt(&rules.StartingMoney, "startingMoney", 0); err != nil {
		return err
	}
	if err := assignInt(&rules.MinPlayers, "minPlayers", 1); err != nil {
		return err
	}
	if err := assignInt(&rules.RoundEndThreshold, "roundEndThreshold", 1); err != nil {
		return err
	}
	if err := assignInt(&rules.MaxRounds, "maxRounds", 1); err != nil {
		return err
	}
	return nil
}

// ParseRules applies rules on top of current and returns the result.
func ParseRules(rules map[string]interface{}, current Rules) (Rules, error) {
	r := current
	err := r.Update(rules)
	return r, err
}
