// internal/models/card.go
package models

// AuctionType identifies the auction mechanism printed on a card.
type AuctionType string

const (
	AuctionOpen   AuctionType = "open"   // ascending public bids
	AuctionSealed AuctionType = "sealed" // hidden simultaneous bids, revealed at once
	AuctionOnce   AuctionType = "once"   // one bid per player
	AuctionDouble AuctionType = "double" // two cards of the same artist, open-bid rules
	AuctionFixed  AuctionType = "fixed"  // take-it-or-leave-it price set by the seller
)

// AuctionTypes lists every auction type in the order cards are assigned them.
var AuctionTypes = []AuctionType{AuctionOpen, AuctionSealed, AuctionOnce, AuctionDouble, AuctionFixed}

// Valid reports whether t is one of the known auction types.
func (t AuctionType) Valid() bool {
	for _, at := range AuctionTypes {
		if at == t {
			return true
		}
	}
	return false
}

// Card is a single painting. Cards never change once dealt; their worth is
// looked up in the round's artist value table at payout time.
type Card struct {
	ID          int         `json:"id"`
	Artist      string      `json:"artist"`
	AuctionType AuctionType `json:"auctionType"`
}
