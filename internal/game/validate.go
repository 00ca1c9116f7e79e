// internal/game/validate.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/models"
)

// Validate checks a bid against the auction as it stands and the bidder's
// balance. It returns nil when the bid may be recorded, a *RejectionError
// when the bid breaks an auction rule, or ErrNoActiveAuction.
// Validate never modifies its arguments.
func Validate(a *models.Auction, bidderID uuid.UUID, amount, balance int) error {
	if a == nil {
		return ErrNoActiveAuction
	}
	if a.Resolved {
		return reject(ReasonAuctionClosed)
	}
	if bidderID == a.HostPlayerID {
		return reject(ReasonSellerCannotBid)
	}
	if amount <= 0 {
		return reject(ReasonAmountNotPositive)
	}
	if amount > balance {
		return reject(ReasonInsufficientFunds)
	}

	switch a.Type {
	case models.AuctionOpen, models.AuctionDouble:
		if a.HighestBid != nil {
			if amount <= a.HighestBid.Amount {
				return reject(ReasonBidTooLow)
			}
			if a.HighestBid.PlayerID == bidderID {
				return reject(ReasonAlreadyHighest)
			}
		}
		return nil
	case models.AuctionSealed, models.AuctionOnce:
		if _, ok := a.BidOf(bidderID); ok {
			return reject(ReasonAlreadyBid)
		}
		return nil
	case models.AuctionFixed:
		if a.FixedPrice == nil {
			return reject(ReasonPriceNotSet)
		}
		if len(a.Bids) > 0 {
			return reject(ReasonAlreadySold)
		}
		if amount != *a.FixedPrice {
			return reject(ReasonWrongPrice)
		}
		return nil
	default:
		return reject(ReasonUnsupportedAuction)
	}
}

// recordBid appends an already validated bid to the auction. Open-style
// auctions and fixed-price sales expose the new highest bid immediately;
// sealed and once auctions keep it hidden until resolution.
func recordBid(a *models.Auction, bid models.Bid) {
	a.Bids = append(a.Bids, bid)
	switch a.Type {
	case models.AuctionOpen, models.AuctionDouble, models.AuctionFixed:
		b := bid
		a.HighestBid = &b
	case models.AuctionSealed, models.AuctionOnce:
	}
}
