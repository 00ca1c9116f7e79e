// internal/game/errors.go
package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error classes. Every error returned by this package wraps exactly one of them.
var (
	ErrValidationRejected = errors.New("validation rejected")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInsufficientCards  = errors.New("insufficient cards")
	ErrInvariantViolation = errors.New("invariant violation")
)

var (
	ErrNoActiveAuction     = fmt.Errorf("%w: no active auction", ErrPreconditionFailed)
	ErrAuctionActive       = fmt.Errorf("%w: an auction is already running", ErrPreconditionFailed)
	ErrAuctionResolved     = fmt.Errorf("%w: auction already revealed", ErrPreconditionFailed)
	ErrNotYourTurn         = fmt.Errorf("%w: not your turn", ErrPreconditionFailed)
	ErrNotSeller           = fmt.Errorf("%w: only the seller may do that", ErrPreconditionFailed)
	ErrNotHost             = fmt.Errorf("%w: only the host may do that", ErrPreconditionFailed)
	ErrUnknownPlayer       = fmt.Errorf("%w: player is not in this game", ErrPreconditionFailed)
	ErrAlreadyJoined       = fmt.Errorf("%w: player already joined", ErrPreconditionFailed)
	ErrNotWaiting          = fmt.Errorf("%w: game already started", ErrPreconditionFailed)
	ErrNotInProgress       = fmt.Errorf("%w: game is not in progress", ErrPreconditionFailed)
	ErrNotEnoughPlayers    = fmt.Errorf("%w: not enough players", ErrPreconditionFailed)
	ErrCardNotInHand       = fmt.Errorf("%w: card not in hand", ErrPreconditionFailed)
	ErrInvalidSecondCard   = fmt.Errorf("%w: invalid second card for double auction", ErrPreconditionFailed)
	ErrWrongAuctionType    = fmt.Errorf("%w: wrong auction type for this action", ErrPreconditionFailed)
	ErrFixedPriceSet       = fmt.Errorf("%w: fixed price already set", ErrPreconditionFailed)
	ErrInvalidPrice        = fmt.Errorf("%w: invalid fixed price", ErrPreconditionFailed)
	ErrInvalidForcedWinner = fmt.Errorf("%w: forced winner is not one of the tied bidders", ErrPreconditionFailed)
	ErrTieBreakRequired    = fmt.Errorf("%w: tie must be broken by the host", ErrPreconditionFailed)
	ErrRoundPending        = fmt.Errorf("%w: round end pending", ErrPreconditionFailed)
)

// RejectReason names why a bid was refused.
type RejectReason string

const (
	ReasonAmountNotPositive  RejectReason = "amount_not_positive"
	ReasonInsufficientFunds  RejectReason = "insufficient_funds"
	ReasonBidTooLow          RejectReason = "bid_too_low"
	ReasonAlreadyHighest     RejectReason = "already_highest_bidder"
	ReasonAlreadyBid         RejectReason = "already_bid"
	ReasonPriceNotSet        RejectReason = "price_not_set"
	ReasonWrongPrice         RejectReason = "wrong_price"
	ReasonAlreadySold        RejectReason = "already_sold"
	ReasonSellerCannotBid    RejectReason = "seller_cannot_bid"
	ReasonAuctionClosed      RejectReason = "auction_closed"
	ReasonUnsupportedAuction RejectReason = "unsupported_auction_type"
)

// RejectionError is returned by Validate for a refused bid.
type RejectionError struct {
	Reason RejectReason
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("bid rejected: %s", e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return ErrValidationRejected
}

func reject(reason RejectReason) error {
	return &RejectionError{Reason: reason}
}

// TieBreakError reports the bidders tied at the top of a sealed auction.
type TieBreakError struct {
	Tied   []uuid.UUID
	Amount int
}

func (e *TieBreakError) Error() string {
	return fmt.Sprintf("%d bidders tied at %d: %v", len(e.Tied), e.Amount, ErrTieBreakRequired)
}

func (e *TieBreakError) Unwrap() error {
	return ErrTieBreakRequired
}
