package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/application"
	"github.com/shopspring/decimal"
)

// MessageType identifies a ws message.
type MessageType string

const (
	MessageTypeClientBid MessageType = "client_bid" // client msg to make a bid

	MessageTypeAuctionOpened      MessageType = "auction_opened"       // broadcast: auction opened
	MessageTypeBidPlaced          MessageType = "bid_placed"           // broadcast: bid admitted
	MessageTypeAuctionClosed      MessageType = "auction_closed"       // broadcast: auction closed
	MessageTypeServerAuctionState MessageType = "server_auction_state" // broadcast/initial: full state
	MessageTypeServerError        MessageType = "server_error"         // per-client error
)

// BaseMessage is the envelope shared by all ws messages.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is the DTO for a bid sent by a client.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		AuctionID uuid.UUID       `json:"auction_id"`
		Bidder    uuid.UUID       `json:"bidder"`
		Quantity  int64           `json:"quantity"`
		Tendered  decimal.Decimal `json:"tendered"`
	} `json:"payload"`
}

// AuctionOpenedMessage mirrors the domain AuctionOpened event.
type AuctionOpenedMessage struct {
	BaseMessage
	Payload struct {
		AuctionID     uuid.UUID `json:"auction_id"`
		Asset         string    `json:"asset"`
		TotalQuantity int64     `json:"total_quantity"`
	} `json:"payload"`
}

// BidPlacedMessage mirrors the domain BidPlaced event.
type BidPlacedMessage struct {
	BaseMessage
	Payload struct {
		AuctionID    uuid.UUID       `json:"auction_id"`
		Bidder       uuid.UUID       `json:"bidder"`
		Quantity     int64           `json:"quantity"`
		PricePerUnit decimal.Decimal `json:"price_per_unit"`
		TotalPaid    decimal.Decimal `json:"total_paid"`
	} `json:"payload"`
}

// AuctionClosedMessage mirrors the domain AuctionClosed event.
type AuctionClosedMessage struct {
	BaseMessage
	Payload struct {
		AuctionID uuid.UUID `json:"auction_id"`
		Reason    string    `json:"reason"`
	} `json:"payload"`
}

// ServerAuctionStateMessage carries the full auction state, sent on connect
// and after every admitted state change.
type ServerAuctionStateMessage struct {
	BaseMessage
	Payload application.AuctionStateDTO `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string    `json:"error"`
		At    time.Time `json:"at"`
	} `json:"payload"`
}
