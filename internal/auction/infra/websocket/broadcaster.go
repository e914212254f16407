package websocket

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/application"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/logger"
	sharedws "github.com/potlabs/dutchAuctionEngine/internal/shared/websocket"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Broadcaster fans out committed auction events and state updates to all
// clients of an auction. Events are sent one message each, in the order the
// engine committed them, so observers see AuctionClosed before the BidPlaced
// that caused it on a sold-out bid.
type Broadcaster struct {
	hub *sharedws.Hub
}

func NewBroadcaster(hub *sharedws.Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// BroadcastEvents serializes events in commitment order followed by the
// resulting state, and sends them to the auction's client group.
func (b *Broadcaster) BroadcastEvents(auctionID uuid.UUID, events []domain.Event, state *application.AuctionStateDTO) {
	group := auctionID.String()
	for _, ev := range events {
		msg, err := eventToMessage(ev)
		if err != nil {
			log.Error("failed to serialize auction event",
				zap.String("auctionID", group),
				zap.String("eventType", string(ev.EventType())),
				zap.Error(err),
			)
			continue
		}
		b.hub.BroadcastToAuction(group, msg)
	}

	if state != nil {
		stateMsg := ServerAuctionStateMessage{
			BaseMessage: BaseMessage{Type: MessageTypeServerAuctionState},
			Payload:     *state,
		}
		data, err := json.Marshal(stateMsg)
		if err != nil {
			log.Error("failed to serialize auction state", zap.Error(err))
			return
		}
		b.hub.BroadcastToAuction(group, data)
	}
}

func eventToMessage(ev domain.Event) ([]byte, error) {
	switch e := ev.(type) {
	case domain.AuctionOpened:
		msg := AuctionOpenedMessage{BaseMessage: BaseMessage{Type: MessageTypeAuctionOpened}}
		msg.Payload.AuctionID = e.AuctionID
		msg.Payload.Asset = e.Asset
		msg.Payload.TotalQuantity = e.TotalQuantity
		return json.Marshal(msg)
	case domain.BidPlaced:
		msg := BidPlacedMessage{BaseMessage: BaseMessage{Type: MessageTypeBidPlaced}}
		msg.Payload.AuctionID = e.AuctionID
		msg.Payload.Bidder = e.Bidder
		msg.Payload.Quantity = e.Quantity
		msg.Payload.PricePerUnit = e.PricePerUnit
		msg.Payload.TotalPaid = e.TotalPaid
		return json.Marshal(msg)
	case domain.AuctionClosed:
		msg := AuctionClosedMessage{BaseMessage: BaseMessage{Type: MessageTypeAuctionClosed}}
		msg.Payload.AuctionID = e.AuctionID
		msg.Payload.Reason = string(e.Reason)
		return json.Marshal(msg)
	default:
		msg := BaseMessage{Type: MessageType(ev.EventType())}
		return json.Marshal(msg)
	}
}
