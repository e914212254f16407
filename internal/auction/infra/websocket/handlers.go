package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/application"
	sharedws "github.com/potlabs/dutchAuctionEngine/internal/shared/websocket"
	"go.uber.org/zap"
)

// AuctionWSHandler consumes the hub's inbound messages that belong to the
// auction module.
type AuctionWSHandler struct {
	auctionService application.AuctionService
	hub            *sharedws.Hub
	broadcaster    *Broadcaster
}

func NewAuctionWSHandler(auctionService application.AuctionService, hub *sharedws.Hub, broadcaster *Broadcaster) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
		broadcaster:    broadcaster,
	}
}

// ListenForMessages consumes the hub inbound channel until the context ends.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendErrorToClient(client, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBidMessage(ctx, client, data)
	default:
		h.sendErrorToClient(client, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleClientBidMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendErrorToClient(client, "invalid bid message format")
		return
	}

	if bidMsg.Payload.AuctionID.String() != client.AuctionID {
		h.sendErrorToClient(client, "auction ID mismatch")
		return
	}

	cmd := application.PlaceBidDTO{
		AuctionID: bidMsg.Payload.AuctionID,
		Bidder:    bidMsg.Payload.Bidder,
		Quantity:  bidMsg.Payload.Quantity,
		Tendered:  bidMsg.Payload.Tendered,
	}
	result, err := h.auctionService.PlaceBid(ctx, cmd)
	if err != nil {
		h.sendErrorToClient(client, err.Error())
		return
	}

	state, err := h.auctionService.GetAuctionState(ctx, cmd.AuctionID)
	if err != nil {
		log.Error("failed to get auction state after bid",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.Error(err),
		)
		state = nil
	}
	h.broadcaster.BroadcastEvents(cmd.AuctionID, result.Events, state)
}

// SendInitialState pushes the current auction state to a newly connected
// client.
func (h *AuctionWSHandler) SendInitialState(ctx context.Context, client *sharedws.Client) {
	auctionID, err := uuid.Parse(client.AuctionID)
	if err != nil {
		h.sendErrorToClient(client, "invalid auction ID")
		return
	}
	state, err := h.auctionService.GetAuctionState(ctx, auctionID)
	if err != nil {
		h.sendErrorToClient(client, err.Error())
		return
	}

	msg := ServerAuctionStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerAuctionState},
		Payload:     *state,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to marshal initial state", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full, dropped initial state",
			zap.String("clientID", client.ID))
	}
}

func (h *AuctionWSHandler) sendErrorToClient(client *sharedws.Client, errorMessage string) {
	errMsg := ServerErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeServerError}}
	errMsg.Payload.Error = errorMessage
	errMsg.Payload.At = time.Now()
	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full or closed, could not send error msg",
			zap.String("clientID", client.ID))
	}
}
