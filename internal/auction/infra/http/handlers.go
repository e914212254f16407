package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/application"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	wsinfra "github.com/potlabs/dutchAuctionEngine/internal/auction/infra/websocket"
	"github.com/shopspring/decimal"
)

// AuctionHTTPHandler exposes the auction module over REST.
type AuctionHTTPHandler struct {
	auctionService application.AuctionService
	broadcaster    *wsinfra.Broadcaster
}

func NewAuctionHTTPHandler(auctionService application.AuctionService, broadcaster *wsinfra.Broadcaster) *AuctionHTTPHandler {
	return &AuctionHTTPHandler{
		auctionService: auctionService,
		broadcaster:    broadcaster,
	}
}

func (h *AuctionHTTPHandler) RegisterRoutes(app *fiber.App) {
	auctions := app.Group("/auctions")
	auctions.Post("/", h.createAuction)
	auctions.Get("/:id", h.getAuctionState)
	auctions.Get("/:id/price", h.getCurrentPrice)
	auctions.Post("/:id/open", h.openAuction)
	auctions.Post("/:id/close", h.closeAuction)
	auctions.Post("/:id/bids", h.placeBid)
}

type createAuctionRequest struct {
	Seller        uuid.UUID       `json:"seller"`
	ReservePrice  decimal.Decimal `json:"reserve_price"`
	StartPrice    decimal.Decimal `json:"start_price"`
	PeriodSeconds int64           `json:"period_seconds"`
}

func (h *AuctionHTTPHandler) createAuction(c *fiber.Ctx) error {
	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	snap, err := h.auctionService.CreateAuction(c.Context(), application.CreateAuctionDTO{
		Seller:        req.Seller,
		ReservePrice:  req.ReservePrice,
		StartPrice:    req.StartPrice,
		PeriodSeconds: req.PeriodSeconds,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"auction_id": snap.ID})
}

type openAuctionRequest struct {
	Seller   uuid.UUID `json:"seller"`
	Asset    string    `json:"asset"`
	Quantity int64     `json:"quantity"`
}

func (h *AuctionHTTPHandler) openAuction(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction ID")
	}
	var req openAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	events, err := h.auctionService.OpenAuction(c.Context(), application.OpenAuctionDTO{
		AuctionID: auctionID,
		Seller:    req.Seller,
		Asset:     req.Asset,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return domainError(c, err)
	}

	h.broadcastState(c, auctionID, events)
	return c.SendStatus(fiber.StatusNoContent)
}

type closeAuctionRequest struct {
	Seller uuid.UUID `json:"seller"`
}

func (h *AuctionHTTPHandler) closeAuction(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction ID")
	}
	var req closeAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	events, err := h.auctionService.CloseAuction(c.Context(), application.CloseAuctionDTO{
		AuctionID: auctionID,
		Seller:    req.Seller,
	})
	if err != nil {
		return domainError(c, err)
	}

	h.broadcastState(c, auctionID, events)
	return c.SendStatus(fiber.StatusNoContent)
}

type placeBidRequest struct {
	Bidder   uuid.UUID       `json:"bidder"`
	Quantity int64           `json:"quantity"`
	Tendered decimal.Decimal `json:"tendered"`
}

func (h *AuctionHTTPHandler) placeBid(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction ID")
	}
	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.auctionService.PlaceBid(c.Context(), application.PlaceBidDTO{
		AuctionID: auctionID,
		Bidder:    req.Bidder,
		Quantity:  req.Quantity,
		Tendered:  req.Tendered,
	})
	if err != nil {
		return domainError(c, err)
	}

	h.broadcastState(c, auctionID, result.Events)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bid_id":         result.Bid.ID,
		"quantity":       result.Bid.Quantity,
		"price_per_unit": result.Bid.PricePerUnit,
		"total_paid":     result.Bid.TotalPaid,
	})
}

func (h *AuctionHTTPHandler) getAuctionState(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction ID")
	}
	state, err := h.auctionService.GetAuctionState(c.Context(), auctionID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(state)
}

func (h *AuctionHTTPHandler) getCurrentPrice(c *fiber.Ctx) error {
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction ID")
	}
	price, err := h.auctionService.GetCurrentPrice(auctionID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{"auction_id": auctionID, "price": price})
}

func (h *AuctionHTTPHandler) broadcastState(c *fiber.Ctx, auctionID uuid.UUID, events []domain.Event) {
	state, err := h.auctionService.GetAuctionState(c.Context(), auctionID)
	if err != nil {
		state = nil
	}
	h.broadcaster.BroadcastEvents(auctionID, events, state)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// domainError maps the engine's error taxonomy onto HTTP statuses.
func domainError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		status = fiber.StatusNotFound
	default:
		switch domain.KindOf(err) {
		case domain.KindConfiguration, domain.KindValidation:
			status = fiber.StatusBadRequest
		case domain.KindAuthorization:
			status = fiber.StatusForbidden
		case domain.KindPhase:
			status = fiber.StatusConflict
		case domain.KindPayment:
			status = fiber.StatusPaymentRequired
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
