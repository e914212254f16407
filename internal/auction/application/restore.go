package application

import (
	"context"
	"fmt"

	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"go.uber.org/zap"
)

// RestoreActiveAuctions repopulates the registry with the persisted auctions
// not yet closed, so opens and bids keep working across restarts. Unopened
// auctions come back waiting for the seller; auctions that expired while the
// process was down come back open-but-expired and reject bids through the
// usual lazy expiry check.
func RestoreActiveAuctions(ctx context.Context,
	registry *Registry,
	auctionRepo domain.AuctionRepository,
	assets domain.AssetLedger,
	payments domain.PaymentLedger,
	clock domain.Clock) (int, error) {

	snaps, err := auctionRepo.GetActiveAuctions(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore active auctions: %w", err)
	}

	restored := 0
	for _, snap := range snaps {
		auction, err := domain.RestoreAuction(*snap, assets, payments, clock)
		if err != nil {
			log.Error("skipping auction with invalid persisted state",
				zap.String("auctionID", snap.ID.String()),
				zap.Error(err),
			)
			continue
		}
		registry.Add(auction)
		restored++
	}

	if restored > 0 {
		log.Info("Restored active auctions into registry", zap.Int("count", restored))
	}
	return restored, nil
}
