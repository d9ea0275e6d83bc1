package cmd

import (
	"context"
	"errors"

	"stadium-ticketing/pkg/queue"

	"go.uber.org/zap"
)

// Worker consumes ticket events and writes one audit line per sold ticket.
func Worker(ctx context.Context, consumer *queue.Consumer, logger *zap.Logger) error {
	audit := logger.With(zap.String("component", "audit"))

	err := consumer.Run(ctx, func(_ context.Context, ev queue.TicketPurchasedEvent) error {
		audit.Info("Ticket purchased",
			zap.String("ticket_id", ev.TicketID),
			zap.Int64("match_id", ev.MatchID),
			zap.Int64("sector_id", ev.SectorID),
			zap.String("sector", ev.SectorName),
			zap.Int64("buyer_id", ev.BuyerID),
			zap.Float64("price", ev.Price),
			zap.Int("slot", ev.Slot),
			zap.Time("created_at", ev.CreatedAt),
		)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
