package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"fenrir/internal/common"
	"fenrir/internal/feed"
	"fenrir/internal/replay"
)

func main() {
	address := flag.String("address", "0.0.0.0", "address to bind the feed listener to")
	port := flag.Int("port", 9001, "port to bind the feed listener to")
	capacity := flag.Int("capacity", 1_000_000, "order pool capacity")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	h := replay.New(*capacity)
	h.SetStrategyCallback(func(tr common.TradeEvent) {
		log.Info().
			Uint64("restingOrderId", uint64(tr.RestingOrderID)).
			Uint64("incomingOrderId", uint64(tr.IncomingOrderID)).
			Int64("price", int64(tr.Price)).
			Int64("quantity", int64(tr.Quantity)).
			Msg("replay: trade")
	})

	l := feed.New(*address, *port, h)

	go l.Run(ctx)
	log.Info().Str("address", *address).Int("port", *port).Int("capacity", *capacity).Msg("replay: driver running")

	<-ctx.Done()
	log.Info().Msg("replay: driver shutting down")
}
