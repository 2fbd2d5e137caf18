package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lyzr/tagservice/common/bootstrap"
	"github.com/lyzr/tagservice/common/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Setup(ctx, "tagstream",
		bootstrap.WithoutDB(),
		bootstrap.WithoutQueue(),
		bootstrap.WithoutCache(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap tagstream: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(context.Background())

	log := components.Logger
	if components.Redis == nil {
		log.Error("tagstream requires redis (set REDIS_ENABLED=true)")
		os.Exit(1)
	}

	hub := NewHub(log)
	go hub.Run(ctx)

	subscriber := NewRedisSubscriber(components.Redis, hub, log)
	go func() {
		if err := subscriber.Start(ctx); err != nil {
			log.Error("redis subscriber failed", "error", err)
			stop()
		}
	}()

	srv := server.New("tagstream", components.Config.Service.Port, NewServer(hub, log).Handler(), log).
		WithoutTimeouts()
	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
