package main

import (
	"context"
	"log"

	"github.com/guantera/checkout-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("checkout API failed: %v", err)
	}
}
