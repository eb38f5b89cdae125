package main

import (
	"log"

	"taskhub/internal/server/bootstrap"
)

func main() {
	if err := bootstrap.RunServer(); err != nil {
		log.Fatalf("taskhub-server: %v", err)
	}
}
