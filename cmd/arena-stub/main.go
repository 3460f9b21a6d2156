// Command arena-stub serves an in-memory combat service for local play and
// demos.
package main

import (
	"log"
	"net/http"

	"github.com/tatianab/lostcastle/internal/config"
	"github.com/tatianab/lostcastle/internal/stub"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv := stub.New()
	log.Printf("arena stub listening on %s%s", cfg.StubAddr, cfg.APIPrefix)
	log.Fatal(http.ListenAndServe(cfg.StubAddr, srv.Handler(cfg.APIPrefix)))
}
