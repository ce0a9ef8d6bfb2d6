package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rmontes/storefront/internal/adapter/auth"
	"github.com/rmontes/storefront/internal/core/domain"
)

// Checkout load generator: every worker gets its own identity and cart, adds
// the same product, and checks out concurrently. With stock < workers the
// server must hand out exactly `stock` units and answer 409 for the rest.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	secret := flag.String("secret", "dev-secret-change-me", "JWT secret to mint caller tokens")
	productID := flag.String("product", "", "product ID to purchase")
	workers := flag.Int("workers", 50, "concurrent checkouts")
	quantity := flag.Int("quantity", 1, "quantity per cart")
	flag.Parse()

	if *productID == "" {
		log.Fatal("-product is required")
	}

	tokens := auth.NewTokenResolver([]byte(*secret))

	var full, partial, conflict, failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			caller := domain.Caller{
				ID:    fmt.Sprintf("loadgen-%d", id),
				Email: fmt.Sprintf("loadgen-%d@example.com", id),
				Role:  domain.RoleUser,
			}
			token, err := tokens.Issue(caller, time.Hour)
			if err != nil {
				log.Printf("worker %d: issue token: %v", id, err)
				failed.Add(1)
				return
			}

			client := resty.New().
				SetBaseURL(*baseURL).
				SetAuthToken(token).
				SetTimeout(10 * time.Second)

			var cart struct {
				Payload struct {
					ID string `json:"id"`
				} `json:"payload"`
			}
			resp, err := client.R().SetResult(&cart).Post("/api/carts")
			if err != nil || resp.StatusCode() != http.StatusCreated {
				log.Printf("worker %d: provision cart failed: %v (%s)", id, err, resp.Status())
				failed.Add(1)
				return
			}

			resp, err = client.R().
				SetBody(map[string]int{"quantity": *quantity}).
				Post("/api/carts/" + cart.Payload.ID + "/products/" + *productID)
			if err != nil || resp.StatusCode() != http.StatusOK {
				// Stock may already be gone at add time.
				conflict.Add(1)
				return
			}

			resp, err = client.R().Post("/api/carts/" + cart.Payload.ID + "/checkout")
			if err != nil {
				failed.Add(1)
				return
			}
			switch resp.StatusCode() {
			case http.StatusOK:
				full.Add(1)
			case http.StatusPartialContent:
				partial.Add(1)
			case http.StatusConflict:
				conflict.Add(1)
			default:
				log.Printf("worker %d: checkout answered %s", id, resp.Status())
				failed.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== LOADGEN RESULTS ==========")
	fmt.Printf("Workers:          %d\n", *workers)
	fmt.Printf("Full purchases:   %d\n", full.Load())
	fmt.Printf("Partial:          %d\n", partial.Load())
	fmt.Printf("Nothing available: %d\n", conflict.Load())
	fmt.Printf("Errors:           %d\n", failed.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("=====================================")
}
