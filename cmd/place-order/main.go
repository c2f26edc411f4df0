package main

import (
	"context"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/vexlabs/govex/pkg/logger"
	"github.com/vexlabs/govex/venue/bridge"
	"github.com/vexlabs/govex/venue/client"
	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

func main() {
	var (
		market    = flag.String("market", "BTC-USDC", "market id")
		side      = flag.String("side", "buy", "buy or sell")
		orderType = flag.String("type", "limit", "limit or market")
		sizeStr   = flag.String("size", "", "order size in base instrument")
		priceStr  = flag.String("price", "", "limit price (required for limit orders)")
		cancelAll = flag.Bool("cancel-all", false, "cancel all open orders instead of placing one")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("[Order] No .env file found, using environment variables")
	}
	logger.Init(logger.Config{Level: getenv("VEX_LOG_LEVEL", "info")})

	c, err := newClient()
	if err != nil {
		log.Fatalf("[Order] Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *cancelAll {
		ack, err := c.CancelAllOrders(ctx)
		if err != nil {
			log.Fatalf("[Order] Cancel failed: %v", err)
		}
		log.Printf("[Order] Cancelled %d orders", len(ack.Cancelled))
		return
	}

	if *sizeStr == "" {
		log.Fatal("[Order] -size is required")
	}

	m, err := c.Market(ctx, *market)
	if err != nil {
		log.Fatalf("[Order] %v", err)
	}
	base, err := c.Instrument(ctx, m.BaseInstrument)
	if err != nil {
		log.Fatalf("[Order] %v", err)
	}
	size, err := types.NewAmount(base, *sizeStr)
	if err != nil {
		log.Fatalf("[Order] %v", err)
	}

	params := types.OrderParams{
		Market: *market,
		Side:   types.Side(*side),
		Type:   types.OrderType(*orderType),
		Amount: size,
	}
	if params.Type == types.OrderTypeLimit {
		if *priceStr == "" {
			log.Fatal("[Order] -price is required for limit orders")
		}
		price, err := decimal.NewFromString(*priceStr)
		if err != nil {
			log.Fatalf("[Order] Invalid price: %v", err)
		}
		params.Price = &price
	}

	placed, err := c.CreateOrder(ctx, params)
	if err != nil {
		log.Fatalf("[Order] Placement failed: %v", err)
	}
	log.Printf("[Order] Placed id=%s nonce=%d status=%s", placed.OrderID, placed.Nonce, placed.Status)
}

func newClient() (*client.Client, error) {
	gw, err := bridge.NewHTTPGateway(bridge.GatewayConfig{
		AttestationURL: getenv("VEX_ATTESTATION_URL", "https://attest.vexlabs.io"),
	})
	if err != nil {
		return nil, err
	}

	seed, err := base64.StdEncoding.DecodeString(os.Getenv("VEX_ACCOUNT_SEED"))
	if err != nil {
		return nil, err
	}
	signer, err := signing.NewNativeSigner(seed)
	if err != nil {
		return nil, err
	}

	return client.NewClient(client.Config{
		BaseURL:   getenv("VEX_API_URL", "https://api.vexlabs.io"),
		LedgerURL: getenv("VEX_LEDGER_URL", "https://ledger.vexlabs.io"),
		Gateway:   gw,
		Signer:    signer,
	})
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
