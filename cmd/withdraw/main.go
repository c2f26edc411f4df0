package main

import (
	"context"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vexlabs/govex/pkg/logger"
	"github.com/vexlabs/govex/venue/bridge"
	"github.com/vexlabs/govex/venue/client"
	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

func main() {
	var (
		instrumentID = flag.String("instrument", "USDC", "instrument id to withdraw")
		amountStr    = flag.String("amount", "", "withdrawal amount (decimal string)")
		chainName    = flag.String("chain", "native", "destination chain")
		destination  = flag.String("dest", "", "destination address")
		maxFeesStr   = flag.String("max-fees", "0", "maximum acceptable fees")
	)
	flag.Parse()

	if *amountStr == "" || *destination == "" {
		log.Fatal("[Withdraw] -amount and -dest are required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("[Withdraw] No .env file found, using environment variables")
	}
	logger.Init(logger.Config{Level: getenv("VEX_LOG_LEVEL", "info")})

	chain, err := types.ParseChain(*chainName)
	if err != nil {
		log.Fatalf("[Withdraw] %v", err)
	}

	c, err := newClient()
	if err != nil {
		log.Fatalf("[Withdraw] Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	ins, err := c.Instrument(ctx, *instrumentID)
	if err != nil {
		log.Fatalf("[Withdraw] %v", err)
	}
	amount, err := types.NewAmount(ins, *amountStr)
	if err != nil {
		log.Fatalf("[Withdraw] %v", err)
	}
	maxFees, err := types.NewAmount(ins, *maxFeesStr)
	if err != nil {
		log.Fatalf("[Withdraw] %v", err)
	}

	res, err := c.Withdraw(ctx, client.WithdrawParams{
		Amount:      amount,
		Chain:       chain,
		Destination: *destination,
		MaxFees:     maxFees,
		MaxBorrow:   types.ZeroAmount(ins),
	})
	if err != nil {
		log.Fatalf("[Withdraw] Submit failed: %v", err)
	}
	log.Printf("[Withdraw] Submitted, tx=%s", res.TxID)

	if res.Native != nil {
		done, err := res.Native.Completed(ctx)
		if err != nil {
			log.Fatalf("[Withdraw] Confirmation check failed: %v", err)
		}
		log.Printf("[Withdraw] Confirmed: %v", done)
		return
	}

	// Cross-chain destination: drive the transfer to redemption.
	h := res.Transfer
	seq, err := h.Sequence(ctx)
	if err != nil {
		log.Fatalf("[Withdraw] Sequence resolution failed: %v", err)
	}
	log.Printf("[Withdraw] Outbound sequence=%d fast_path=%v", seq, h.FastPath())

	if _, err := h.WaitForAttestation(ctx, nil); err != nil {
		log.Fatalf("[Withdraw] Attestation failed: %v", err)
	}

	redeemer, err := signing.NewEVMSigner(os.Getenv("VEX_EVM_KEY"), chain)
	if err != nil {
		log.Fatalf("[Withdraw] Invalid VEX_EVM_KEY: %v", err)
	}
	out, err := h.Redeem(ctx, redeemer, nil)
	if err != nil {
		log.Fatalf("[Withdraw] Redemption failed: %v", err)
	}
	if out.NotRequired {
		log.Println("[Withdraw] Fast-path transfer, redemption handled out of band")
		return
	}
	log.Printf("[Withdraw] Redeemed on %s, tx=%s", chain, out.Receipt.TxHash.Hex())
}

func newClient() (*client.Client, error) {
	gw, err := bridge.NewHTTPGateway(bridge.GatewayConfig{
		AttestationURL: getenv("VEX_ATTESTATION_URL", "https://attest.vexlabs.io"),
		RPCEndpoints:   rpcEndpoints(),
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

func rpcEndpoints() map[types.Chain]string {
	out := make(map[types.Chain]string)
	for chain, env := range map[types.Chain]string{
		types.ChainEthereum:  "VEX_RPC_ETHEREUM",
		types.ChainAvalanche: "VEX_RPC_AVALANCHE",
		types.ChainArbitrum:  "VEX_RPC_ARBITRUM",
		types.ChainBase:      "VEX_RPC_BASE",
	} {
		if url := os.Getenv(env); url != "" {
			out[chain] = url
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
