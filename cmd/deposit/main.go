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
		instrumentID = flag.String("instrument", "USDC", "instrument id to deposit")
		amountStr    = flag.String("amount", "", "deposit amount (decimal string)")
		chainName    = flag.String("chain", "native", "origin chain (native, ethereum, avalanche, arbitrum, base)")
	)
	flag.Parse()

	if *amountStr == "" {
		log.Fatal("[Deposit] -amount is required")
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("[Deposit] No .env file found, using environment variables")
	}
	logger.Init(logger.Config{Level: getenv("VEX_LOG_LEVEL", "info")})

	chain, err := types.ParseChain(*chainName)
	if err != nil {
		log.Fatalf("[Deposit] %v", err)
	}

	c, err := newClient()
	if err != nil {
		log.Fatalf("[Deposit] Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ins, err := c.Instrument(ctx, *instrumentID)
	if err != nil {
		log.Fatalf("[Deposit] %v", err)
	}
	amount, err := types.NewAmount(ins, *amountStr)
	if err != nil {
		log.Fatalf("[Deposit] %v", err)
	}

	if chain == types.ChainNative {
		runNative(ctx, c, amount)
		return
	}
	runBridge(ctx, c, amount, chain)
}

func runNative(ctx context.Context, c *client.Client, amount types.InstrumentAmount) {
	seed, err := base64.StdEncoding.DecodeString(os.Getenv("VEX_FUNDER_SEED"))
	if err != nil {
		log.Fatalf("[Deposit] Invalid VEX_FUNDER_SEED: %v", err)
	}
	funder, err := signing.NewNativeSigner(seed)
	if err != nil {
		log.Fatalf("[Deposit] %v", err)
	}

	res, err := c.DepositNative(ctx, client.NativeDepositParams{
		Funder:      funder,
		Amount:      amount,
		RepayAmount: types.ZeroAmount(amount.Instrument),
	})
	if err != nil {
		log.Fatalf("[Deposit] Submit failed: %v", err)
	}
	log.Printf("[Deposit] Submitted, tx=%s", res.TxID)

	done, err := res.Completed(ctx)
	if err != nil {
		log.Fatalf("[Deposit] Confirmation check failed: %v", err)
	}
	log.Printf("[Deposit] Confirmed: %v", done)
}

func runBridge(ctx context.Context, c *client.Client, amount types.InstrumentAmount, chain types.Chain) {
	funder, err := signing.NewEVMSigner(os.Getenv("VEX_EVM_KEY"), chain)
	if err != nil {
		log.Fatalf("[Deposit] Invalid VEX_EVM_KEY: %v", err)
	}

	h, err := c.DepositBridge(ctx, client.BridgeDepositParams{
		Funder: funder,
		Chain:  chain,
		Amount: amount,
	})
	if err != nil {
		log.Fatalf("[Deposit] Submit failed: %v", err)
	}

	seq, err := h.Sequence(ctx)
	if err != nil {
		log.Fatalf("[Deposit] Sequence resolution failed: %v", err)
	}
	log.Printf("[Deposit] Bridge transfer submitted, sequence=%d fast_path=%v", seq, h.FastPath())

	out, err := h.RedeemAndSubmit(ctx, nil)
	if err != nil {
		log.Fatalf("[Deposit] Redemption failed: %v", err)
	}
	if out.NotRequired {
		log.Println("[Deposit] Fast-path transfer, redemption handled out of band")
		return
	}
	log.Printf("[Deposit] Proof submitted to venue, tx=%s", out.VenueTxID)
}

func newClient() (*client.Client, error) {
	gw, err := bridge.NewHTTPGateway(bridge.GatewayConfig{
		AttestationURL: getenv("VEX_ATTESTATION_URL", "https://attest.vexlabs.io"),
		RPCEndpoints:   rpcEndpoints(),
	})
	if err != nil {
		return nil, err
	}

	signer, err := accountSigner()
	if err != nil {
		return nil, err
	}

	var serverAccount types.AccountID
	if s := os.Getenv("VEX_SERVER_ACCOUNT"); s != "" {
		if serverAccount, err = types.AccountIDFromString(s); err != nil {
			return nil, err
		}
	}
	logicProgram, _ := base64.StdEncoding.DecodeString(os.Getenv("VEX_LOGIC_PROGRAM"))

	return client.NewClient(client.Config{
		BaseURL:       getenv("VEX_API_URL", "https://api.vexlabs.io"),
		LedgerURL:     getenv("VEX_LEDGER_URL", "https://ledger.vexlabs.io"),
		Gateway:       gw,
		Signer:        signer,
		AppID:         100,
		ServerAccount: serverAccount,
		LogicProgram:  logicProgram,
	})
}

func accountSigner() (signing.Signer, error) {
	seed, err := base64.StdEncoding.DecodeString(os.Getenv("VEX_ACCOUNT_SEED"))
	if err != nil {
		return nil, err
	}
	return signing.NewNativeSigner(seed)
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
