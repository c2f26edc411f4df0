package bridge

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

const erc20ABI = `[
	{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var parsedERC20 = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(err)
	}
	return a
}()

// EnsureAllowance checks the signer's allowance toward the bridge contract
// and submits an approval for the exact amount when it falls short. Reports
// whether an approval transaction was submitted.
func (g *HTTPGateway) EnsureAllowance(ctx context.Context, chain types.Chain, token common.Address, amount *big.Int, signer *signing.EVMSigner) (bool, error) {
	ec, err := g.client(chain)
	if err != nil {
		return false, err
	}
	contract, err := g.dict.BridgeContract(chain)
	if err != nil {
		return false, err
	}
	spender := common.HexToAddress(contract)
	owner := signer.CommonAddress()

	data, err := parsedERC20.Pack("allowance", owner, spender)
	if err != nil {
		return false, fmt.Errorf("pack allowance: %w", err)
	}
	result, err := ec.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("call allowance: %w", err)
	}
	var current *big.Int
	if err := parsedERC20.UnpackIntoInterface(&current, "allowance", result); err != nil {
		return false, fmt.Errorf("unpack allowance: %w", err)
	}
	if current.Cmp(amount) >= 0 {
		return false, nil
	}

	approveData, err := parsedERC20.Pack("approve", spender, amount)
	if err != nil {
		return false, fmt.Errorf("pack approve: %w", err)
	}
	receipt, err := g.sendTx(ctx, ec, chain, signer, token, big.NewInt(0), approveData, 0, nil)
	if err != nil {
		return false, fmt.Errorf("submit approval: %w", err)
	}
	if receipt.Status != 1 {
		return false, fmt.Errorf("approval transaction %s reverted", receipt.TxHash.Hex())
	}
	g.log.WithFields(logrus.Fields{
		"chain": chain,
		"token": token.Hex(),
		"tx":    receipt.TxHash.Hex(),
	}).Info("allowance granted")
	return true, nil
}
