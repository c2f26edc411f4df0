package ledger

import (
	"bytes"
	"testing"

	"github.com/vexlabs/govex/venue/types"
)

func testTx(amount uint64) *Transaction {
	var sender, receiver types.AccountID
	sender[0] = 1
	receiver[0] = 2
	return &Transaction{
		Type:       TxTypeTransfer,
		Sender:     sender,
		Receiver:   receiver,
		AssetID:    7,
		Amount:     amount,
		Fee:        1000,
		FirstValid: 100,
		LastValid:  110,
	}
}

func TestTransactionIDStable(t *testing.T) {
	a := testTx(500)
	b := testTx(500)
	if a.ID() != b.ID() {
		t.Fatal("相同交易应当有相同 ID")
	}
	c := testTx(501)
	if a.ID() == c.ID() {
		t.Fatal("不同交易不应有相同 ID")
	}
}

func TestGroupCommitment(t *testing.T) {
	funding := testTx(500)
	appCall := &Transaction{
		Type:       TxTypeAppCall,
		Sender:     funding.Sender,
		AppID:      9,
		AppArgs:    [][]byte{[]byte("deposit"), {3}},
		Fee:        1000,
		FirstValid: 100,
		LastValid:  110,
	}

	beforeID := funding.ID()
	if err := Group(funding, appCall); err != nil {
		t.Fatalf("Group error: %v", err)
	}

	// 组承诺写回后交易编码改变，单独重放会被拒绝
	if funding.ID() == beforeID {
		t.Fatal("分组后交易 ID 应当改变")
	}
	if !bytes.Equal(funding.group[:], appCall.group[:]) {
		t.Fatal("组内交易的组哈希应当一致")
	}
	var zero [32]byte
	if bytes.Equal(funding.group[:], zero[:]) {
		t.Fatal("组哈希不应为零值")
	}
}

func TestGroupDeterministic(t *testing.T) {
	a1, a2 := testTx(1), testTx(2)
	b1, b2 := testTx(1), testTx(2)
	if err := Group(a1, a2); err != nil {
		t.Fatalf("Group error: %v", err)
	}
	if err := Group(b1, b2); err != nil {
		t.Fatalf("Group error: %v", err)
	}
	if !bytes.Equal(a1.group[:], b1.group[:]) {
		t.Fatal("相同交易集的组承诺应当一致")
	}
}

func TestGroupSizeBounds(t *testing.T) {
	if err := Group(testTx(1)); err == nil {
		t.Fatal("单笔交易不应成组")
	}
	txs := make([]*Transaction, 17)
	for i := range txs {
		txs[i] = testTx(uint64(i))
	}
	if err := Group(txs...); err == nil {
		t.Fatal("17 笔交易应当超过组上限")
	}
}

func TestSignedTransactionVariants(t *testing.T) {
	tx := testTx(500)

	signed := tx.SignedBy([]byte{1, 2, 3})
	if signed.Signature == "" || signed.LogicProgram != "" {
		t.Fatal("普通签名交易只应有签名字段")
	}

	logic := tx.SignedByLogic([]byte{9, 9})
	if logic.LogicProgram == "" || logic.Signature != "" {
		t.Fatal("逻辑签名交易只应有程序字段")
	}
}
