package signing

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/vexlabs/govex/venue/codec"
	"github.com/vexlabs/govex/venue/ledger"
	"github.com/vexlabs/govex/venue/types"
)

// fakeHeightSource 固定高度的账本参数来源
type fakeHeightSource struct {
	calls int
}

func (f *fakeHeightSource) SuggestedParams(_ context.Context) (ledger.SuggestedParams, error) {
	f.calls++
	return ledger.SuggestedParams{CurrentHeight: 1000, ValidityWindow: 10}, nil
}

func testSeed() []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestNativeSignerSignVerifies(t *testing.T) {
	s, err := NewNativeSigner(testSeed())
	if err != nil {
		t.Fatalf("NewNativeSigner error: %v", err)
	}
	msg := []byte("settlement payload")
	sig, err := s.Sign(msg)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	if !ed25519.Verify(s.PublicKey(), msg, sig) {
		t.Fatal("签名无法用公钥验证")
	}
}

func TestNativeSignerBadSeed(t *testing.T) {
	if _, err := NewNativeSigner(make([]byte, 16)); err == nil {
		t.Fatal("短种子应当失败")
	}
}

func TestAccountIDForNative(t *testing.T) {
	s, _ := NewNativeSigner(testSeed())
	id, err := AccountIDFor(s)
	if err != nil {
		t.Fatalf("AccountIDFor error: %v", err)
	}
	if !bytes.Equal(id[:], s.PublicKey()) {
		t.Fatal("原生账户标识应当就是 ed25519 公钥")
	}
}

func TestAccountIDForEVM(t *testing.T) {
	s, err := NewEVMSigner("4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d", types.ChainEthereum)
	if err != nil {
		t.Fatalf("NewEVMSigner error: %v", err)
	}
	id, err := AccountIDFor(s)
	if err != nil {
		t.Fatalf("AccountIDFor error: %v", err)
	}
	if id[0] != 0xE1 {
		t.Fatalf("首字节应为链家族标记 0xE1, got 0x%02x", id[0])
	}
	if !bytes.Equal(id[12:], s.CommonAddress().Bytes()) {
		t.Fatal("地址字节应当在标识尾部")
	}
}

func TestEVMSignerRejectsNonEVMChain(t *testing.T) {
	_, err := NewEVMSigner("4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d", types.ChainNative)
	if err == nil {
		t.Fatal("原生链不应接受 EVM 签名者")
	}
}

func TestReplaySourceFreshLease(t *testing.T) {
	src := NewReplaySource(&fakeHeightSource{})

	a, err := src.Params(context.Background())
	if err != nil {
		t.Fatalf("Params error: %v", err)
	}
	b, err := src.Params(context.Background())
	if err != nil {
		t.Fatalf("Params error: %v", err)
	}

	// 每次调用必须产生全新的随机 lease
	if bytes.Equal(a.Lease[:], b.Lease[:]) {
		t.Fatal("两次调用返回了相同的 lease")
	}
	if a.LastValid != 1010 {
		t.Fatalf("lastValid got=%d want=1010", a.LastValid)
	}
}

func TestCoordinatorSignOperation(t *testing.T) {
	hs := &fakeHeightSource{}
	coord := NewCoordinator(NewReplaySource(hs))
	signer, _ := NewNativeSigner(testSeed())
	account, _ := AccountIDFor(signer)

	encoded := codec.EncodePoolMove(codec.PoolMoveOp{Slot: 1, Amount: 42})
	ticket, err := coord.SignOperation(context.Background(), encoded, account, signer)
	if err != nil {
		t.Fatalf("SignOperation error: %v", err)
	}

	if hs.calls != 1 {
		t.Fatalf("应当恰好获取一次账本参数, got=%d", hs.calls)
	}
	if !bytes.Equal(ticket.EncodedOp, encoded) {
		t.Fatal("票据的操作编码不匹配")
	}

	// 远端校验器按同一布局重算消息并验签
	msg := codec.SigningMessage(encoded, account, ticket.Replay)
	if !ed25519.Verify(signer.PublicKey(), msg, ticket.Signature) {
		t.Fatal("票据签名无法验证")
	}
}
