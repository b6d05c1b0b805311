package icx_test

import (
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/icx/icxtest"
	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "592eb276d534e2c41a2d9356c0ab262dc233d87e4dd71ce705ec130a8d27ff0c"

func testSigner(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.FromHex(testKey)
	require.NoError(t, err)
	return w
}

var sendTime = time.UnixMicro(1_700_000_000_123_456)

func TestSendEstimatesSignsAndBroadcasts(t *testing.T) {
	node := icxtest.NewNode(t)
	node.Result("debug_estimateStep", "0x186a0") // 100000
	var sent map[string]any
	node.Handle("icx_sendTransaction", func(p map[string]any) (any, error) {
		sent = p
		return txh, nil
	})

	signer := testSigner(t)
	sender := icx.NewSender(icx.NewClient(node.URL)).WithClock(func() time.Time { return sendTime })
	tx := icx.NewTransfer(addr, big.NewInt(5), 1)

	rcpt, err := sender.Send(ctx(), signer, tx, icx.SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, txh, rcpt.Hash)
	assert.Nil(t, rcpt.Result)

	est := node.Requests("debug_estimateStep")
	require.Len(t, est, 1)
	assert.Equal(t, "/api/v3d", est[0].Path)
	assert.NotContains(t, est[0].Params, "stepLimit")
	assert.Equal(t, signer.Address(), est[0].Params["from"])

	require.NotNil(t, sent)
	assert.Equal(t, "0x1adb0", sent["stepLimit"], "10% margin over 100000")
	assert.Equal(t, icx.IntToHex(sendTime.UnixMicro()), sent["timestamp"])
	assert.Equal(t, signer.Address(), sent["from"])

	sig, err := base64.StdEncoding.DecodeString(sent["signature"].(string))
	require.NoError(t, err)
	hash, err := tx.Hash()
	require.NoError(t, err)
	recovered, err := wallet.RecoverAddress(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)
}

func TestSendWithExplicitStepLimitSkipsEstimate(t *testing.T) {
	node := icxtest.NewNode(t)
	node.Result("icx_sendTransaction", txh)

	_, err := icx.NewSender(icx.NewClient(node.URL)).Send(ctx(), testSigner(t),
		icx.NewTransfer(addr, big.NewInt(1), 1), icx.SendOptions{StepLimit: big.NewInt(200000)})
	require.NoError(t, err)
	assert.Empty(t, node.Requests("debug_estimateStep"))
	assert.Equal(t, "0x30d40", node.Requests("icx_sendTransaction")[0].Params["stepLimit"])
}

func TestSendAndWait(t *testing.T) {
	node := icxtest.NewNode(t)
	node.Result("icx_sendTransaction", txh)
	node.Result("icx_getTransactionResult", map[string]any{"status": "0x1", "txHash": txh})

	rcpt, err := icx.NewSender(icx.NewClient(node.URL)).Send(ctx(), testSigner(t),
		icx.NewTransfer(addr, big.NewInt(1), 1),
		icx.SendOptions{StepLimit: big.NewInt(100000), Wait: true, WaitTimeout: time.Second, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NotNil(t, rcpt.Result)
	assert.True(t, rcpt.Result.Success())
}

func TestSendAndWaitReportsFailure(t *testing.T) {
	node := icxtest.NewNode(t)
	node.Result("icx_sendTransaction", txh)
	node.Result("icx_getTransactionResult", map[string]any{
		"status": "0x0", "txHash": txh,
		"failure": map[string]any{"code": "0x7d64", "message": "Reverted(0)"},
	})

	rcpt, err := icx.NewSender(icx.NewClient(node.URL)).Send(ctx(), testSigner(t),
		icx.NewTransfer(addr, big.NewInt(1), 1),
		icx.SendOptions{StepLimit: big.NewInt(100000), Wait: true, PollInterval: 10 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Reverted(0)")
	require.NotNil(t, rcpt)
	assert.Equal(t, txh, rcpt.Hash)
}

func TestEstimateFailureAbortsSend(t *testing.T) {
	node := icxtest.NewNode(t)
	node.Handle("debug_estimateStep", func(map[string]any) (any, error) {
		return nil, &icx.RPCError{Code: -30032, Message: "out of balance"}
	})

	_, err := icx.NewSender(icx.NewClient(node.URL)).Send(ctx(), testSigner(t),
		icx.NewTransfer(addr, big.NewInt(1), 1), icx.SendOptions{})
	assert.ErrorIs(t, err, icx.ErrRPC)
	assert.Empty(t, node.Requests("icx_sendTransaction"))
}

func TestSendTransactionRequiresSignature(t *testing.T) {
	node := icxtest.NewNode(t)
	_, err := icx.NewClient(node.URL).SendTransaction(ctx(), icx.NewTransfer(addr, nil, 1))
	assert.Error(t, err)
}
