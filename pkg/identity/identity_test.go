package identity

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mintBody struct {
	To     string `json:"to"`
	Amount string `json:"amt"`
}

func newRegisteredSigner(t *testing.T, keyRing *KeyRing, address ledger.Address) *Signer {
	t.Helper()
	signer, err := GenerateSigner(address)
	require.NoError(t, err)
	require.NoError(t, keyRing.Register(address, signer.PublicKey()))
	return signer
}

func hexPublicKey(signer *Signer) string {
	return hex.EncodeToString(signer.PublicKey().SerializeCompressed())
}

func TestAuthenticateValidRequest(t *testing.T) {
	keyRing := NewKeyRing()
	signer := newRegisteredSigner(t, keyRing, "0.0.1001")

	request, err := signer.Sign("MINT", []byte(`{"to":"0.0.1002","amt":"5"}`), 1)
	require.NoError(t, err)
	assert.Equal(t, "mint", request.Operation)

	caller, err := keyRing.Authenticate(request)
	require.NoError(t, err)
	assert.Equal(t, ledger.Address("0.0.1001"), caller)
}

func TestAuthenticateUnknownCaller(t *testing.T) {
	keyRing := NewKeyRing()
	signer, err := GenerateSigner("0.0.1001")
	require.NoError(t, err)

	request, err := signer.Sign("mint", nil, 1)
	require.NoError(t, err)

	_, err = keyRing.Authenticate(request)
	var unknown UnknownCallerError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, ledger.Address("0.0.1001"), unknown.Caller)
}

func TestAuthenticateRejectsTamperedRequest(t *testing.T) {
	keyRing := NewKeyRing()
	signer := newRegisteredSigner(t, keyRing, "0.0.1001")

	request, err := signer.Sign("transfer", []byte(`{"amt":"5"}`), 1)
	require.NoError(t, err)
	request.Body = []byte(`{"amt":"5000"}`)

	_, err = keyRing.Authenticate(request)
	var invalid InvalidSignatureError
	require.True(t, errors.As(err, &invalid))
}

func TestAuthenticateRejectsImpersonation(t *testing.T) {
	keyRing := NewKeyRing()
	newRegisteredSigner(t, keyRing, "0.0.1001")
	attacker := newRegisteredSigner(t, keyRing, "0.0.6666")

	request, err := attacker.Sign("mint", nil, 1)
	require.NoError(t, err)
	request.Caller = "0.0.1001"

	_, err = keyRing.Authenticate(request)
	var invalid InvalidSignatureError
	assert.True(t, errors.As(err, &invalid))
}

func TestAuthenticateRejectsMalformedSignature(t *testing.T) {
	keyRing := NewKeyRing()
	signer := newRegisteredSigner(t, keyRing, "0.0.1001")

	request, err := signer.Sign("mint", nil, 1)
	require.NoError(t, err)

	request.Signature = "zz"
	_, err = keyRing.Authenticate(request)
	var invalid InvalidSignatureError
	assert.True(t, errors.As(err, &invalid))

	request.Signature = "3006020101020101ff"
	_, err = keyRing.Authenticate(request)
	assert.Error(t, err)
}

func TestAuthenticateRejectsReplay(t *testing.T) {
	keyRing := NewKeyRing()
	signer := newRegisteredSigner(t, keyRing, "0.0.1001")

	first, err := signer.Sign("mint", nil, 7)
	require.NoError(t, err)
	_, err = keyRing.Authenticate(first)
	require.NoError(t, err)

	_, err = keyRing.Authenticate(first)
	var replay ReplayError
	require.True(t, errors.As(err, &replay))
	assert.Equal(t, uint64(7), replay.LastNonce)

	stale, err := signer.Sign("mint", nil, 3)
	require.NoError(t, err)
	_, err = keyRing.Authenticate(stale)
	assert.True(t, errors.As(err, &replay))

	next, err := signer.Sign("mint", nil, 8)
	require.NoError(t, err)
	_, err = keyRing.Authenticate(next)
	assert.NoError(t, err)
}

func TestSignerFromHexAndRegisterHex(t *testing.T) {
	signer, err := SignerFromHex("0.0.1001", "0x0101010101010101010101010101010101010101010101010101010101010101")
	require.NoError(t, err)

	keyRing := NewKeyRing()
	require.NoError(t, keyRing.RegisterHex("0.0.1001", hexPublicKey(signer)))

	request, err := signer.Sign("destroy", nil, 1)
	require.NoError(t, err)
	_, err = keyRing.Authenticate(request)
	assert.NoError(t, err)

	_, err = SignerFromHex("0.0.1001", "abcd")
	assert.Error(t, err)
	assert.Error(t, keyRing.RegisterHex("0.0.1001", "not-hex"))
	assert.Error(t, keyRing.RegisterHex("0.0.1001", "0102"))
	_, err = NewSigner("bad", nil)
	assert.Error(t, err)
}

func TestAuthenticatedCallersDriveLedger(t *testing.T) {
	keyRing := NewKeyRing()
	owner := newRegisteredSigner(t, keyRing, "0.0.1001")
	outsider := newRegisteredSigner(t, keyRing, "0.0.1002")

	tokenLedger, err := ledger.New(ledger.Config{
		Name:          "AespaToken",
		Symbol:        "AES",
		InitialSupply: big.NewInt(1000),
		BlockReward:   big.NewInt(50),
		Owner:         owner.Address(),
	})
	require.NoError(t, err)

	mint := func(signer *Signer, nonce uint64) error {
		body, err := json.Marshal(mintBody{To: "0.0.1002", Amount: "10"})
		require.NoError(t, err)
		request, err := signer.Sign("mint", body, nonce)
		require.NoError(t, err)

		caller, err := keyRing.Authenticate(request)
		if err != nil {
			return err
		}
		var decoded mintBody
		require.NoError(t, json.Unmarshal(request.Body, &decoded))
		amount, err := ledger.ParseAmount("amt", decoded.Amount)
		require.NoError(t, err)
		return tokenLedger.Mint(caller, ledger.Address(decoded.To), amount)
	}

	require.NoError(t, mint(owner, 1))
	assert.ErrorIs(t, mint(outsider, 1), ledger.ErrUnauthorized)
	assert.Equal(t, "1010", tokenLedger.TotalSupply().String())
}
