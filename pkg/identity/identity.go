package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
)

// SignedRequest is one operation submitted on behalf of Caller. Body carries
// the operation arguments in whatever encoding the receiver expects.
type SignedRequest struct {
	Caller    ledger.Address `json:"caller"`
	Operation string         `json:"op"`
	Nonce     uint64         `json:"nonce"`
	Body      []byte         `json:"body,omitempty"`
	Signature string         `json:"sig"`
}

type signingEnvelope struct {
	Caller    ledger.Address `json:"caller"`
	Operation string         `json:"op"`
	Nonce     uint64         `json:"nonce"`
	Body      []byte         `json:"body,omitempty"`
}

// Digest returns the SHA-256 digest covered by the signature.
func (request SignedRequest) Digest() ([]byte, error) {
	canonical, err := json.Marshal(signingEnvelope{
		Caller:    request.Caller,
		Operation: strings.ToLower(strings.TrimSpace(request.Operation)),
		Nonce:     request.Nonce,
		Body:      request.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode signing envelope: %w", err)
	}
	digest := sha256.Sum256(canonical)
	return digest[:], nil
}

type Signer struct {
	address    ledger.Address
	privateKey *btcec.PrivateKey
}

// NewSigner binds a private key to a ledger address.
func NewSigner(address ledger.Address, privateKey *btcec.PrivateKey) (*Signer, error) {
	normalized, err := ledger.NormalizeAddress(string(address))
	if err != nil {
		return nil, err
	}
	if privateKey == nil {
		return nil, fmt.Errorf("private key is required")
	}
	return &Signer{address: normalized, privateKey: privateKey}, nil
}

// GenerateSigner creates a signer with a fresh key.
func GenerateSigner(address ledger.Address) (*Signer, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return NewSigner(address, privateKey)
}

// SignerFromHex parses a hex-encoded 32-byte private key.
func SignerFromHex(address ledger.Address, privateKeyHex string) (*Signer, error) {
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(decoded) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(decoded))
	}
	privateKey, _ := btcec.PrivKeyFromBytes(decoded)
	return NewSigner(address, privateKey)
}

func (signer *Signer) Address() ledger.Address {
	return signer.address
}

func (signer *Signer) PublicKey() *btcec.PublicKey {
	return signer.privateKey.PubKey()
}

// Sign produces a request for operation with the given body and nonce.
func (signer *Signer) Sign(operation string, body []byte, nonce uint64) (SignedRequest, error) {
	request := SignedRequest{
		Caller:    signer.address,
		Operation: strings.ToLower(strings.TrimSpace(operation)),
		Nonce:     nonce,
		Body:      append([]byte{}, body...),
	}
	digest, err := request.Digest()
	if err != nil {
		return SignedRequest{}, err
	}
	request.Signature = hex.EncodeToString(ecdsa.Sign(signer.privateKey, digest).Serialize())
	return request, nil
}

// KeyRing maps ledger addresses to their registered public keys and tracks
// the highest nonce accepted from each caller.
type KeyRing struct {
	mutex  sync.Mutex
	keys   map[ledger.Address]*btcec.PublicKey
	nonces map[ledger.Address]uint64
}

func NewKeyRing() *KeyRing {
	return &KeyRing{
		keys:   map[ledger.Address]*btcec.PublicKey{},
		nonces: map[ledger.Address]uint64{},
	}
}

// Register associates a public key with an address, replacing any earlier key.
func (keyRing *KeyRing) Register(address ledger.Address, publicKey *btcec.PublicKey) error {
	normalized, err := ledger.NormalizeAddress(string(address))
	if err != nil {
		return err
	}
	if publicKey == nil {
		return fmt.Errorf("public key is required")
	}

	keyRing.mutex.Lock()
	defer keyRing.mutex.Unlock()
	keyRing.keys[normalized] = publicKey
	return nil
}

// RegisterHex registers a compressed or uncompressed hex-encoded public key.
func (keyRing *KeyRing) RegisterHex(address ledger.Address, publicKeyHex string) error {
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(publicKeyHex), "0x"))
	if err != nil {
		return fmt.Errorf("invalid public key hex: %w", err)
	}
	publicKey, err := btcec.ParsePubKey(decoded)
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	return keyRing.Register(address, publicKey)
}

// Authenticate verifies request and returns the caller address it proves.
func (keyRing *KeyRing) Authenticate(request SignedRequest) (ledger.Address, error) {
	caller, err := ledger.NormalizeAddress(string(request.Caller))
	if err != nil {
		return "", err
	}
	request.Caller = caller

	keyRing.mutex.Lock()
	defer keyRing.mutex.Unlock()

	publicKey, exists := keyRing.keys[caller]
	if !exists {
		return "", NewUnknownCallerError(caller)
	}

	rawSignature, err := hex.DecodeString(strings.TrimSpace(request.Signature))
	if err != nil {
		return "", NewInvalidSignatureError(caller, "signature is not hex")
	}
	signature, err := ecdsa.ParseDERSignature(rawSignature)
	if err != nil {
		return "", NewInvalidSignatureError(caller, err.Error())
	}
	digest, err := request.Digest()
	if err != nil {
		return "", err
	}
	if !signature.Verify(digest, publicKey) {
		return "", NewInvalidSignatureError(caller, "verification failed")
	}

	if lastNonce, seen := keyRing.nonces[caller]; seen && request.Nonce <= lastNonce {
		return "", NewReplayError(caller, request.Nonce, lastNonce)
	}
	keyRing.nonces[caller] = request.Nonce
	return caller, nil
}
