// Package identity authenticates callers of the token ledger. Each caller
// holds a secp256k1 key; operations are submitted as signed requests and the
// KeyRing resolves a verified request to the ledger Address that signed it.
//
// # Sign and Authenticate
//
//	signer, err := identity.NewSigner("0.0.1001", privateKey)
//	request, err := signer.Sign("mint", body, 1)
//
//	keyRing := identity.NewKeyRing()
//	_ = keyRing.Register("0.0.1001", signer.PublicKey())
//	caller, err := keyRing.Authenticate(request)
//
// Nonces must strictly increase per caller, so a captured request cannot be
// replayed.
package identity
