package txbuild

import (
	"errors"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/bft-labs/claimdrop/internal/domain"
)

// Sign signs tx for the given network and returns the base64 envelope.
func Sign(tx *txnbuild.Transaction, passphrase string, signers ...*keypair.Full) (string, error) {
	signed, err := tx.Sign(passphrase, signers...)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	envelope, err := signed.Base64()
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return envelope, nil
}

// Decode parses a base64 envelope. Fee-bump envelopes are not produced by
// claimdrop and are rejected.
func Decode(envelope string) (*txnbuild.Transaction, error) {
	gtx, err := txnbuild.TransactionFromXDR(envelope)
	if err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	tx, ok := gtx.Transaction()
	if !ok {
		return nil, errors.New("decode envelope: fee bump transactions are not supported")
	}
	return tx, nil
}

// VerifyNetwork checks that the source account's signature verifies against
// the transaction hash for passphrase. The passphrase is part of the signed
// payload, so an envelope built for another network fails here instead of
// failing on submission.
func VerifyNetwork(tx *txnbuild.Transaction, passphrase string) error {
	hash, err := tx.Hash(passphrase)
	if err != nil {
		return fmt.Errorf("hash transaction: %w", err)
	}
	source := tx.SourceAccount().AccountID
	kp, err := keypair.ParseAddress(source)
	if err != nil {
		return fmt.Errorf("source account %q: %w", source, err)
	}
	for _, sig := range tx.Signatures() {
		if kp.Verify(hash[:], sig.Signature) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: no signature from %s verifies for network %q", domain.ErrNetworkMismatch, source, passphrase)
}

// Hash returns the hex transaction hash for the network.
func Hash(tx *txnbuild.Transaction, passphrase string) (string, error) {
	return tx.HashHex(passphrase)
}

// Cosign verifies the envelope against the network and adds one signature.
func Cosign(envelope, passphrase string, signer *keypair.Full) (string, error) {
	tx, err := Decode(envelope)
	if err != nil {
		return "", err
	}
	if err := VerifyNetwork(tx, passphrase); err != nil {
		return "", err
	}
	return Sign(tx, passphrase, signer)
}
