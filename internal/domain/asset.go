package domain

import (
	"fmt"
	"strings"

	"github.com/stellar/go/strkey"
)

// Asset identifies the credit asset being distributed.
type Asset struct {
	Code   string
	Issuer string
}

// ParseAsset parses the canonical CODE:ISSUER form.
func ParseAsset(s string) (Asset, error) {
	code, issuer, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Asset{}, ConfigError("asset", "expected CODE:ISSUER, got %q", s)
	}
	a := Asset{Code: code, Issuer: issuer}
	if err := a.Validate(); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// Validate checks the code length and character set and the issuer address.
func (a Asset) Validate() error {
	if len(a.Code) < 1 || len(a.Code) > 12 {
		return ConfigError("asset", "code %q must be 1-12 characters", a.Code)
	}
	for _, r := range a.Code {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ConfigError("asset", "code %q must be alphanumeric", a.Code)
		}
	}
	if !strkey.IsValidEd25519PublicKey(a.Issuer) {
		return ConfigError("asset", "invalid issuer %q", a.Issuer)
	}
	return nil
}

// String returns the canonical CODE:ISSUER form.
func (a Asset) String() string {
	return fmt.Sprintf("%s:%s", a.Code, a.Issuer)
}

// AirdropMemo is the text memo attached to distribution transactions.
func (a Asset) AirdropMemo() string {
	return a.Code + " airdrop"
}

// ClaimbackMemo is the text memo attached to collector reclaim transactions.
func (a Asset) ClaimbackMemo() string {
	return a.Code + " claimback"
}
