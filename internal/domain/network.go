package domain

import (
	"strings"

	"github.com/stellar/go/network"
)

// NetworkProfile fixes the endpoint and the network passphrase for a run.
// It is built once from configuration and passed to every component; no
// component derives network details from a string on its own.
type NetworkProfile struct {
	Name       string
	HorizonURL string
	Passphrase string
}

const (
	NetworkTestnet = "testnet"
	NetworkPublic  = "public"
)

// ParseNetwork returns the profile for "testnet" or "public". A non-empty
// horizonURL overrides the default endpoint but never the passphrase.
func ParseNetwork(name, horizonURL string) (NetworkProfile, error) {
	var p NetworkProfile
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NetworkTestnet:
		p = NetworkProfile{
			Name:       NetworkTestnet,
			HorizonURL: "https://horizon-testnet.stellar.org",
			Passphrase: network.TestNetworkPassphrase,
		}
	case NetworkPublic:
		p = NetworkProfile{
			Name:       NetworkPublic,
			HorizonURL: "https://horizon.stellar.org",
			Passphrase: network.PublicNetworkPassphrase,
		}
	default:
		return NetworkProfile{}, ConfigError("network", "%q is not one of testnet, public", name)
	}
	if horizonURL != "" {
		p.HorizonURL = strings.TrimRight(horizonURL, "/")
	}
	return p, nil
}
