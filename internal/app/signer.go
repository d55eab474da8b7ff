package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellar/go/keypair"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

// Signer adds one signature to every envelope of an artifact.
type Signer struct {
	network domain.NetworkProfile
	key     *keypair.Full
	reader  ports.EnvelopeReader
	logger  ports.Logger
	events  ports.Events
}

// NewSigner creates a signer for network using key.
func NewSigner(network domain.NetworkProfile, key *keypair.Full, reader ports.EnvelopeReader, logger ports.Logger, events ports.Events) (*Signer, error) {
	if network.Passphrase == "" {
		return nil, domain.ConfigError("network", "passphrase must be set")
	}
	if key == nil {
		return nil, domain.ConfigError("signer_secret", "must be set")
	}
	if events == nil {
		events = ports.NopEvents{}
	}
	return &Signer{network: network, key: key, reader: reader, logger: logger, events: events}, nil
}

// SignFile co-signs every envelope in the artifact at in and writes them to
// w in the same order. Every envelope is verified against the network
// before anything is written; a mismatch fails the whole file with
// domain.ErrNetworkMismatch. It returns the finalized output path.
func (s *Signer) SignFile(ctx context.Context, in string, w ports.EnvelopeWriter) (out string, err error) {
	defer func() {
		path, cerr := w.Close()
		if cerr != nil {
			err = errors.Join(err, fmt.Errorf("finalize signed artifact: %w", cerr))
		}
		if err == nil {
			out = path
		}
	}()

	envelopes, err := s.reader.ReadEnvelopes(ctx, in)
	if err != nil {
		return "", err
	}

	signed := make([]string, 0, len(envelopes))
	for i, env := range envelopes {
		cosigned, err := txbuild.Cosign(env, s.network.Passphrase, s.key)
		if err != nil {
			return "", fmt.Errorf("envelope %d: %w", i, err)
		}
		signed = append(signed, cosigned)
	}

	for _, env := range signed {
		if err := w.Append(env); err != nil {
			return "", err
		}
		s.events.EnvelopePersisted(ports.StageSign)
	}

	s.logger.Info("artifact signed",
		ports.String("input", in),
		ports.Int("envelopes", len(signed)),
		ports.String("signer", s.key.Address()),
	)
	return "", nil
}
