package app

import (
	"context"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

func TestSignFileCosignsInOrder(t *testing.T) {
	net, err := domain.ParseNetwork(domain.NetworkTestnet, "")
	require.NoError(t, err)
	envs := testnetEnvelopes(t, 3)
	events := &countingEvents{}

	s, err := NewSigner(net, keypair.MustRandom(), memoryReader{"in.csv": envs}, &recordingLogger{}, events)
	require.NoError(t, err)

	w := &memoryWriter{path: "in_signed.csv"}
	out, err := s.SignFile(context.Background(), "in.csv", w)
	require.NoError(t, err)
	require.Equal(t, "in_signed.csv", out)
	require.True(t, w.closed)
	require.Len(t, w.rows, 3)
	require.Equal(t, 3, events.persisted)

	for i, env := range w.rows {
		orig, err := txbuild.Decode(envs[i])
		require.NoError(t, err)
		signed, err := txbuild.Decode(env)
		require.NoError(t, err)

		require.Len(t, signed.Signatures(), 2)
		require.Equal(t, orig.SourceAccount().Sequence, signed.SourceAccount().Sequence)

		origHash, err := txbuild.Hash(orig, net.Passphrase)
		require.NoError(t, err)
		signedHash, err := txbuild.Hash(signed, net.Passphrase)
		require.NoError(t, err)
		require.Equal(t, origHash, signedHash)
	}
}

func TestSignFileNetworkMismatchWritesNothing(t *testing.T) {
	net, err := domain.ParseNetwork(domain.NetworkTestnet, "")
	require.NoError(t, err)
	envs := []string{
		testnetEnvelopes(t, 1)[0],
		signedEnvelope(t, keypair.MustRandom(), 1, network.PublicNetworkPassphrase),
	}

	s, err := NewSigner(net, keypair.MustRandom(), memoryReader{"in.csv": envs}, &recordingLogger{}, nil)
	require.NoError(t, err)

	w := &memoryWriter{}
	out, err := s.SignFile(context.Background(), "in.csv", w)
	require.ErrorIs(t, err, domain.ErrNetworkMismatch)
	require.Empty(t, out)
	require.Empty(t, w.rows)
	require.True(t, w.closed)
}

func TestNewSignerValidates(t *testing.T) {
	_, err := NewSigner(domain.NetworkProfile{}, keypair.MustRandom(), memoryReader{}, &recordingLogger{}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	net, err := domain.ParseNetwork(domain.NetworkPublic, "")
	require.NoError(t, err)
	_, err = NewSigner(net, nil, memoryReader{}, &recordingLogger{}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
