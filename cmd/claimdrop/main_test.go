package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/claimdrop/internal/adapters/csvfile"
	"github.com/bft-labs/claimdrop/internal/app"
	"github.com/bft-labs/claimdrop/internal/cliconfig"
	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/txbuild"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg := cliconfig.DefaultConfig()
	var opts rootOptions
	root := newRootCmd(&cfg, &opts)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", "", "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandStages(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	root := newRootCmd(&cfg, &rootOptions{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"generate", "sign", "submit", "collect"} {
		require.Contains(t, names, want)
	}
}

func TestInvalidConfigFailsBeforeNetwork(t *testing.T) {
	_, err := execute(t, "submit", "--horizon-url", "http://127.0.0.1:1")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = execute(t, "generate", "--network", "futurenet")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestMissingExplicitConfigFile(t *testing.T) {
	_, err := execute(t, "sign", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestSignCommandWritesSignedArtifact(t *testing.T) {
	dir := t.TempDir()
	source := keypair.MustRandom()
	cosigner := keypair.MustRandom()

	tx, err := txbuild.BuildReclaim(source.Address(), 11, 100, "TEST claimback", []string{"00000000" + strings.Repeat("ab", 32)})
	require.NoError(t, err)
	env, err := txbuild.Sign(tx, network.TestNetworkPassphrase, source)
	require.NoError(t, err)

	in := filepath.Join(dir, "generated_xdrs_1629072000.csv")
	_, err = csvfile.WriteEnvelopes(in, []string{env})
	require.NoError(t, err)

	out, err := execute(t, "sign", "--xdr-file", in, "--signer-secret", cosigner.Seed())
	require.NoError(t, err)

	signedPath := csvfile.SignedPath(in)
	require.Equal(t, signedPath, strings.TrimSpace(out))

	signed, err := csvfile.NewReader().ReadEnvelopes(context.Background(), signedPath)
	require.NoError(t, err)
	require.Len(t, signed, 1)

	decoded, err := txbuild.Decode(signed[0])
	require.NoError(t, err)
	require.Len(t, decoded.Signatures(), 2)

	// Signing again must not replace the existing signed artifact.
	_, err = execute(t, "sign", "--xdr-file", in, "--signer-secret", keypair.MustRandom().Seed())
	require.ErrorIs(t, err, os.ErrExist)
	again, err := csvfile.NewReader().ReadEnvelopes(context.Background(), signedPath)
	require.NoError(t, err)
	require.Equal(t, signed, again)
}

func TestSignCommandRejectsOtherNetwork(t *testing.T) {
	dir := t.TempDir()
	source := keypair.MustRandom()

	tx, err := txbuild.BuildReclaim(source.Address(), 11, 100, "TEST claimback", []string{"00000000" + strings.Repeat("cd", 32)})
	require.NoError(t, err)
	env, err := txbuild.Sign(tx, network.PublicNetworkPassphrase, source)
	require.NoError(t, err)

	in := filepath.Join(dir, "generated_xdrs_1629072000.csv")
	_, err = csvfile.WriteEnvelopes(in, []string{env})
	require.NoError(t, err)

	_, err = execute(t, "sign", "--xdr-file", in, "--signer-secret", keypair.MustRandom().Seed())
	require.ErrorIs(t, err, domain.ErrNetworkMismatch)

	_, statErr := os.Stat(csvfile.SignedPath(in))
	require.True(t, os.IsNotExist(statErr))
}

func TestProgressOfRecordsFailureAndSkippedRanges(t *testing.T) {
	failed := progressOf("accounts.csv", app.GenerateResult{Outcome: app.OutcomeFailed}, errors.New("load distribution account: horizon down"))
	require.Equal(t, app.OutcomeFailed, failed.Outcome)
	require.Equal(t, "load distribution account: horizon down", failed.Error)
	off, ok := failed.ResumeOffset("accounts.csv")
	require.True(t, ok)
	require.Zero(t, off)

	interrupted := progressOf("accounts.csv", app.GenerateResult{Outcome: "aborted", NextOffset: 200}, domain.ErrInterrupted)
	require.Equal(t, "aborted", interrupted.Outcome)
	require.Empty(t, interrupted.Error)

	skipped := progressOf("accounts.csv", app.GenerateResult{
		Outcome:      "done",
		NextOffset:   250,
		SkippedPages: 1,
		Skipped:      []app.SkippedRange{{Offset: 100, Count: 100, Reason: "bad destination"}},
	}, nil)
	require.Empty(t, skipped.Error)
	require.Len(t, skipped.Skipped, 1)
	require.Equal(t, 100, skipped.Skipped[0].Offset)
	require.Equal(t, 100, skipped.Skipped[0].Count)
}
