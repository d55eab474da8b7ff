package domain

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	addr := keypair.MustRandom().Address()

	tests := []struct {
		name       string
		row        []string
		want       Recipient
		wantReason string
	}{
		{"valid", []string{addr, "3"}, Recipient{Address: addr, Multiplier: 3, Line: 7}, ""},
		{"valid with spaces", []string{" " + addr + " ", " 12 "}, Recipient{Address: addr, Multiplier: 12, Line: 7}, ""},
		{"zero multiplier", []string{addr, "0"}, Recipient{Address: addr, Multiplier: 0, Line: 7}, ""},
		{"extra columns ignored", []string{addr, "1", "note"}, Recipient{Address: addr, Multiplier: 1, Line: 7}, ""},
		{"non-integer multiplier", []string{addr, "abc"}, Recipient{}, `invalid multiplier "abc"`},
		{"fractional multiplier", []string{addr, "1.5"}, Recipient{}, `invalid multiplier "1.5"`},
		{"negative multiplier", []string{addr, "-2"}, Recipient{}, "negative multiplier -2"},
		{"bad address", []string{"GABC", "1"}, Recipient{}, "invalid account address"},
		{"secret seed instead of address", []string{keypair.MustRandom().Seed(), "1"}, Recipient{}, "invalid account address"},
		{"missing column", []string{addr}, Recipient{}, "expected account and multiplier columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rerr := ParseRecord(7, tt.row)
			if tt.wantReason == "" {
				require.Nil(t, rerr)
				require.Equal(t, tt.want, got)
				return
			}
			require.NotNil(t, rerr)
			require.Equal(t, 7, rerr.Line)
			require.Equal(t, tt.wantReason, rerr.Reason)
			require.ErrorIs(t, rerr, ErrInvalidRecord)
		})
	}
}

func TestParseAsset(t *testing.T) {
	issuer := keypair.MustRandom().Address()

	a, err := ParseAsset("XXX:" + issuer)
	require.NoError(t, err)
	require.Equal(t, Asset{Code: "XXX", Issuer: issuer}, a)
	require.Equal(t, "XXX:"+issuer, a.String())
	require.Equal(t, "XXX airdrop", a.AirdropMemo())
	require.Equal(t, "XXX claimback", a.ClaimbackMemo())

	for _, bad := range []string{
		"XXX",
		"XXX:GBAD",
		":" + issuer,
		"WAYTOOLONGCODE1:" + issuer,
		"X-Y:" + issuer,
	} {
		_, err := ParseAsset(bad)
		require.ErrorIs(t, err, ErrInvalidConfig, "input %q", bad)
	}
}

func TestParseNetwork(t *testing.T) {
	p, err := ParseNetwork("testnet", "")
	require.NoError(t, err)
	require.Equal(t, "https://horizon-testnet.stellar.org", p.HorizonURL)
	require.Equal(t, "Test SDF Network ; September 2015", p.Passphrase)

	p, err = ParseNetwork("PUBLIC", "http://localhost:8000/")
	require.NoError(t, err)
	require.Equal(t, NetworkPublic, p.Name)
	require.Equal(t, "http://localhost:8000", p.HorizonURL)
	require.Equal(t, "Public Global Stellar Network ; September 2015", p.Passphrase)

	_, err = ParseNetwork("futurenet", "")
	require.ErrorIs(t, err, ErrInvalidConfig)
}
