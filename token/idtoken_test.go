package token_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-oidc-provider/token"
	"github.com/stretchr/testify/require"
)

func TestMintAndParseIDToken(t *testing.T) {
	signer := token.NewHMACSigner("test-secret")
	now := time.Now()

	raw, err := token.MintIDToken(signer, token.IDTokenSpecifics{
		Issuer:   "https://idp.example",
		UserID:   "user",
		ClientID: "client-1",
		Nonce:    "n-0S6_WzA2Mj",
	}, now, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := token.ParseIDToken(signer, raw)
	require.NoError(t, err)
	require.Equal(t, "https://idp.example", claims["iss"])
	require.Equal(t, "user", claims["sub"])
	require.Equal(t, "client-1", claims["aud"])
	require.Equal(t, "n-0S6_WzA2Mj", claims["nonce"])
	require.NotEmpty(t, claims["jti"])
}

func TestParseIDTokenWrongKey(t *testing.T) {
	raw, err := token.MintIDToken(token.NewHMACSigner("key-a"), token.IDTokenSpecifics{
		Issuer: "https://idp.example",
		UserID: "user",
	}, time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = token.ParseIDToken(token.NewHMACSigner("key-b"), raw)
	require.Error(t, err)
}

func TestParseIDTokenGarbage(t *testing.T) {
	_, err := token.ParseIDToken(token.NewHMACSigner("key"), "not-a-token")
	require.Error(t, err)
}
