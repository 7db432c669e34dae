package oidcmodel_test

import (
	"testing"

	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/stretchr/testify/require"
)

func TestParseResponseType(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    oidcmodel.ResponseType
		wantErr bool
	}{
		{name: "code", raw: "code", want: oidcmodel.ResponseTypeCode},
		{name: "token", raw: "token", want: oidcmodel.ResponseTypeToken},
		{name: "id_token", raw: "id_token", want: oidcmodel.ResponseTypeIDToken},
		{name: "code token", raw: "code token", want: oidcmodel.ResponseTypeCodeToken},
		{name: "reordered code token", raw: "token code", want: oidcmodel.ResponseTypeCodeToken},
		{name: "code id_token", raw: "code id_token", want: oidcmodel.ResponseTypeCodeIDToken},
		{name: "token id_token", raw: "id_token token", want: oidcmodel.ResponseTypeTokenIDToken},
		{name: "empty", raw: "", wantErr: true},
		{name: "unknown value", raw: "password", wantErr: true},
		{name: "duplicate", raw: "code code", wantErr: true},
		{name: "all three", raw: "code token id_token", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := oidcmodel.ParseResponseType(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, oidcmodel.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResponseTypeMembership(t *testing.T) {
	require.True(t, oidcmodel.ResponseTypeCodeToken.IncludesCode())
	require.True(t, oidcmodel.ResponseTypeCodeToken.IncludesToken())
	require.False(t, oidcmodel.ResponseTypeCodeToken.IncludesIDToken())

	require.False(t, oidcmodel.ResponseTypeIDToken.IncludesCode())
	require.True(t, oidcmodel.ResponseTypeIDToken.IncludesIDToken())

	require.True(t, oidcmodel.ResponseTypeCode.IncludesCode())
	require.False(t, oidcmodel.ResponseTypeCode.IncludesToken())
}
