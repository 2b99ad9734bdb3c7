package hosting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/pushguard/guard/hosting"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tok  string
		want hosting.Visibility
	}{
		{
			name: "lowercase public",
			tok:  "public",
			want: hosting.Public,
		},
		{
			name: "uppercase enum from the GitHub CLI",
			tok:  "PUBLIC",
			want: hosting.Public,
		},
		{
			name: "private",
			tok:  "private",
			want: hosting.Private,
		},
		{
			name: "internal",
			tok:  "internal",
			want: hosting.Internal,
		},
		{
			name: "surrounding whitespace is ignored",
			tok:  " Private\n",
			want: hosting.Private,
		},
		{
			name: "unrecognized token",
			tok:  "secret",
			want: hosting.Unknown,
		},
		{
			name: "empty token",
			tok:  "",
			want: hosting.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(
				t, tt.want, hosting.Normalize(tt.tok),
			)
		})
	}
}

func TestProviderFunc_delegates(t *testing.T) {
	t.Parallel()

	called := false

	fn := hosting.ProviderFunc(
		func(_ context.Context) (hosting.Visibility, error) {
			called = true

			return hosting.Internal, nil
		},
	)

	v, err := fn.RepositoryVisibility(context.Background())

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, hosting.Internal, v)
}

func TestProviderFunc_propagates_error(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")

	fn := hosting.ProviderFunc(
		func(_ context.Context) (hosting.Visibility, error) {
			return hosting.Unknown, wantErr
		},
	)

	_, err := fn.RepositoryVisibility(context.Background())
	assert.ErrorIs(t, err, wantErr)
}
