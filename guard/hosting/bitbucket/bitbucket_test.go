package bitbucket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/pushguard/guard/hosting"
	bb "github.com/byte4ever/pushguard/guard/hosting/bitbucket"
)

func TestNewProvider_valid(t *testing.T) {
	t.Parallel()

	pv, err := bb.NewProvider(bb.Config{
		APIEndpoint: "https://bb.example.com/rest",
		User:        "admin",
		Password:    "secret",
	})

	require.NoError(t, err)
	assert.NotNil(t, pv)
}

func TestNewProvider_missing_endpoint(t *testing.T) {
	t.Parallel()

	pv, err := bb.NewProvider(bb.Config{
		User:     "admin",
		Password: "secret",
	})

	assert.Nil(t, pv)
	assert.ErrorContains(t, err, "api endpoint")
}

func TestNewProvider_missing_user(t *testing.T) {
	t.Parallel()

	pv, err := bb.NewProvider(bb.Config{
		APIEndpoint: "https://bb.example.com/rest",
		Password:    "secret",
	})

	assert.Nil(t, pv)
	assert.ErrorContains(t, err, "user must be set")
}

func TestNewProvider_missing_password(t *testing.T) {
	t.Parallel()

	pv, err := bb.NewProvider(bb.Config{
		APIEndpoint: "https://bb.example.com/rest",
		User:        "admin",
	})

	assert.Nil(t, pv)
	assert.ErrorContains(t, err, "password")
}

func TestProvider_RepositoryVisibility_public(t *testing.T) {
	t.Parallel()

	var gotAuth bool

	ts := httptest.NewServer(
		http.HandlerFunc(
			func(
				w http.ResponseWriter,
				r *http.Request,
			) {
				_, _, gotAuth = r.BasicAuth()

				w.Header().Set(
					"Content-Type",
					"application/json",
				)
				_, _ = w.Write(
					[]byte(`{"slug":"repo","public":true}`),
				)
			},
		),
	)
	defer ts.Close()

	pv, err := bb.NewProvider(bb.Config{
		APIEndpoint: ts.URL,
		User:        "admin",
		Password:    "secret",
	})
	require.NoError(t, err)

	v, err := pv.RepositoryVisibility(context.Background())

	require.NoError(t, err)
	assert.Equal(t, hosting.Public, v)
	assert.True(t, gotAuth)
}

func TestProvider_RepositoryVisibility_private(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(
		http.HandlerFunc(
			func(
				w http.ResponseWriter,
				_ *http.Request,
			) {
				_, _ = w.Write(
					[]byte(`{"slug":"repo","public":false}`),
				)
			},
		),
	)
	defer ts.Close()

	pv, err := bb.NewProvider(bb.Config{
		APIEndpoint: ts.URL,
		User:        "admin",
		Password:    "secret",
	})
	require.NoError(t, err)

	v, err := pv.RepositoryVisibility(context.Background())

	require.NoError(t, err)
	assert.Equal(t, hosting.Private, v)
}

func TestProvider_RepositoryVisibility_unexpected_status(
	t *testing.T,
) {
	t.Parallel()

	ts := httptest.NewServer(
		http.HandlerFunc(
			func(
				w http.ResponseWriter,
				_ *http.Request,
			) {
				w.WriteHeader(http.StatusNotFound)
			},
		),
	)
	defer ts.Close()

	pv, err := bb.NewProvider(bb.Config{
		APIEndpoint: ts.URL,
		User:        "admin",
		Password:    "secret",
	})
	require.NoError(t, err)

	v, err := pv.RepositoryVisibility(context.Background())

	assert.ErrorContains(t, err, "unexpected status")
	assert.Equal(t, hosting.Unknown, v)
}

func TestProvider_RepositoryVisibility_bad_payload(
	t *testing.T,
) {
	t.Parallel()

	ts := httptest.NewServer(
		http.HandlerFunc(
			func(
				w http.ResponseWriter,
				_ *http.Request,
			) {
				_, _ = w.Write([]byte("not json"))
			},
		),
	)
	defer ts.Close()

	pv, err := bb.NewProvider(bb.Config{
		APIEndpoint: ts.URL,
		User:        "admin",
		Password:    "secret",
	})
	require.NoError(t, err)

	_, err = pv.RepositoryVisibility(context.Background())
	assert.ErrorContains(t, err, "decode response")
}
