package person

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCNPJ(t *testing.T) {
	got, err := NormalizeCNPJ("12.345.678/0001-95")
	require.NoError(t, err)
	assert.Equal(t, "12345678000195", got)

	_, err = NormalizeCNPJ("123")
	assert.ErrorIs(t, err, ErrCNPJInvalid)

	_, err = NormalizeCNPJ("12.345.678/0001-9500")
	assert.ErrorIs(t, err, ErrCNPJInvalid)
}

func TestLookupReturnsCompany(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345678000195", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cnpj":"12345678000195","razao_social":"Finance AI LTDA","nome_fantasia":"Finance AI","municipio":"São Paulo","uf":"SP"}`))
	}))
	defer server.Close()

	svc := NewService(server.URL)
	company, err := svc.Lookup(context.Background(), "12.345.678/0001-95")
	require.NoError(t, err)
	assert.Equal(t, "Finance AI LTDA", company.LegalName)
	assert.Equal(t, "SP", company.State)
}

func TestLookupInvalidBeforeRemote(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	svc := NewService(server.URL)
	_, err := svc.Lookup(context.Background(), "não é um cnpj")
	assert.ErrorIs(t, err, ErrCNPJInvalid)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewService(server.URL)
	_, err := svc.Lookup(context.Background(), "12345678000195")
	assert.ErrorIs(t, err, ErrCNPJNotFound)
}

func TestLookupTimeout(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	svc := NewService(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Lookup(ctx, "12345678000195")
	assert.ErrorIs(t, err, ErrCNPJTimeout)
}

func TestLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(server.URL)
	_, err := svc.Lookup(context.Background(), "12345678000195")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCNPJNotFound)
	assert.NotErrorIs(t, err, ErrCNPJTimeout)
}
