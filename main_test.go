package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mern-wallet/wallet-api/auth"
	"github.com/mern-wallet/wallet-api/config"
	"github.com/mern-wallet/wallet-api/events"
	"github.com/mern-wallet/wallet-api/images"
	"github.com/mern-wallet/wallet-api/jobs"
	"github.com/mern-wallet/wallet-api/middleware"
	"github.com/mern-wallet/wallet-api/services/accounts"
)

func testConfig() *config.Config {
	return &config.Config{
		StoreDriver:    "memory",
		ImageStore:     "inline",
		RequestTimeout: time.Second,
		DashboardURL:   "https://wallet.example.com",
		LogLevel:       "bogus",
	}
}

func TestOpenStore(t *testing.T) {
	cfg := testConfig()
	store, closeFn, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.NoError(t, store.Ping(context.Background()))

	cfg.StoreDriver = "sqlite"
	_, _, err = openStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOpenImagesAndPublisher(t *testing.T) {
	cfg := testConfig()
	store, err := openImages(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, images.Inline{}, store)

	assert.IsType(t, events.Fallback{}, openPublisher(cfg))
	cfg.RabbitMQURL = "http://not-amqp"
	assert.IsType(t, events.Fallback{}, openPublisher(cfg))
}

func TestNewHandler(t *testing.T) {
	cfg := testConfig()
	setupLogging(cfg)

	store, closeFn, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	svc := accounts.NewService(store, auth.NewHasher(bcrypt.MinCost, 2), tokens, images.Inline{}, events.Fallback{})
	srv := httptest.NewServer(newHandler(cfg, store, jobs.NewStoreCheck(store), svc, tokens))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://wallet.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "https://wallet.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, err = http.Post(srv.URL+"/users/register", "application/json",
		strings.NewReader(`{"name":"Ann","email":"a@x.com","phone":"555","password":"secret1","address":"1 Main St"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/users/current_user")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
