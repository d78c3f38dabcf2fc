package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"smart-parking-dashboard/pkg/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(serverURL string) *Client {
	return NewClient(serverURL, 5*time.Second, zerolog.Nop())
}

func TestSpots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parking" {
			t.Errorf("expected path /parking, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"Parking Spots": []models.Spot{
				{SpotID: 1, Price: 10, Availability: true, UserSpot: ""},
				{SpotID: 2, Price: 20, Availability: false, UserSpot: "bob"},
			},
		})
	}))
	defer server.Close()

	spots, err := testClient(server.URL).Spots(context.Background())
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.Equal(t, 1, spots[0].SpotID)
	assert.Equal(t, 10.0, spots[0].Price)
	assert.True(t, spots[0].Availability)
	assert.Equal(t, "bob", spots[1].UserSpot)
}

func TestSpotsStatusErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "boom"})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Spots(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "boom", se.Detail)
	assert.Equal(t, int32(1), calls.Load(), "status errors must not be retried")
}

func TestSpotsRetriesTransportErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			// Drop the connection without a response.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"Parking Spots": []models.Spot{{SpotID: 1, Price: 10, Availability: true}},
		})
	}))
	defer server.Close()

	spots, err := testClient(server.URL).Spots(context.Background())
	require.NoError(t, err)
	assert.Len(t, spots, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/login", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		assert.Equal(t, "secret", r.URL.Query().Get("pswd"))
		json.NewEncoder(w).Encode(map[string]string{"Login": "Successful"})
	}))
	defer server.Close()

	err := testClient(server.URL).Login(context.Background(), "alice", "secret")
	assert.NoError(t, err)
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid password"})
	}))
	defer server.Close()

	err := testClient(server.URL).Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrLoginRejected)
}

func TestWallet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/alice/getWallet", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"username": "alice", "wallet_balance": 42.5})
	}))
	defer server.Close()

	balance, err := testClient(server.URL).Wallet(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 42.5, balance)
}

func TestWalletAdminHasNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Admin does not have a wallet"})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Wallet(context.Background(), "admin")
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestDeductFundsForwardsRawAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/user/alice/minusFunds", r.URL.Path)
		assert.Equal(t, "15.00", r.URL.Query().Get("amount"))
		json.NewEncoder(w).Encode(map[string]any{"wallet_balance": 85.0})
	}))
	defer server.Close()

	update, err := testClient(server.URL).DeductFunds(context.Background(), "alice", "15.00")
	require.NoError(t, err)
	assert.Equal(t, 85.0, update.WalletBalance)
}

func TestAddFunds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/user/alice/updateWallet", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("amount"))
		json.NewEncoder(w).Encode(map[string]any{
			"wallet_balance": 150.0,
			"message":        "User alice's wallet updated successfully by 50. New balance: 150",
		})
	}))
	defer server.Close()

	update, err := testClient(server.URL).AddFunds(context.Background(), "alice", "50")
	require.NoError(t, err)
	assert.Equal(t, 150.0, update.WalletBalance)
	assert.Contains(t, update.Message, "updated successfully")
}

func TestReserve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/parking/reserve/3", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("username"))
		json.NewEncoder(w).Encode(map[string]string{"message": "Parking Spot 3 reserved successfully by alice"})
	}))
	defer server.Close()

	message, err := testClient(server.URL).Reserve(context.Background(), 3, "alice")
	require.NoError(t, err)
	assert.Contains(t, message, "reserved successfully")
}

func TestCreateSpotPayload(t *testing.T) {
	var received models.Spot
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/parking/create", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"message": "Parking Spot 5 created successfully"})
	}))
	defer server.Close()

	message, err := testClient(server.URL).CreateSpot(context.Background(), 20)
	require.NoError(t, err)
	assert.Contains(t, message, "created successfully")

	assert.Equal(t, 0, received.SpotID)
	assert.Equal(t, 20.0, received.Price)
	assert.True(t, received.Availability)
	assert.Equal(t, "", received.UserSpot)
}

func TestDeleteSpot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/parking/delete/7", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"message": "Parking Spot 7 deleted successfully"})
	}))
	defer server.Close()

	message, err := testClient(server.URL).DeleteSpot(context.Background(), 7)
	require.NoError(t, err)
	assert.Contains(t, message, "deleted successfully")
}

func TestReservedSpots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/alice/parking_spots", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"Reserved Parking Spots": []models.ReservedSpot{{SpotID: 2, Price: 20}},
		})
	}))
	defer server.Close()

	spots, err := testClient(server.URL).ReservedSpots(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, spots, 1)
	assert.Equal(t, 2, spots[0].SpotID)
}

func TestAvailableSpotsEmptyOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No available parking spots found"})
	}))
	defer server.Close()

	spots, err := testClient(server.URL).AvailableSpots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, spots)
}
