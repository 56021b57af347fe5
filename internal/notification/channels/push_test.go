package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpoPushSendToMany(t *testing.T) {
	var gotBody []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"status":"ok"},
			{"status":"error","message":"device token expired","details":{"error":"DeviceNotRegistered"}}
		]}`))
	}))
	defer server.Close()

	client := NewExpoPushClient(server.URL)
	tokens := []string{"ExponentPushToken[alive]", "ExponentPushToken[dead]"}
	results, err := client.SendToMany(context.Background(), tokens, PushPayload{
		Title: "Tin nhắn mới",
		Body:  "Khách: xin chào",
		Data:  map[string]string{"url": "http://localhost:3000/live-chat?sessionId=abc"},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)

	// Request là một batch chứa cả hai token, giữ nguyên thứ tự
	require.Len(t, gotBody, 2)
	assert.Equal(t, "ExponentPushToken[alive]", gotBody[0]["to"])
	assert.Equal(t, "ExponentPushToken[dead]", gotBody[1]["to"])
	assert.Equal(t, "Tin nhắn mới", gotBody[0]["title"])

	// Kết quả theo đúng thứ tự token đầu vào
	assert.Equal(t, "ExponentPushToken[alive]", results[0].Token)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "ExponentPushToken[dead]", results[1].Token)
	assert.Equal(t, ErrDeviceNotRegistered, results[1].Error)
}

func TestExpoPushSendToManyNoTokens(t *testing.T) {
	client := NewExpoPushClient("http://should-not-be-called.invalid")
	results, err := client.SendToMany(context.Background(), nil, PushPayload{Title: "x"})
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestExpoPushSendToManyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewExpoPushClient(server.URL)
	results, err := client.SendToMany(context.Background(), []string{"tok"}, PushPayload{Title: "x"})
	assert.Error(t, err)
	assert.Nil(t, results)
}

func TestExpoPushSendToManyErrorWithoutDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"status":"error","message":"rate limited"}]}`))
	}))
	defer server.Close()

	client := NewExpoPushClient(server.URL)
	results, err := client.SendToMany(context.Background(), []string{"tok"}, PushPayload{Title: "x"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rate limited", results[0].Error)
}
