// Package channels chứa các kênh gửi thông báo: push (Expo) và email fallback.
package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"live_support/internal/logger"
)

// ErrDeviceNotRegistered là mã lỗi Expo trả về cho token đã chết;
// dispatcher gỡ các token này khỏi admin.
const ErrDeviceNotRegistered = "DeviceNotRegistered"

// PushPayload là nội dung một push notification.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// Data chứa deep link tới màn hình live-chat của admin, scoped theo phiên
	Data map[string]string `json:"data,omitempty"`
}

// PushResult là kết quả gửi cho một endpoint.
type PushResult struct {
	Token string // Endpoint nhận
	Error string // Mã lỗi Expo ("" = thành công)
}

// PushSender gửi push tới nhiều endpoint trong một lần; ExpoPushClient là
// implementation thật, test dùng fake.
type PushSender interface {
	SendToMany(ctx context.Context, tokens []string, payload PushPayload) ([]PushResult, error)
}

// ExpoPushClient gọi Expo Push API (send).
type ExpoPushClient struct {
	url    string
	client *http.Client
}

// NewExpoPushClient tạo client Expo Push.
func NewExpoPushClient(url string) *ExpoPushClient {
	if url == "" {
		url = "https://exp.host/--/api/v2/push/send"
	}
	return &ExpoPushClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Cấu trúc request/response của Expo Push API
type expoPushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type expoPushResponse struct {
	Data []struct {
		Status  string `json:"status"` // ok | error
		Message string `json:"message,omitempty"`
		Details struct {
			Error string `json:"error,omitempty"`
		} `json:"details,omitempty"`
	} `json:"data"`
}

// SendToMany gửi payload tới tất cả token trong một request batched.
// Kết quả trả về theo đúng thứ tự token đầu vào.
func (e *ExpoPushClient) SendToMany(ctx context.Context, tokens []string, payload PushPayload) ([]PushResult, error) {
	log := logger.GetAppLogger()

	if len(tokens) == 0 {
		return nil, nil
	}

	messages := make([]expoPushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, expoPushMessage{
			To:    token,
			Title: payload.Title,
			Body:  payload.Body,
			Data:  payload.Data,
		})
	}

	jsonData, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		log.WithError(err).Error("📲 [PUSH] Lỗi khi gọi Expo Push API")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.WithFields(map[string]interface{}{
			"statusCode": resp.StatusCode,
			"response":   string(bodyBytes),
		}).Error("📲 [PUSH] Expo Push API trả về lỗi")
		return nil, fmt.Errorf("expo push API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed expoPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	results := make([]PushResult, 0, len(tokens))
	for i, token := range tokens {
		result := PushResult{Token: token}
		if i < len(parsed.Data) && parsed.Data[i].Status != "ok" {
			result.Error = parsed.Data[i].Details.Error
			if result.Error == "" {
				result.Error = parsed.Data[i].Message
			}
		}
		results = append(results, result)
	}

	return results, nil
}
