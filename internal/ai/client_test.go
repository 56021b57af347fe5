package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeTurns kiểm tra việc cắt dải turn model ở đầu lịch sử
func TestNormalizeTurns(t *testing.T) {
	tests := []struct {
		name  string
		turns []Turn
		want  []Turn
	}{
		{
			name:  "lịch sử rỗng",
			turns: []Turn{},
			want:  []Turn{},
		},
		{
			name: "mở đầu bằng user giữ nguyên",
			turns: []Turn{
				{Role: "user", Text: "xin chào"},
				{Role: "model", Text: "chào bạn"},
			},
			want: []Turn{
				{Role: "user", Text: "xin chào"},
				{Role: "model", Text: "chào bạn"},
			},
		},
		{
			name: "cắt một turn model ở đầu",
			turns: []Turn{
				{Role: "model", Text: "lời chào tự động"},
				{Role: "user", Text: "xin chào"},
			},
			want: []Turn{
				{Role: "user", Text: "xin chào"},
			},
		},
		{
			name: "cắt nhiều turn model liên tiếp ở đầu",
			turns: []Turn{
				{Role: "model", Text: "chào 1"},
				{Role: "model", Text: "chào 2"},
				{Role: "user", Text: "hỏi"},
				{Role: "model", Text: "đáp"},
			},
			want: []Turn{
				{Role: "user", Text: "hỏi"},
				{Role: "model", Text: "đáp"},
			},
		},
		{
			name: "toàn bộ là model thì rỗng",
			turns: []Turn{
				{Role: "model", Text: "chào"},
			},
			want: []Turn{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTurns(tt.turns)
			assert.Equal(t, len(tt.want), len(got))
			for i := range tt.want {
				assert.Equal(t, tt.want[i], got[i])
			}
		})
	}
}

// TestGenerateReply kiểm tra client gửi đúng request và parse đúng response
func TestGenerateReply(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role": "model",
						"parts": []map[string]interface{}{
							{"text": "  Chào bạn, tôi có thể giúp gì?  "},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", "gemini-2.0-flash", srv.URL)

	reply, err := client.GenerateReply(context.Background(), "Bạn là trợ lý hỗ trợ khách hàng", []Turn{
		{Role: "model", Text: "lời chào tự động"},
		{Role: "user", Text: "xin chào"},
	})
	require.NoError(t, err)

	// Kết quả phải được trim
	assert.Equal(t, "Chào bạn, tôi có thể giúp gì?", reply)

	// System instruction được gửi riêng, không nằm trong contents
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "Bạn là trợ lý hỗ trợ khách hàng", captured.SystemInstruction.Parts[0].Text)

	// Turn model mở đầu phải bị cắt trước khi gửi
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "user", captured.Contents[0].Role)
}

// TestGenerateReplyEmptyCandidates kiểm tra response không có candidate trả về chuỗi rỗng, không lỗi
func TestGenerateReplyEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", "gemini-2.0-flash", srv.URL)

	reply, err := client.GenerateReply(context.Background(), "", []Turn{{Role: "user", Text: "hi"}})
	require.NoError(t, err)
	assert.Empty(t, reply)
}

// TestNewGeminiClientBaseURL kiểm tra chuẩn hóa base URL: mặc định và host
// Google để trần đều phải có segment /v1beta, URL tùy chỉnh giữ nguyên
func TestNewGeminiClientBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "rỗng dùng mặc định",
			baseURL: "",
			want:    "https://generativelanguage.googleapis.com/v1beta",
		},
		{
			name:    "host Google để trần được bổ sung v1beta",
			baseURL: "https://generativelanguage.googleapis.com",
			want:    "https://generativelanguage.googleapis.com/v1beta",
		},
		{
			name:    "host Google có dấu gạch cuối",
			baseURL: "https://generativelanguage.googleapis.com/",
			want:    "https://generativelanguage.googleapis.com/v1beta",
		},
		{
			name:    "URL đã có v1beta giữ nguyên",
			baseURL: "https://generativelanguage.googleapis.com/v1beta",
			want:    "https://generativelanguage.googleapis.com/v1beta",
		},
		{
			name:    "URL tùy chỉnh giữ nguyên",
			baseURL: "http://127.0.0.1:9999/v1beta",
			want:    "http://127.0.0.1:9999/v1beta",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewGeminiClient("test-key", "gemini-2.0-flash", tt.baseURL)
			assert.Equal(t, tt.want, client.baseURL)
		})
	}
}

// TestGenerateReplyRequestPath kiểm tra đường dẫn generateContent dựng từ base URL
func TestGenerateReplyRequestPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", "gemini-2.0-flash", srv.URL+"/v1beta")

	_, err := client.GenerateReply(context.Background(), "", []Turn{{Role: "user", Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
}

// TestGenerateReplyProviderError kiểm tra status khác 200 trả về lỗi
func TestGenerateReplyProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", "gemini-2.0-flash", srv.URL)

	_, err := client.GenerateReply(context.Background(), "", []Turn{{Role: "user", Text: "hi"}})
	assert.Error(t, err)
}
