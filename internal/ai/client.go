// Package ai chứa client gọi Gemini generateContent và orchestrator
// điều phối việc sinh câu trả lời AI cho các phiên chat.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"live_support/internal/logger"
)

// Turn là một lượt hội thoại role-tagged gửi cho provider.
// Role theo quy ước Gemini: "user" hoặc "model".
type Turn struct {
	Role string
	Text string
}

// TextGenerator là interface provider sinh văn bản; GeminiClient là implementation
// thật, test dùng fake.
type TextGenerator interface {
	GenerateReply(ctx context.Context, systemInstruction string, turns []Turn) (string, error)
}

// GeminiClient gọi Gemini REST API (generateContent).
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiClient tạo client Gemini với API key và model cho trước.
// baseURL phải chứa sẵn segment phiên bản API; riêng host Google để trần
// (không path) được tự chuẩn hóa — endpoint generateContent nằm dưới /v1beta.
func NewGeminiClient(apiKey, model, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "https://generativelanguage.googleapis.com" {
		baseURL += "/v1beta"
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Cấu trúc request/response của Gemini generateContent
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NormalizeTurns cắt bỏ dải turn role=model ở đầu lịch sử để hội thoại luôn
// mở đầu bằng một turn user. Gemini yêu cầu luân phiên role bắt đầu từ user;
// đây là ràng buộc của provider, không phải bất biến của domain.
func NormalizeTurns(turns []Turn) []Turn {
	start := 0
	for start < len(turns) && turns[start].Role == "model" {
		start++
	}
	return turns[start:]
}

// GenerateReply gọi Gemini với system instruction và lịch sử hội thoại, trả về text đã trim.
func (g *GeminiClient) GenerateReply(ctx context.Context, systemInstruction string, turns []Turn) (string, error) {
	log := logger.GetAppLogger()

	turns = NormalizeTurns(turns)

	reqBody := geminiRequest{
		Contents: make([]geminiContent, 0, len(turns)),
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		}
	}
	for _, t := range turns {
		reqBody.Contents = append(reqBody.Contents, geminiContent{
			Role:  t.Role,
			Parts: []geminiPart{{Text: t.Text}},
		})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"model": g.model,
		}).Error("🤖 [GEMINI] Lỗi khi gọi Gemini API")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.WithFields(map[string]interface{}{
			"model":      g.model,
			"statusCode": resp.StatusCode,
			"response":   string(bodyBytes),
		}).Error("🤖 [GEMINI] Gemini API trả về lỗi")
		return "", fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return strings.TrimSpace(sb.String()), nil
}
