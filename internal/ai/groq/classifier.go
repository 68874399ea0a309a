// Package groq implements the Classifier interface against Groq's
// OpenAI-compatible chat API.
package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/songzhibin97/tokenlab/internal/models"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
)

// GroqClassifier implements the Classifier interface using Groq
type GroqClassifier struct {
	client *openai.Client
	model  string
}

// NewGroqClassifier creates a new Groq classifier instance
func NewGroqClassifier(apiKey, baseURL, model string) *GroqClassifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &GroqClassifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// ClassifyToken implements the Classifier interface
func (g *GroqClassifier) ClassifyToken(ctx context.Context, symbol, name, address string) (*models.Classification, error) {
	prompt := fmt.Sprintf(`判断以下代币是否为meme币:
代币符号: %s
代币名称: %s
合约地址: %s

meme币的特征：以网络梗、动物、名人为主题，无实际技术用途，靠社区炒作驱动。
严肃项目的特征：有明确的协议功能、基础设施用途或治理目的。

输出格式为JSON:
{
    "is_meme": bool,
    "confidence": int,
    "reasoning": "判断理由"
}
confidence为0-100的整数。`, symbol, name, address)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "你是一个专业的加密货币分析师，擅长识别meme币。请严格按照要求的JSON格式输出判断结果。",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to classify token: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from api")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var verdict struct {
		IsMeme     bool   `json:"is_meme"`
		Confidence int    `json:"confidence"`
		Reasoning  string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse classification result: %w", err)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 100 {
		return nil, fmt.Errorf("classification confidence %d out of range", verdict.Confidence)
	}

	return &models.Classification{
		IsMeme:     verdict.IsMeme,
		Confidence: verdict.Confidence,
		Reasoning:  verdict.Reasoning,
	}, nil
}
