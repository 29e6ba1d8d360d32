package genApi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// truncateString обрезает строку до указанной длины
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Client - клиент для работы с API генерации изображений
type Client struct {
	cfg        *Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewClient создаёт новый клиент провайдера генерации.
// Транспортный таймаут берётся с запасом над доменным:
// доменный срабатывает первым и даёт каноничную ошибку таймаута
func NewClient(cfg *Config, log *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: timeout + 15*time.Second,
		},
		Log: log,
	}
}

// buildURL собирает URL generateContent для модели
func (c *Client) buildURL(model string) string {
	baseURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/models/%s:generateContent", baseURL, model)
}

// setHeaders устанавливает стандартные заголовки для запросов к провайдеру
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ApiKey != "" {
		req.Header.Set("x-goog-api-key", c.cfg.ApiKey)
	}
}

// buildRequest собирает части запроса: текст задания, исходник, референс
func buildRequest(req ImageRequest) generateRequest {
	parts := []generatePart{
		{Text: req.Prompt},
	}

	if len(req.Image) > 0 {
		parts = append(parts, generatePart{
			InlineData: &inlineData{
				MimeType: req.ImageType,
				Data:     base64.StdEncoding.EncodeToString(req.Image),
			},
		})
	}

	if len(req.RefImage) > 0 {
		parts = append(parts, generatePart{
			InlineData: &inlineData{
				MimeType: req.RefType,
				Data:     base64.StdEncoding.EncodeToString(req.RefImage),
			},
		})
	}

	gr := generateRequest{
		Contents: []generateContent{
			{Role: "user", Parts: parts},
		},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}

	if req.AspectRatio != "" {
		gr.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio}
	}

	return gr
}

// GenerateImage выполняет генерацию и возвращает первую картинку из ответа.
// Не-2xx ответ отдаётся как *APIError, 2xx без картинки как ErrNoImage
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	jsonData, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	url := c.buildURL(req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	c.setHeaders(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Log.Debug("generation API returned non-2xx status",
			"model", req.Model,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(body), 200),
		)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       truncateString(string(body), 500),
		}
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		c.Log.Debug("failed to unmarshal generation API response",
			"error", err,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(body), 200),
		)
		return nil, fmt.Errorf("generation API unmarshal failed [status=%d]: %w", resp.StatusCode, err)
	}

	result, err := firstImage(&genResp)
	if err != nil {
		c.Log.Debug("generation API response has no image",
			"model", req.Model,
			"candidates", len(genResp.Candidates),
		)
		return nil, err
	}

	if result.Model == "" {
		result.Model = req.Model
	}

	return result, nil
}

// firstImage находит и декодирует первую inline-картинку в ответе
func firstImage(resp *generateResponse) (*ImageResult, error) {
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}

			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: base64 decode failed: %s", ErrNoImage, err)
			}

			return &ImageResult{
				Data:     data,
				MimeType: part.InlineData.MimeType,
				Model:    resp.ModelVersion,
			}, nil
		}
	}
	return nil, ErrNoImage
}
