package ledgerApi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	BalancesEndpoint       = "balances"
	ChargesEndpoint        = "charges"
	PendingChargesEndpoint = "charges/pending"

	errCodeNotEnoughTokens = "NOT_ENOUGH_TOKENS"
)

// ErrInsufficientBalance у пользователя не хватает токенов на списание
var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// truncateString обрезает строку до указанной длины
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Client - клиент для работы с леджером токенов
type Client struct {
	cfg        *Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewClient создаёт новый клиент леджера
func NewClient(cfg *Config, log *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Log: log,
	}
}

// buildURL собирает полный URL из BaseURL, ApiVersion и endpoint
func (c *Client) buildURL(endpoint string) string {
	baseURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	return baseURL + "/" + path.Join(c.cfg.ApiVersion, endpoint)
}

// setHeaders устанавливает стандартные заголовки для запросов к леджеру
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.ApiKey)
	}
}

// do выполняет запрос и возвращает статус с телом ответа
func (c *Client) do(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	c.setHeaders(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// apiError собирает ошибку из не-2xx ответа леджера.
// Тело может быть не-JSON, тогда отдаём превью как есть
func (c *Client) apiError(op string, status int, body []byte) error {
	raw := string(body)

	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error == errCodeNotEnoughTokens {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, errResp.Message)
	}

	c.Log.Debug("ledger API returned non-2xx status",
		"op", op,
		"status_code", status,
		"body_preview", truncateString(raw, 200),
	)
	return fmt.Errorf("ledger API error [op=%s status=%d]: %s", op, status, truncateString(raw, 500))
}

// GetBalance возвращает текущий баланс пользователя
func (c *Client) GetBalance(ctx context.Context, userID uuid.UUID) (*BalanceResponse, error) {
	url := c.buildURL(path.Join(BalancesEndpoint, userID.String()))

	status, body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.apiError("get_balance", status, body)
	}

	var balanceResp BalanceResponse
	if err := json.Unmarshal(body, &balanceResp); err != nil {
		return nil, fmt.Errorf("ledger API unmarshal failed [status=%d]: %w", status, err)
	}

	return &balanceResp, nil
}

// OpenCharge атомарно открывает списание.
// Нехватка токенов отдаётся как ErrInsufficientBalance
func (c *Client) OpenCharge(ctx context.Context, req OpenChargeRequest) (*OpenChargeResponse, error) {
	url := c.buildURL(ChargesEndpoint)

	status, body, err := c.do(ctx, http.MethodPost, url, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, c.apiError("open_charge", status, body)
	}

	var chargeResp OpenChargeResponse
	if err := json.Unmarshal(body, &chargeResp); err != nil {
		return nil, fmt.Errorf("ledger API unmarshal failed [status=%d]: %w", status, err)
	}

	return &chargeResp, nil
}

// SettleCharge закрепляет списание за артефактом
func (c *Client) SettleCharge(ctx context.Context, chargeID, artifactID uuid.UUID) error {
	url := c.buildURL(path.Join(ChargesEndpoint, chargeID.String(), "settle"))

	status, body, err := c.do(ctx, http.MethodPost, url, SettleChargeRequest{ArtifactID: artifactID.String()})
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return c.apiError("settle_charge", status, body)
	}

	return nil
}

// RefundCharge возвращает токены по открытому списанию
func (c *Client) RefundCharge(ctx context.Context, chargeID uuid.UUID) error {
	url := c.buildURL(path.Join(ChargesEndpoint, chargeID.String(), "refund"))

	status, body, err := c.do(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return c.apiError("refund_charge", status, body)
	}

	return nil
}

// ListPendingCharges возвращает списания, зависшие в pending дольше olderThan
func (c *Client) ListPendingCharges(ctx context.Context, olderThan time.Duration) (*PendingChargesResponse, error) {
	reqURL := c.buildURL(PendingChargesEndpoint)

	query := url.Values{}
	query.Set("older_than", olderThan.String())
	reqURL += "?" + query.Encode()

	status, body, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.apiError("list_pending_charges", status, body)
	}

	var pendingResp PendingChargesResponse
	if err := json.Unmarshal(body, &pendingResp); err != nil {
		return nil, fmt.Errorf("ledger API unmarshal failed [status=%d]: %w", status, err)
	}

	return &pendingResp, nil
}
