package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/config"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	"github.com/shopspring/decimal"
)

const gatewayName = "razorpay"

var paisePerRupee = decimal.NewFromInt(100)

type razorpayClient struct {
	client *http.Client
	cfg    config.Razorpay
}

func NewRazorpayClient(cfg config.Razorpay) *razorpayClient {
	return &razorpayClient{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

func (c *razorpayClient) KeyID() string {
	return c.cfg.KeyID
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderResponse struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	AmountDue int64  `json:"amount_due"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens a Razorpay order for amount. Amounts travel in paise.
func (c *razorpayClient) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (entities.GatewayOrder, error) {
	body := createOrderRequest{
		Amount:         amount.Mul(paisePerRupee).Round(0).IntPart(),
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return entities.GatewayOrder{}, fmt.Errorf("failed to encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.URL, "/")+"/orders", bytes.NewReader(payload))
	if err != nil {
		return entities.GatewayOrder{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return entities.GatewayOrder{}, &entities.GatewayError{Gateway: gatewayName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return entities.GatewayOrder{}, &entities.GatewayError{
			Gateway:    gatewayName,
			StatusCode: resp.StatusCode,
			Err:        readError(resp.Body),
		}
	}

	var res orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return entities.GatewayOrder{}, &entities.GatewayError{Gateway: gatewayName, StatusCode: resp.StatusCode, Err: err}
	}

	due := res.AmountDue
	if due == 0 {
		due = res.Amount
	}
	return entities.GatewayOrder{
		ID:        res.ID,
		AmountDue: decimal.NewFromInt(due).Div(paisePerRupee),
		Currency:  res.Currency,
		Receipt:   res.Receipt,
	}, nil
}

// VerifySignature checks the checkout signature, an HMAC-SHA256 of
// "<order id>|<payment id>" keyed with the key secret.
func (c *razorpayClient) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	expected := Sign(c.cfg.KeySecret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign returns the hex signature Razorpay checkout produces for a payment.
func Sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func readError(r io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var res errorResponse
	if err := json.Unmarshal(raw, &res); err == nil && res.Error.Description != "" {
		return fmt.Errorf("%s: %s", res.Error.Code, res.Error.Description)
	}
	return errors.New(strings.TrimSpace(string(raw)))
}
