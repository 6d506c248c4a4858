// Package clientapi wraps the external client database and OTP API.
//
// In production the base URL points at the customer's real API; for local
// development it points at the co-located mock API under /external/v1.
package clientapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/whatsapp-agent/internal/agent"
	"github.com/ashureev/whatsapp-agent/internal/domain"
)

// Client is an HTTP implementation of the identity directory and OTP
// channel capabilities. Every request carries a bounded timeout so a hung
// upstream surfaces as a fault instead of blocking the conversation.
type Client struct {
	baseURL string
	http    *http.Client
}

var (
	_ agent.IdentityDirectory = (*Client)(nil)
	_ agent.OTPChannel        = (*Client)(nil)
)

// New creates a client for the external API at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type clientInfo struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type otpSendRequest struct {
	ClientID string `json:"client_id"`
}

type otpSendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type otpVerifyRequest struct {
	ClientID string `json:"client_id"`
	OTP      string `json:"otp"`
}

type otpVerifyResponse struct {
	Valid bool `json:"valid"`
}

// LookupByPhone looks up a client by phone number.
// Returns (nil, nil) if no client matches.
func (c *Client) LookupByPhone(ctx context.Context, phone string) (*domain.IdentityRecord, error) {
	endpoint := c.baseURL + "/clients/lookup?phone=" + url.QueryEscape(phone)
	return c.lookup(ctx, endpoint)
}

// LookupByClientID looks up a client by their client-issued code.
// Returns (nil, nil) if no client matches.
func (c *Client) LookupByClientID(ctx context.Context, code string) (*domain.IdentityRecord, error) {
	endpoint := c.baseURL + "/clients/" + url.PathEscape(code)
	return c.lookup(ctx, endpoint)
}

func (c *Client) lookup(ctx context.Context, endpoint string) (*domain.IdentityRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var info clientInfo
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return nil, fmt.Errorf("decode lookup response: %w", err)
		}
		return &domain.IdentityRecord{
			ClientID: info.ClientID,
			Name:     info.Name,
			Email:    info.Email,
		}, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("lookup failed: %s: %s", resp.Status, readBodyPrefix(resp.Body))
	}
}

// SendOTP requests OTP delivery for clientID.
// Returns true if the OTP was dispatched.
func (c *Client) SendOTP(ctx context.Context, clientID string) (bool, error) {
	var out otpSendResponse
	if err := c.post(ctx, "/otp/send", otpSendRequest{ClientID: clientID}, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

// VerifyOTP validates an OTP for clientID.
// Returns true if the OTP is correct and not expired.
func (c *Client) VerifyOTP(ctx context.Context, clientID, otp string) (bool, error) {
	var out otpVerifyResponse
	if err := c.post(ctx, "/otp/verify", otpVerifyRequest{ClientID: clientID, OTP: otp}, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s failed: %s: %s", path, resp.Status, readBodyPrefix(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func readBodyPrefix(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
