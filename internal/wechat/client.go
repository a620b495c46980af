package wechat

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/pkg/config"
)

// Client talks to the WeChat platform APIs. It is constructed once and
// injected into the services that need it.
type Client struct {
	cfg    config.WeChatConfig
	http   *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds a WeChat API client from configuration.
func NewClient(cfg config.WeChatConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.weixin.qq.com"
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type apiError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Code2Session exchanges a mini-program login code for the user's openid.
func (c *Client) Code2Session(ctx context.Context, code string) (string, error) {
	if c.cfg.MiniProgramAppID == "" || c.cfg.MiniProgramSecret == "" {
		return "", fmt.Errorf("mini-program credentials not configured")
	}

	params := url.Values{}
	params.Set("appid", c.cfg.MiniProgramAppID)
	params.Set("secret", c.cfg.MiniProgramSecret)
	params.Set("js_code", code)
	params.Set("grant_type", "authorization_code")

	endpoint := c.cfg.APIBaseURL + "/sns/jscode2session?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build jscode2session request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("jscode2session request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read jscode2session response: %w", err)
	}

	var result struct {
		apiError
		OpenID     string `json:"openid"`
		SessionKey string `json:"session_key"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode jscode2session response: %w", err)
	}
	if result.ErrCode != 0 {
		return "", fmt.Errorf("jscode2session failed: errcode=%d errmsg=%s", result.ErrCode, result.ErrMsg)
	}
	if result.OpenID == "" {
		return "", fmt.Errorf("jscode2session returned no openid")
	}
	return result.OpenID, nil
}

// TemplateValue is one field of a template message.
type TemplateValue struct {
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// MiniProgramLink points a template message at a mini-program page.
type MiniProgramLink struct {
	AppID    string `json:"appid"`
	PagePath string `json:"pagepath"`
}

// SendTemplateMessage delivers a template message to one recipient. A false
// return or error is non-fatal to callers; the send is at-most-once.
func (c *Client) SendTemplateMessage(ctx context.Context, openID, templateID string, data map[string]TemplateValue, mini *MiniProgramLink) error {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("acquire access token: %w", err)
	}

	payload := map[string]interface{}{
		"touser":      openID,
		"template_id": templateID,
		"data":        data,
	}
	if mini != nil {
		payload["miniprogram"] = mini
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode template message: %w", err)
	}

	endpoint := c.cfg.APIBaseURL + "/cgi-bin/message/template/send?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build template message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("template message request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var result apiError
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode template message response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("template message rejected: errcode=%d errmsg=%s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

// VerifySignature checks an official-account callback signature.
func (c *Client) VerifySignature(signature, timestamp, nonce string) bool {
	parts := []string{c.cfg.CallbackToken, timestamp, nonce}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:]) == signature
}

// Event is a parsed official-account callback message.
type Event struct {
	XMLName      xml.Name `xml:"xml"`
	MsgType      string   `xml:"MsgType"`
	Event        string   `xml:"Event"`
	FromUserName string   `xml:"FromUserName"`
	ToUserName   string   `xml:"ToUserName"`
	CreateTime   int64    `xml:"CreateTime"`
}

// ParseEvent decodes a callback XML body.
func ParseEvent(data []byte) (*Event, error) {
	var event Event
	if err := xml.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("parse wechat event: %w", err)
	}
	return &event, nil
}

func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("grant_type", "client_credential")
	params.Set("appid", c.cfg.AppID)
	params.Set("secret", c.cfg.Secret)

	endpoint := c.cfg.APIBaseURL + "/cgi-bin/token?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var result struct {
		apiError
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token request failed: errcode=%d errmsg=%s", result.ErrCode, result.ErrMsg)
	}

	expiresIn := result.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 7200
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	// renew a minute early to avoid using a token at the edge of expiry
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	c.mu.Unlock()

	return result.AccessToken, nil
}
