package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/storefront-next/internal/logger"
)

var (
	ErrConfigInvalid     = errors.New("shiprocket config invalid")
	ErrAuthFailed        = errors.New("shiprocket auth failed")
	ErrRequestFailed     = errors.New("shiprocket request failed")
	ErrResponseInvalid   = errors.New("shiprocket response invalid")
	ErrTrackingNotFound  = errors.New("shiprocket tracking not found")
	errTokenUnauthorized = errors.New("shiprocket token rejected")
)

const (
	defaultBaseURL  = "https://apiv2.shiprocket.in"
	defaultTimeout  = 12 * time.Second
	defaultTokenTTL = 216 * time.Hour
)

// Config Shiprocket API 配置
type Config struct {
	BaseURL  string
	Email    string
	Password string
	TokenTTL time.Duration
	Timeout  time.Duration
}

// TrackingResult 运单跟踪结果
type TrackingResult struct {
	AWB           string
	CurrentStatus string
	CourierName   string
	EDD           string
	PickupDate    string
	DeliveredDate string
	TrackURL      string
	Raw           map[string]interface{}
}

// CourierStatus 跟踪结果对应的状态码
func (r *TrackingResult) CourierStatus() string {
	if r == nil {
		return ""
	}
	return LabelToCourierStatus(r.CurrentStatus)
}

// Client Shiprocket API 客户端，令牌由 TokenCache 持有
type Client struct {
	cfg        Config
	tokens     TokenCache
	httpClient *http.Client
	now        func() time.Time
	loginMu    sync.Mutex
}

// NewClient 创建 Shiprocket 客户端
func NewClient(cfg Config, tokens TokenCache) *Client {
	cfg.normalize()
	if tokens == nil {
		tokens = NewMemoryTokenCache()
	}
	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Email) == "" || strings.TrimSpace(cfg.Password) == "" {
		return fmt.Errorf("%w: email and password are required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.BaseURL)); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// Login 登录并写入令牌缓存
func (c *Client) Login(ctx context.Context) (Token, error) {
	if err := ValidateConfig(c.cfg); err != nil {
		return Token{}, err
	}
	body, err := json.Marshal(map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	})
	if err != nil {
		return Token{}, fmt.Errorf("%w: marshal login request failed", ErrAuthFailed)
	}
	respBody, statusCode, err := c.doJSONRequest(ctx, http.MethodPost, "/v1/external/auth/login", "", body)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return Token{}, fmt.Errorf("%w: login status %d", ErrAuthFailed, statusCode)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Token{}, fmt.Errorf("%w: decode login response failed", ErrAuthFailed)
	}
	value := strings.TrimSpace(readString(parsed, "token"))
	if value == "" {
		return Token{}, fmt.Errorf("%w: token is empty", ErrAuthFailed)
	}
	token := Token{Value: value, ExpiresAt: c.now().Add(c.cfg.TokenTTL)}
	if err := c.tokens.Set(ctx, token); err != nil {
		logger.Warnw("shiprocket_token_cache_set_failed", "error", err)
	}
	return token, nil
}

// TrackByAWB 按运单号查询物流轨迹
func (c *Client) TrackByAWB(ctx context.Context, awb string) (*TrackingResult, error) {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return nil, fmt.Errorf("%w: awb is empty", ErrConfigInvalid)
	}
	endpoint := "/v1/external/courier/track/awb/" + url.PathEscape(awb)
	respBody, err := c.authorizedGet(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	result, err := parseTrackingResponse(respBody)
	if err != nil {
		return nil, err
	}
	if result.AWB == "" {
		result.AWB = awb
	}
	return result, nil
}

func (c *Client) authorizedGet(ctx context.Context, endpoint string) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		respBody, statusCode, err := c.doJSONRequest(ctx, http.MethodGet, endpoint, token, nil)
		if err != nil {
			return nil, err
		}
		switch {
		case statusCode == http.StatusUnauthorized:
			logger.Warnw("shiprocket_token_rejected", "endpoint", endpoint, "attempt", attempt+1)
			if err := c.tokens.Invalidate(ctx); err != nil {
				logger.Warnw("shiprocket_token_cache_invalidate_failed", "error", err)
			}
			continue
		case statusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrTrackingNotFound, endpoint)
		case statusCode < 200 || statusCode >= 300:
			return nil, fmt.Errorf("%w: status %d", ErrResponseInvalid, statusCode)
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrAuthFailed, errTokenUnauthorized)
}

// accessToken 优先使用缓存令牌，过期或缺失时重新登录
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if token, ok := c.cachedToken(ctx); ok {
		return token.Value, nil
	}
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if token, ok := c.cachedToken(ctx); ok {
		return token.Value, nil
	}
	token, err := c.Login(ctx)
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

func (c *Client) cachedToken(ctx context.Context) (Token, bool) {
	token, ok, err := c.tokens.Get(ctx)
	if err != nil {
		logger.Warnw("shiprocket_token_cache_get_failed", "error", err)
		return Token{}, false
	}
	if !ok || !token.Valid(c.now()) {
		return Token{}, false
	}
	return token, true
}

func (c *Client) doJSONRequest(ctx context.Context, method, endpoint, token string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := c.withDefaultTimeout(ctx)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return respBody, resp.StatusCode, nil
}

func (c *Client) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

func parseTrackingResponse(body []byte) (*TrackingResult, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode tracking response failed", ErrResponseInvalid)
	}
	data, ok := raw["tracking_data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: tracking_data is missing", ErrResponseInvalid)
	}
	if msg := strings.TrimSpace(readString(data, "error")); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrTrackingNotFound, msg)
	}
	result := &TrackingResult{
		TrackURL: strings.TrimSpace(readString(data, "track_url")),
		EDD:      strings.TrimSpace(readString(data, "etd")),
		Raw:      raw,
	}
	tracks, _ := data["shipment_track"].([]interface{})
	if len(tracks) > 0 {
		if track, ok := tracks[0].(map[string]interface{}); ok {
			result.AWB = strings.TrimSpace(readString(track, "awb_code"))
			result.CurrentStatus = strings.TrimSpace(readString(track, "current_status"))
			result.CourierName = strings.TrimSpace(readString(track, "courier_name"))
			result.PickupDate = strings.TrimSpace(readString(track, "pickup_date"))
			result.DeliveredDate = strings.TrimSpace(readString(track, "delivered_date"))
			if edd := strings.TrimSpace(readString(track, "edd")); edd != "" {
				result.EDD = edd
			}
		}
	}
	if result.CurrentStatus == "" {
		return nil, fmt.Errorf("%w: current_status is missing", ErrResponseInvalid)
	}
	return result, nil
}
