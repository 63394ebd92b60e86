// internal/infra/supercell/client.go
package supercell

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ggsel_notification_bot/internal/app"
)

const DefaultBaseURL = "https://id.supercell.com"

const pinAuthPath = "/api/account/v2/pinAuthentication.start"

// signedHeaderNames is the fixed order the RFP signature covers.
var signedHeaderNames = []string{"Authorization", "User-Agent", "X-Supercell-Device-Id"}

// Client implements app.PinAuthClient against the Supercell ID service.
// Every request is signed with the RFPv1 scheme the mobile clients use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logrus.Entry
}

func NewClient(baseURL string, logger *logrus.Entry) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// StartPinAuth asks the identity service to email a login code. Returns
// app.ErrPinAuthRejected when the service answers with ok=false.
func (c *Client) StartPinAuth(ctx context.Context, game, email, captchaToken string) error {
	profile, ok := GameProfileFor(game)
	if !ok {
		return fmt.Errorf("%w: %s", app.ErrUnknownGame, game)
	}

	form := url.Values{}
	form.Set("scope", "account/connect")
	form.Set("identifier", email)
	form.Set("identifierType", "EMAIL")
	form.Set("application", game+"-prod")
	form.Set("recaptchaToken", captchaToken)
	form.Set("recaptchaSiteKey", profile.SiteKey)
	form.Set("intent", "LOGIN")
	body := form.Encode()

	headers := map[string]string{
		"User-Agent":            profile.UserAgent,
		"Accept-Language":       "ru",
		"Accept-Encoding":       "gzip, deflate, br",
		"Content-Length":        strconv.Itoa(len(body)),
		"Host":                  "id.supercell.com",
		"X-Supercell-Device-Id": uuid.NewString(),
		"Content-Type":          "application/x-www-form-urlencoded; charset=utf-8",
		"Connection":            "keep-alive",
	}
	ts := time.Now().Unix()
	signature, err := Sign(ts, pinAuthPath, http.MethodPost, body, headers, profile)
	if err != nil {
		return fmt.Errorf("failed to sign pin auth request: %w", err)
	}
	headers["X-Supercell-Request-Forgery-Protection"] = signature

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pinAuthPath, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build pin auth request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pin auth request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode pin auth response: %w", err)
	}
	if !parsed.OK {
		c.logger.WithFields(logrus.Fields{
			"game":  game,
			"error": parsed.Error,
		}).Warn("Pin auth request declined")
		return app.ErrPinAuthRejected
	}
	return nil
}

// Sign produces the RFPv1 request signature: an HMAC-SHA256 over the
// timestamp, method, path, body and the values of the signed headers that
// are present, keyed with the game's RFP key and encoded as unpadded
// url-safe base64.
func Sign(timestamp int64, path, method, body string, headers map[string]string, profile GameProfile) (string, error) {
	key, err := hex.DecodeString(profile.RFPKey)
	if err != nil {
		return "", fmt.Errorf("invalid RFP key: %w", err)
	}

	var headerNames strings.Builder
	var headerValues strings.Builder
	for _, name := range signedHeaderNames {
		value, ok := headers[name]
		if !ok {
			continue
		}
		lower := strings.ToLower(name)
		if headerNames.Len() > 0 {
			headerNames.WriteString(";")
		}
		headerNames.WriteString(lower)
		headerValues.WriteString(lower + "=" + value)
	}

	toSign := fmt.Sprintf("%d%s%s%s%s", timestamp, method, path, body, headerValues.String())
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(toSign))
	encoded := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("RFPv1 Timestamp=%d,SignedHeaders=%s,Signature=%s", timestamp, headerNames.String(), encoded), nil
}
