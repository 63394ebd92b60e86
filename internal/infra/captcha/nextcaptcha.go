// internal/infra/captcha/nextcaptcha.go
package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"ggsel_notification_bot/internal/app"
	"ggsel_notification_bot/internal/infra/supercell"
)

const DefaultBaseURL = "https://api.nextcaptcha.com"

// pollInterval is the result-polling cadence the solver API expects.
// A variable so tests can shrink the wait.
var pollInterval = 5 * time.Second

// ProxyConfig is forwarded to the solving farm so the captcha is solved
// from the same network the signed request will come from.
type ProxyConfig struct {
	Type     string
	Address  string
	Port     int
	Login    string
	Password string
}

// Solver implements app.CaptchaSolver using the NextCaptcha service:
// create a RecaptchaMobileTask for the game's app, then poll for the
// solution token.
type Solver struct {
	httpClient *http.Client
	baseURL    string
	clientKey  string
	proxy      ProxyConfig
	logger     *logrus.Entry
}

func NewSolver(baseURL, clientKey string, proxy ProxyConfig, logger *logrus.Entry) *Solver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Solver{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		clientKey:  clientKey,
		proxy:      proxy,
		logger:     logger,
	}
}

type createTaskResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorDescription string `json:"errorDescription"`
	TaskID           any    `json:"taskId"`
}

type taskResultResponse struct {
	Status   string `json:"status"`
	Solution struct {
		GRecaptchaResponse string `json:"gRecaptchaResponse"`
	} `json:"solution"`
}

// Solve creates a mobile reCAPTCHA task for the game and blocks until the
// farm produces a token, polling every five seconds. Cancelled contexts
// abort the wait.
func (s *Solver) Solve(ctx context.Context, game string) (string, error) {
	profile, ok := supercell.GameProfileFor(game)
	if !ok {
		return "", fmt.Errorf("%w: %s", app.ErrUnknownGame, game)
	}

	task := map[string]any{
		"type":           "RecaptchaMobileTask",
		"appPackageName": profile.PackageName,
		"appKey":         profile.SiteKey,
		"appAction":      "BEGIN_CONNECT",
		"appDevice":      "Android",
	}
	if s.proxy.Address != "" {
		task["proxyType"] = s.proxy.Type
		task["proxyAddress"] = s.proxy.Address
		task["proxyPort"] = s.proxy.Port
		task["proxyLogin"] = s.proxy.Login
		task["proxyPassword"] = s.proxy.Password
	}

	var created createTaskResponse
	if err := s.post(ctx, "/createTask", map[string]any{
		"clientKey": s.clientKey,
		"task":      task,
	}, &created); err != nil {
		return "", fmt.Errorf("captcha createTask failed: %w", err)
	}
	if created.ErrorID != 0 {
		return "", fmt.Errorf("captcha createTask rejected: %s", created.ErrorDescription)
	}

	s.logger.WithField("task_id", created.TaskID).Debug("Captcha task created, polling for result")

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}

		var result taskResultResponse
		if err := s.post(ctx, "/getTaskResult", map[string]any{
			"clientKey": s.clientKey,
			"taskId":    created.TaskID,
		}, &result); err != nil {
			return "", fmt.Errorf("captcha getTaskResult failed: %w", err)
		}
		if result.Status == "processing" {
			continue
		}

		token := result.Solution.GRecaptchaResponse
		if token == "" {
			return "", fmt.Errorf("captcha task finished with status %q and no solution", result.Status)
		}
		return token, nil
	}
}

func (s *Solver) post(ctx context.Context, path string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
