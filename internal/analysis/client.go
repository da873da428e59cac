package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

const maxErrorBody = 512

// Client calls the classification service over HTTP. Each call is a single
// attempt.
type Client struct {
	endpoint string
	timeout  time.Duration
}

// NewClient builds a client for cfg.Endpoint().
func NewClient(cfg config.AnalysisConfig) *Client {
	return &Client{endpoint: cfg.Endpoint(), timeout: cfg.Timeout()}
}

// Analyze implements service.Analyzer. The call is bounded by the client
// timeout or the context deadline, whichever is sooner.
func (c *Client) Analyze(ctx context.Context, message string) (domain.AnalysisResult, error) {
	timeout, err := c.callTimeout(ctx)
	if err != nil {
		return domain.AnalysisResult{}, &UpstreamError{Err: err}
	}

	agent := fiber.Post(c.endpoint).JSON(dto.AnalyzeRequest{Message: message})
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return domain.AnalysisResult{}, &UpstreamError{Err: err}
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return domain.AnalysisResult{}, &UpstreamError{Err: errors.Join(errs...)}
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return domain.AnalysisResult{}, &UpstreamError{StatusCode: status, Err: fmt.Errorf("response body: %s", truncate(body))}
	}

	var resp dto.AnalysisResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AnalysisResult{}, &UpstreamError{StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	result, err := resp.ToDomain()
	if err != nil {
		return domain.AnalysisResult{}, &UpstreamError{StatusCode: status, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return result, nil
}

func (c *Client) callTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
