package flickr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"flickrgeo/pkg/config"
	"flickrgeo/pkg/errors"
	"flickrgeo/pkg/logger"
)

// Client represents a Flickr REST API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	logger     logger.Logger
}

// NewClient creates a new Flickr API client
func NewClient(cfg *config.FlickrConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Search performs one flickr.photos.search page request
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	var response SearchResponse
	if err := c.call(ctx, MethodSearch, params.Values(), &response); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("search page received", map[string]interface{}{
		"page":   int(response.Photos.Page),
		"pages":  int(response.Photos.Pages),
		"total":  int(response.Photos.Total),
		"photos": len(response.Photos.Photos),
	})

	return &response.Photos, nil
}

// GetLocation returns the geotag of a single photo
func (c *Client) GetLocation(ctx context.Context, photoID string) (*Location, error) {
	params := url.Values{}
	params.Set("photo_id", photoID)

	var response LocationResponse
	if err := c.call(ctx, MethodGetLocation, params, &response); err != nil {
		if apiErr, ok := errors.AsError(err); ok && apiErr.Type == errors.ErrorTypeAPI &&
			(apiErr.Code == CodePhotoNotFound || apiErr.Code == CodePhotoHasNoLocation) {
			apiErr.Type = errors.ErrorTypeNotFound
		}
		return nil, err
	}

	return &response.Photo.Location, nil
}

// Echo calls flickr.test.echo. A nil error means the API key was accepted.
func (c *Client) Echo(ctx context.Context) error {
	var response echoResponse
	if err := c.call(ctx, MethodEcho, nil, &response); err != nil {
		return err
	}
	if response.Method.Content != MethodEcho {
		return errors.New(errors.ErrorTypeParsing, 0, "unexpected echo reply %q", response.Method.Content)
	}
	return nil
}

// call performs a REST method and decodes its body into target
func (c *Client) call(ctx context.Context, method string, params url.Values, target interface{}) error {
	endpoint := BuildURL(c.baseURL, c.apiKey, method, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	body, err := c.doRequest(req, method)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.parseError(method, body, err)
	}
	if env.Stat != "ok" {
		return c.failError(method, env)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return c.parseError(method, body, err)
	}
	return nil
}

// doRequest sends req and returns the body of a 200 response
func (c *Client) doRequest(req *http.Request, method string) ([]byte, error) {
	start := time.Now()
	c.logger.DebugWithFields("sending API request", map[string]interface{}{
		"method": method,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp, method); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"method":   method,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return body, nil
}

// checkResponseStatus maps non-200 HTTP statuses onto typed errors
func (c *Client) checkResponseStatus(resp *http.Response, method string) error {
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"method": method,
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return errors.New(errors.ErrorTypeAuth, resp.StatusCode, "authentication rejected")
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errors.New(errors.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errors.New(errors.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	default:
		if resp.StatusCode >= 500 {
			c.logger.WarnWithFields("server error", fields)
			return errors.New(errors.ErrorTypeServerError, resp.StatusCode, "server error")
		}
		c.logger.WarnWithFields("unexpected API status", fields)
		return errors.New(errors.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
	}
}

// failError types a stat=fail body by its Flickr error code
func (c *Client) failError(method string, env envelope) error {
	errType := errors.ErrorTypeAPI
	switch env.Code {
	case CodeInvalidKey, CodeLoginFailed, CodePermissionDenied:
		errType = errors.ErrorTypeAuth
	case CodeServiceUnavailable:
		errType = errors.ErrorTypeServerError
	}

	c.logger.DebugWithFields("API call failed", map[string]interface{}{
		"method":  method,
		"code":    env.Code,
		"message": env.Message,
	})
	return errors.New(errType, env.Code, "%s: %s", method, env.Message)
}

func (c *Client) parseError(method string, body []byte, err error) error {
	bodyPreview := string(body)
	if len(bodyPreview) > 200 {
		bodyPreview = bodyPreview[:200] + "..."
	}

	c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
		"method":       method,
		"error":        err.Error(),
		"body_preview": bodyPreview,
	})
	return errors.New(errors.ErrorTypeParsing, 0, "failed to parse %s response: %v", method, err)
}

