package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashgraph-online/token-ledger-go/pkg/shared"
)

const (
	OrderAscending  = "asc"
	OrderDescending = "desc"
)

type Config struct {
	Network    string
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
	Headers    map[string]string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	headers    map[string]string
}

// NewClient creates a mirror client. An empty BaseURL selects the public
// mirror node of the configured network.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = shared.MirrorBaseURL(network)
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid mirror base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid mirror base URL: scheme must be http or https")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid mirror base URL: host is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := make(map[string]string, len(config.Headers))
	for key, value := range config.Headers {
		headers[key] = value
	}

	return &Client{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(config.APIKey),
		headers:    headers,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// TopicMessages lists the messages of topicID matching query, following
// links.next until the listing ends or MaxPages pages have been read.
func (c *Client) TopicMessages(ctx context.Context, topicID string, query MessageQuery) ([]TopicMessage, error) {
	topicID = strings.TrimSpace(topicID)
	if topicID == "" {
		return nil, fmt.Errorf("topic ID is required")
	}
	if query.AfterSequence < 0 {
		return nil, fmt.Errorf("after sequence must not be negative")
	}

	values := url.Values{}
	if query.AfterSequence > 0 {
		values.Set("sequencenumber", "gt:"+strconv.FormatInt(query.AfterSequence, 10))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	order := strings.ToLower(strings.TrimSpace(query.Order))
	if order == "" {
		order = OrderAscending
	}
	if order != OrderAscending && order != OrderDescending {
		return nil, fmt.Errorf("unsupported order %q", query.Order)
	}
	values.Set("order", order)

	next := fmt.Sprintf("/api/v1/topics/%s/messages?%s", url.PathEscape(topicID), values.Encode())
	messages := make([]TopicMessage, 0)
	for pages := 0; next != ""; pages++ {
		if query.MaxPages > 0 && pages >= query.MaxPages {
			break
		}
		var page messagesPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		messages = append(messages, page.Messages...)
		next = page.Links.Next
	}
	return messages, nil
}

// TopicMessage fetches a single message by sequence number. It returns nil
// without an error when the mirror node has no such message.
func (c *Client) TopicMessage(ctx context.Context, topicID string, sequence int64) (*TopicMessage, error) {
	if sequence <= 0 {
		return nil, fmt.Errorf("sequence must be positive")
	}
	messages, err := c.TopicMessages(ctx, topicID, MessageQuery{
		AfterSequence: sequence - 1,
		Limit:         1,
		MaxPages:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 || messages[0].SequenceNumber != sequence {
		return nil, nil
	}
	return &messages[0], nil
}

// DecodeMessageData returns the raw payload of message.
func DecodeMessageData(message TopicMessage) ([]byte, error) {
	if strings.TrimSpace(message.Message) == "" {
		return nil, fmt.Errorf("message %d payload is empty", message.SequenceNumber)
	}
	payload, err := base64.StdEncoding.DecodeString(message.Message)
	if err != nil {
		return nil, fmt.Errorf("message %d payload is not base64: %w", message.SequenceNumber, err)
	}
	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, pathOrURL string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(pathOrURL), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("mirror node request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read mirror node response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("mirror node request failed with status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode mirror node response: %w", err)
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL
}
