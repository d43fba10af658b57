package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abadojack/whatlanggo"
)

const fallbackText = "Sorry, I could not fetch a response. Please try again."

type Request struct {
	Query        string `json:"query"`
	SessionID    string `json:"sessionId"`
	LanguageCode string `json:"languageCode"`
	UserName     string `json:"userName"`
}

type Reply struct {
	Intent   string        `json:"intent"`
	Messages []Fulfillment `json:"messages"`
}

type response struct {
	FulfillmentMessages []json.RawMessage `json:"fulfillmentMessages"`
}

// Client calls the chatbot backend. Every failure mode (timeout, bad
// status, malformed body) is absorbed here: callers always get a usable
// Reply, at worst the fallback text.
type Client struct {
	log      *slog.Logger
	http     *http.Client
	endpoint string
}

func NewClient(log *slog.Logger, endpoint string, timeout time.Duration) *Client {
	return &Client{
		log:      log,
		http:     &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// Ask sends a query and parses the fulfillment messages. A missing
// language code is filled in by detection on the query text.
func (c *Client) Ask(ctx context.Context, request Request) Reply {
	if request.LanguageCode == "" {
		request.LanguageCode = detectLanguage(request.Query)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return c.fallback("marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fallback("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return c.fallback("call chatbot backend", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return c.fallback("chatbot backend status", fmt.Errorf("status %d", res.StatusCode))
	}

	var decoded response
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return c.fallback("decode response", err)
	}
	intent, messages, err := parseFulfillments(decoded.FulfillmentMessages)
	if err != nil {
		return c.fallback("parse fulfillments", err)
	}
	return Reply{Intent: intent, Messages: messages}
}

func (c *Client) fallback(step string, err error) Reply {
	c.log.Warn("Chatbot call degraded to fallback", "step", step, "error", err)
	return Reply{Messages: []Fulfillment{{Kind: KindText, Text: fallbackText}}}
}

// detectLanguage returns the ISO 639-1 code of the query text, or "en"
// when detection is inconclusive.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "en"
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return "en"
}
