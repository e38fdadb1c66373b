package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const contentType = "application/json"

// envelope is the common Bot API response wrapper.
type envelope struct {
	OK          bool        `json:"ok"`
	Result      interface{} `json:"result"`
	ErrorCode   int         `json:"error_code"`
	Description string      `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	return c.do(req, method, target)
}

func (c *Client) postFile(ctx context.Context, method string, fields map[string]string, field, fileName string, data []byte) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			return err
		}
	}

	part, err := w.CreateFormFile(field, fileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), &b)
	if err != nil {
		return err
	}
	req = c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, method, nil)
}

func (c *Client) do(req *http.Request, method string, target interface{}) error {
	resp, err := c.request(req, method)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return fmt.Errorf("telegram %s: bad status %s: %w", method, resp.Status, err)
	}

	if !env.OK {
		return &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
	}

	if target == nil {
		return nil
	}
	if err := decodeResult(env.Result, target); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// decodeResult maps the generic result onto target using the json tags.
func decodeResult(result, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(result)
}

func (c *Client) download(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req = c.setHeaders(req)

	resp, err := c.request(req, "download")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}

func (c *Client) request(req *http.Request, method string) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", method))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// The URL carries the bot token.
		return nil, fmt.Errorf("telegram %s: %s", method, redact(err.Error(), c.token))
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	return req
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}
