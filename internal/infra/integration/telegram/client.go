package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Client fala com o Bot API por HTTP puro, no mesmo estilo dos outros
// clientes de integração.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	return &Client{
		token:   os.Getenv("TELEGRAM_TOKEN"),
		baseURL: "https://api.telegram.org",
		// Timeout folgado por causa do long-poll do getUpdates.
		http: &http.Client{Timeout: 65 * time.Second},
	}
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.token == "" {
		log.Println("⚠️ Telegram: TELEGRAM_TOKEN não configurado")
		return fmt.Errorf("telegram não configurado")
	}

	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// SendDocument sobe o arquivo por multipart (o Bot API não aceita JSON
// para upload).
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename, caption string, doc io.Reader) error {
	if c.token == "" {
		return fmt.Errorf("telegram não configurado")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return err
		}
	}

	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, doc); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req)
}

// GetUpdates faz long-poll de até `timeout` segundos.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	if c.token == "" {
		return nil, fmt.Errorf("telegram não configurado")
	}

	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(timeout))
	q.Set("allowed_updates", `["message"]`)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram api retornou %d: %.200s", resp.StatusCode, string(respBody))
	}

	var result updatesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates respondeu ok=false")
	}

	return result.Result, nil
}

func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	if c.token == "" {
		return fmt.Errorf("telegram não configurado")
	}

	body, _ := json.Marshal(map[string]string{"url": webhookURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("setWebhook"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req); err != nil {
		return err
	}
	log.Printf("✅ Telegram: webhook registrado em %s", webhookURL)
	return nil
}

func (c *Client) Configured() bool {
	return c.token != ""
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("❌ Telegram: erro na requisição: %v", err)
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ Telegram: API retornou status %d: %.200s", resp.StatusCode, string(respBody))
		return fmt.Errorf("telegram api error: %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}
	if !result.OK {
		log.Printf("❌ Telegram: erro na API: %s (code %d)", result.Description, result.ErrorCode)
		return fmt.Errorf("telegram: %s", result.Description)
	}

	return nil
}
