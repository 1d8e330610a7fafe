package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Client publica leads no Web App do Google Apps Script que alimenta a
// planilha. Tudo aqui é best-effort: falha vira log, nunca aborta o fluxo.
type Client struct {
	webappURL string
	http      *http.Client
}

func NewClient() *Client {
	return &Client{
		webappURL: os.Getenv("SHEET_WEBAPP_URL"),
		http:      &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) Forward(ctx context.Context, payload LeadPayload, note string) Result {
	if c.webappURL == "" {
		log.Println("⚠️ Planilha: SHEET_WEBAPP_URL não configurada")
		return Err("SHEET_WEBAPP_URL não configurada")
	}

	payload.Note = note

	body, err := json.Marshal(payload)
	if err != nil {
		return Err(fmt.Sprintf("erro ao serializar payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webappURL, bytes.NewReader(body))
	if err != nil {
		return Err(fmt.Sprintf("erro ao criar requisição: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Err(fmt.Sprintf("erro ao enviar para a planilha: %v", err))
	}
	defer resp.Body.Close()

	// Apps Script responde 200 ou redireciona pro resultado — o texto só
	// interessa para depuração.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	log.Printf("📊 Planilha respondeu %d [%s]: %.120s", resp.StatusCode, note, string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return Err(fmt.Sprintf("planilha retornou status %d", resp.StatusCode))
	}

	return Ok()
}
