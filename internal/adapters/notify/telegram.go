package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTelegramBase = "https://api.telegram.org"
	telegramMaxLen      = 4096
)

// Telegram implementa ports.Notifier enviando el resumen por la Bot API.
// Es best-effort: el caller loguea el error y sigue.
type Telegram struct {
	http         *http.Client
	baseURL      string
	botToken     string
	chatID       string
	onlyActivity bool
	limiter      *rate.Limiter
}

// NewTelegram crea el notificador. Con onlyActivity=true solo envía los ciclos
// que abrieron, cerraron o intentaron una compra live.
func NewTelegram(baseURL, botToken, chatID string, onlyActivity bool) *Telegram {
	if baseURL == "" {
		baseURL = defaultTelegramBase
	}
	return &Telegram{
		http:         &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		botToken:     botToken,
		chatID:       chatID,
		onlyActivity: onlyActivity,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Notify envía FormatSummary del ciclo.
func (t *Telegram) Notify(ctx context.Context, r domain.CycleReport) error {
	if t.onlyActivity && !HasActivity(r) {
		return nil
	}
	return t.Send(ctx, FormatSummary(r))
}

// Send envía un mensaje de texto plano, truncado al máximo de la API.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram.Send: rate limiter: %w", err)
	}
	if r := []rune(text); len(r) > telegramMaxLen {
		text = string(r[:telegramMaxLen-1]) + "…"
	}

	body, err := json.Marshal(map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("telegram.Send: marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram.Send: new request: %w", stripURL(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram.Send: %w", stripURL(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram.Send: status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// stripURL descarta la URL de un *url.Error: lleva el token del bot en el path.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
