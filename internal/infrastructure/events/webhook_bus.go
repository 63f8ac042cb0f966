package events

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
)

var _ ports.EventBus = (*WebhookBus)(nil)

// WebhookConfig opciones del bus por webhook (servidor de suscriptores en tiempo real).
type WebhookConfig struct {
	URL     string
	Secret  string // se envía como Bearer si no está vacío
	Timeout time.Duration
}

// WebhookBus entrega cada evento con un POST JSON al endpoint configurado.
type WebhookBus struct {
	client *resty.Client
	path   string
}

// NewWebhookBus construye el bus.
func NewWebhookBus(cfg WebhookConfig) *WebhookBus {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.Secret != "" {
		client.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Secret))
	}
	return &WebhookBus{client: client, path: strings.TrimSuffix(cfg.URL, "/")}
}

func (b *WebhookBus) Publish(ctx context.Context, ev ports.Event) error {
	body, err := encode(ev)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", ev.Topic, err)
	}
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("X-Event-Topic", ev.Topic).
		SetBody(body).
		Post(b.path)
	if err != nil {
		return fmt.Errorf("enviar webhook %s: %w", ev.Topic, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook %s respondió %d: %s", ev.Topic, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

func (b *WebhookBus) Close() error { return nil }
