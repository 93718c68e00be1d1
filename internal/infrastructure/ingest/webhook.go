package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/jimlawless/whereami"
)

const defaultTimeout = 15 * time.Second

var _ usecase.IngestInfra = (*Webhook)(nil)

type webhookRequest struct {
	Path string `json:"path"`
}

// Webhook дергает HTTP-точку входа конвейера построения данных.
type Webhook struct {
	client *http.Client
	url    string
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Webhook{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// RequestIngest отправляет POST {"path": ...}. Любой ответ не 2xx считается ошибкой.
func (w *Webhook) RequestIngest(ctx context.Context, req *usecase.IngestReq) error {
	body, err := json.Marshal(webhookRequest{Path: req.Path})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("ingest webhook status %d: %s", resp.StatusCode, snippet))
	}

	return nil
}
