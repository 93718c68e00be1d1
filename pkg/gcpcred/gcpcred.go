// Package gcpcred загружает сервисный аккаунт GCP из base64-строки окружения.
package gcpcred

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/jimlawless/whereami"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// CloudPlatformScope — scope для Discovery Engine и прочих API платформы.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Credential — разобранный ключ сервисного аккаунта.
type Credential struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`

	raw []byte
}

// Load декодирует base64 JSON ключа и проверяет обязательные поля.
func Load(encoded string) (*Credential, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("service account is empty"))
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("decode service account: %w", err))
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("parse service account: %w", err))
	}

	if cred.ClientEmail == "" || cred.PrivateKey == "" {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("service account must contain client_email and private_key"))
	}
	cred.raw = raw

	return &cred, nil
}

// ClientOption возвращает опцию для клиентов google-cloud-go.
func (c *Credential) ClientOption() option.ClientOption {
	return option.WithCredentialsJSON(c.raw)
}

// TokenSource выдаёт OAuth2 токены сервисного аккаунта (JWT flow).
func (c *Credential) TokenSource(ctx context.Context, scopes ...string) (oauth2.TokenSource, error) {
	if len(scopes) == 0 {
		scopes = []string{CloudPlatformScope}
	}

	cfg, err := google.JWTConfigFromJSON(c.raw, scopes...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return oauth2.ReuseTokenSource(nil, cfg.TokenSource(ctx)), nil
}
