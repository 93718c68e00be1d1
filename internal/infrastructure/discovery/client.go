// Package discovery: REST-клиент Discovery Engine (поиск и генерация ответа по результатам).
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/DRSN-tech/catalog-gateway/internal/cfg"
	"github.com/DRSN-tech/catalog-gateway/internal/domain"
	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/e"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
	"github.com/jimlawless/whereami"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const (
	pageSize = 10

	// answerPreamble задаёт модели язык и источник формулировок.
	answerPreamble = "Answer in the same language as the user's query. " +
		"Use only wording and facts found in the retrieved search results; do not add outside information."
)

var _ usecase.SearchInfra = (*Client)(nil)

// Client ходит в servingConfigs/default_search движка от имени сервисного аккаунта.
type Client struct {
	http   *http.Client
	cfg    *cfg.SearchCfg
	logger logger.Logger
}

// NewClient: каждый запрос несёт Bearer-токен из ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource, cfg *cfg.SearchCfg, logger logger.Logger) *Client {
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		logger: logger,
	}
}

type searchRequest struct {
	Query              string             `json:"query"`
	PageSize           int                `json:"pageSize"`
	QueryExpansionSpec queryExpansionSpec `json:"queryExpansionSpec"`
	SpellCorrection    spellCorrection    `json:"spellCorrectionSpec"`
	UseLatestData      bool               `json:"useLatestData"`
	LanguageCode       string             `json:"languageCode"`
	UserInfo           userInfo           `json:"userInfo"`
	Session            string             `json:"session"`
}

type queryExpansionSpec struct {
	Condition string `json:"condition"`
}

type spellCorrection struct {
	Mode string `json:"mode"`
}

type userInfo struct {
	TimeZone string `json:"timeZone"`
}

type sessionInfo struct {
	Name    string `json:"name"`
	QueryID string `json:"queryId"`
}

type answerRequest struct {
	Query                answerQuery          `json:"query"`
	Session              string               `json:"session"`
	AnswerGenerationSpec answerGenerationSpec `json:"answerGenerationSpec"`
}

type answerQuery struct {
	Text    string `json:"text"`
	QueryID string `json:"queryId"`
}

type answerGenerationSpec struct {
	IgnoreAdversarialQuery      bool       `json:"ignoreAdversarialQuery"`
	IgnoreNonAnswerSeekingQuery bool       `json:"ignoreNonAnswerSeekingQuery"`
	IncludeCitations            bool       `json:"includeCitations"`
	PromptSpec                  promptSpec `json:"promptSpec"`
}

type promptSpec struct {
	Preamble string `json:"preamble"`
}

type answerResponse struct {
	Answer struct {
		AnswerText string `json:"answerText"`
	} `json:"answer"`
}

// Search выполняет поиск в новой сессии. Поля ответа возвращаются без изменений.
func (c *Client) Search(ctx context.Context, req *usecase.SearchReq) (*usecase.SearchRes, error) {
	body := searchRequest{
		Query:              req.Query,
		PageSize:           pageSize,
		QueryExpansionSpec: queryExpansionSpec{Condition: "AUTO"},
		SpellCorrection:    spellCorrection{Mode: "AUTO"},
		UseLatestData:      true,
		LanguageCode:       c.cfg.LanguageCode,
		UserInfo:           userInfo{TimeZone: c.cfg.TimeZone},
		Session:            c.enginePath() + "/sessions/-",
	}

	var fields map[string]json.RawMessage
	if err := c.post(ctx, c.servingConfigPath()+":search", body, &fields); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var session *domain.SearchSession
	if raw, ok := fields["sessionInfo"]; ok {
		var info sessionInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			c.logger.Warnf("Unexpected sessionInfo in search response: %v", err)
		} else {
			session = &domain.SearchSession{Name: info.Name, QueryID: info.QueryID}
		}
	}

	return usecase.NewSearchRes(fields, session), nil
}

// Answer генерирует сводку по результатам поиска в той же сессии.
func (c *Client) Answer(ctx context.Context, req *usecase.AnswerReq) (*usecase.AnswerRes, error) {
	body := answerRequest{
		Query: answerQuery{
			Text:    req.Query,
			QueryID: req.Session.QueryID,
		},
		Session: req.Session.Name,
		AnswerGenerationSpec: answerGenerationSpec{
			IgnoreAdversarialQuery:      true,
			IgnoreNonAnswerSeekingQuery: true,
			IncludeCitations:            true,
			PromptSpec:                  promptSpec{Preamble: answerPreamble},
		},
	}

	var resp answerResponse
	if err := c.post(ctx, c.servingConfigPath()+":answer", body, &resp); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return usecase.NewAnswerRes(resp.Answer.AnswerText), nil
}

func (c *Client) post(ctx context.Context, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) enginePath() string {
	return fmt.Sprintf("projects/%s/locations/global/collections/default_collection/engines/%s", c.cfg.ProjectID, c.cfg.AppID)
}

func (c *Client) servingConfigPath() string {
	return fmt.Sprintf("%s/v1alpha/%s/servingConfigs/default_search", c.cfg.Endpoint, c.enginePath())
}
