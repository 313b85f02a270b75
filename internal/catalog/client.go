// Package catalog は外部カタログAPIからのデータ取得と提供を行う。
// キャラクターと悪魔の実の2つの読み取り専用リソースを扱う。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jmvillanueva/grandline/internal/model"
	"github.com/jmvillanueva/grandline/internal/security"
)

const (
	// defaultBaseURL はカタログAPIのデフォルトベースURL。
	defaultBaseURL = "https://api.api-onepiece.com/v2"

	// maxResponseSize はカタログAPIレスポンスの読み取り上限。
	maxResponseSize = 10 << 20 // 10MB
)

// ErrNotFound はカタログAPIがリソースを見つけられなかったことを表す。
var ErrNotFound = fmt.Errorf("catalog resource not found")

// ClientConfig はカタログAPIクライアントの設定。
type ClientConfig struct {
	// BaseURL が未指定の場合はdefaultBaseURLを使用する。
	BaseURL string

	// HTTPClient が未指定の場合は10秒タイムアウトのクライアントを使用する。
	// 本番構成ではSSRF防止機能付きクライアントを渡す。
	HTTPClient *http.Client
}

// Client はカタログAPIのHTTPクライアント。
// 外部データソースのため、取得した説明文はサニタイズしてから返す。
type Client struct {
	baseURL    string
	httpClient *http.Client
	sanitizer  security.ContentSanitizerService
	logger     *slog.Logger
}

// NewClient はClientを生成する。
func NewClient(config ClientConfig, sanitizer security.ContentSanitizerService, logger *slog.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		sanitizer:  sanitizer,
		logger:     logger,
	}
}

// Characters は全キャラクターを取得する。
func (c *Client) Characters(ctx context.Context) ([]model.Character, error) {
	var characters []model.Character
	if err := c.get(ctx, "/characters/en", &characters); err != nil {
		return nil, err
	}
	for i := range characters {
		c.sanitizeCharacter(&characters[i])
	}
	return characters, nil
}

// Character はIDを指定してキャラクターを取得する。
// 存在しない場合はErrNotFoundを返す。
func (c *Client) Character(ctx context.Context, id int) (*model.Character, error) {
	var character model.Character
	if err := c.get(ctx, "/characters/en/"+strconv.Itoa(id), &character); err != nil {
		return nil, err
	}
	c.sanitizeCharacter(&character)
	return &character, nil
}

// SearchCharacters は名前でキャラクターを検索する。
func (c *Client) SearchCharacters(ctx context.Context, name string) ([]model.Character, error) {
	var characters []model.Character
	if err := c.get(ctx, "/characters/en/search/"+url.PathEscape(name), &characters); err != nil {
		return nil, err
	}
	for i := range characters {
		c.sanitizeCharacter(&characters[i])
	}
	return characters, nil
}

// Fruits は全悪魔の実を取得する。
func (c *Client) Fruits(ctx context.Context) ([]model.Fruit, error) {
	var fruits []model.Fruit
	if err := c.get(ctx, "/fruits/en", &fruits); err != nil {
		return nil, err
	}
	for i := range fruits {
		fruits[i].Description = c.sanitizer.Sanitize(fruits[i].Description)
	}
	return fruits, nil
}

// get はGETリクエストを実行し、レスポンスをoutにデコードする。
func (c *Client) get(ctx context.Context, path string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Grandline/1.0 Catalog Client")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("カタログAPIリクエストに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("カタログAPIが異常ステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read catalog response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse catalog response: %w", err)
	}

	c.logger.Info("カタログAPIフェッチが完了しました",
		slog.String("path", path),
		slog.Int("http_status", resp.StatusCode),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// sanitizeCharacter はキャラクターの自由記述フィールドをサニタイズする。
func (c *Client) sanitizeCharacter(character *model.Character) {
	character.Job = c.sanitizer.Sanitize(character.Job)
	if character.Fruit != nil {
		character.Fruit.Description = c.sanitizer.Sanitize(character.Fruit.Description)
	}
}
