package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmvillanueva/grandline/internal/catalog"
	"github.com/jmvillanueva/grandline/internal/model"
)

// CatalogServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListCharacters(ctx context.Context) ([]model.Character, error)
	GetCharacter(ctx context.Context, id int) (*model.Character, error)
	SearchCharacters(ctx context.Context, name string) ([]model.Character, error)
	ListFruits(ctx context.Context) ([]model.Fruit, error)
	GetFruit(ctx context.Context, id int) (*model.Fruit, error)
	ListFruitsByType(ctx context.Context, fruitType string) ([]model.Fruit, error)
}

// CatalogHandler はカタログ閲覧のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListCharacters は全キャラクターを返す。
// GET /api/characters
func (h *CatalogHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	characters, err := h.service.ListCharacters(r.Context())
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, characters)
}

// GetCharacter はIDを指定してキャラクターを返す。
// GET /api/characters/{id}
func (h *CatalogHandler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidIDError())
		return
	}

	character, err := h.service.GetCharacter(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewCharacterNotFoundAPIError(id))
			return
		}
		handleCatalogError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, character)
}

// SearchCharacters は名前でキャラクターを検索する。
// GET /api/characters/search?name=xxx
func (h *CatalogHandler) SearchCharacters(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeValidationFailed,
			Message:  "検索する名前を指定してください。",
			Category: "validation",
			Action:   "nameクエリパラメータを指定してください。",
		})
		return
	}

	characters, err := h.service.SearchCharacters(r.Context(), name)
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, characters)
}

// ListFruits は悪魔の実の一覧を返す。typeクエリで系統を絞り込める。
// GET /api/fruits?type=Logia
func (h *CatalogHandler) ListFruits(w http.ResponseWriter, r *http.Request) {
	var (
		fruits []model.Fruit
		err    error
	)

	if fruitType := r.URL.Query().Get("type"); fruitType != "" {
		fruits, err = h.service.ListFruitsByType(r.Context(), fruitType)
	} else {
		fruits, err = h.service.ListFruits(r.Context())
	}
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, fruits)
}

// GetFruit はIDを指定して悪魔の実を返す。
// GET /api/fruits/{id}
func (h *CatalogHandler) GetFruit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidIDError())
		return
	}

	fruit, err := h.service.GetFruit(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewFruitNotFoundAPIError(id))
			return
		}
		handleCatalogError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, fruit)
}

// handleCatalogError はカタログサービスから返されたエラーをHTTPレスポンスに変換する。
// APIError（系統名不正等）はそのまま返し、それ以外は外部APIへの到達失敗として
// 503 Service Unavailableを返す。
func handleCatalogError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	slog.Error("catalog request failed", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewCatalogUnavailableAPIError())
}

// invalidIDError はIDパラメータの形式不正を表すAPIエラーを生成する。
func invalidIDError() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeValidationFailed,
		Message:  "IDは整数で指定してください。",
		Category: "validation",
		Action:   "URLのIDパラメータを確認してください。",
	}
}
