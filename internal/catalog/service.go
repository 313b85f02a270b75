package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmvillanueva/grandline/internal/model"
)

// searcher はライブ検索のインターフェース。Clientが実装する。
type searcher interface {
	SearchCharacters(ctx context.Context, name string) ([]model.Character, error)
}

// Service はカタログの読み取り操作を提供する。
// 一覧とID指定の取得はキャッシュのスナップショット上の静的な
// フィルタリングで行い、名前検索のみカタログAPIへ委譲する。
type Service struct {
	cache  *Cache
	client searcher
}

// NewService はServiceを生成する。
func NewService(cache *Cache, client searcher) *Service {
	return &Service{cache: cache, client: client}
}

// ListCharacters は全キャラクターを返す。
func (s *Service) ListCharacters(ctx context.Context) ([]model.Character, error) {
	characters, err := s.cache.Characters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}

// GetCharacter はIDを指定してキャラクターを返す。
func (s *Service) GetCharacter(ctx context.Context, id int) (*model.Character, error) {
	characters, err := s.cache.Characters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get character %d: %w", id, err)
	}
	for i := range characters {
		if characters[i].ID == id {
			return &characters[i], nil
		}
	}
	return nil, ErrNotFound
}

// SearchCharacters は名前でキャラクターを検索する。
// 検索はキャッシュを経由せずカタログAPIへ委譲する。
func (s *Service) SearchCharacters(ctx context.Context, name string) ([]model.Character, error) {
	characters, err := s.client.SearchCharacters(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.Character{}, nil
		}
		return nil, fmt.Errorf("failed to search characters: %w", err)
	}
	return characters, nil
}

// ListFruits は全悪魔の実を返す。
func (s *Service) ListFruits(ctx context.Context) ([]model.Fruit, error) {
	fruits, err := s.cache.Fruits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fruits: %w", err)
	}
	return fruits, nil
}

// GetFruit はIDを指定して悪魔の実を返す。
func (s *Service) GetFruit(ctx context.Context, id int) (*model.Fruit, error) {
	fruits, err := s.cache.Fruits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get fruit %d: %w", id, err)
	}
	for i := range fruits {
		if fruits[i].ID == id {
			return &fruits[i], nil
		}
	}
	return nil, ErrNotFound
}

// ListFruitsByType は系統を指定して悪魔の実を返す。
// 系統名はParamecia、Zoan、Logiaのいずれかでなければならない。
func (s *Service) ListFruitsByType(ctx context.Context, fruitType string) ([]model.Fruit, error) {
	if !model.ValidFruitType(fruitType) {
		return nil, model.NewInvalidFruitTypeAPIError(fruitType)
	}

	fruits, err := s.cache.Fruits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fruits by type: %w", err)
	}

	filtered := make([]model.Fruit, 0, len(fruits))
	for _, fruit := range fruits {
		if fruit.Type == fruitType {
			filtered = append(filtered, fruit)
		}
	}
	return filtered, nil
}
