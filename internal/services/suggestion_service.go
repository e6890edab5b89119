package services

import (
	"context"
	"errors"
	"fmt"

	"buildtrack/internal/models"
	"buildtrack/internal/repositories"
)

type SuggestionService struct {
	store repositories.SuggestionStore
}

func NewSuggestionService(store repositories.SuggestionStore) *SuggestionService {
	return &SuggestionService{store: store}
}

func (s *SuggestionService) List(ctx context.Context, kind, q string, limit int) ([]models.Suggestion, error) {
	if !models.ValidSuggestionKind(kind) {
		return nil, reject(RuleSuggestionKind, "unknown suggestion kind %q", kind)
	}
	items, err := s.store.List(ctx, kind, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return items, nil
}

func (s *SuggestionService) Record(ctx context.Context, kind string, sg models.Suggestion) error {
	if !models.ValidSuggestionKind(kind) {
		return reject(RuleSuggestionKind, "unknown suggestion kind %q", kind)
	}
	sg.Kind = kind
	err := s.store.Record(ctx, sg)
	if errors.Is(err, repositories.ErrEmptySuggestion) {
		return reject(RuleSuggestionName, "a suggestion needs a name")
	}
	if err != nil {
		return fmt.Errorf("record suggestion: %w", err)
	}
	return nil
}
