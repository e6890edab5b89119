package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"buildtrack/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/cases"
)

const DefaultSuggestionLimit = 10

var ErrEmptySuggestion = errors.New("suggestion has no name")

// SuggestionStore remembers consultant and contractor details that were
// saved before. Record upserts by kind and case-folded name.
type SuggestionStore interface {
	Record(ctx context.Context, s models.Suggestion) error
	List(ctx context.Context, kind, q string, limit int) ([]models.Suggestion, error)
}

func folded(s string) string {
	return cases.Fold().String(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SuggestionKey is the identity of a suggestion within its kind.
func SuggestionKey(s models.Suggestion) string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = strings.TrimSpace(s.NameEn)
	}
	return folded(name)
}

func matchesSuggestion(s models.Suggestion, q string) bool {
	if q == "" {
		return true
	}
	for _, v := range []string{s.Name, s.NameEn, s.LicenseNo} {
		if strings.Contains(folded(v), q) {
			return true
		}
	}
	return false
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSuggestionLimit
	}
	return limit
}

type PostgresSuggestionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSuggestionRepository(pool *pgxpool.Pool) *PostgresSuggestionRepository {
	return &PostgresSuggestionRepository{pool: pool}
}

func (r *PostgresSuggestionRepository) Record(ctx context.Context, s models.Suggestion) error {
	key := SuggestionKey(s)
	if key == "" {
		return ErrEmptySuggestion
	}

	query := `
		INSERT INTO suggestions (kind, name_key, name, name_en, license_no, phone, email, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (kind, name_key) DO UPDATE SET
			name = EXCLUDED.name,
			name_en = EXCLUDED.name_en,
			license_no = COALESCE(NULLIF(EXCLUDED.license_no, ''), suggestions.license_no),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), suggestions.phone),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), suggestions.email),
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		s.Kind,
		key,
		strings.TrimSpace(s.Name),
		strings.TrimSpace(s.NameEn),
		strings.TrimSpace(s.LicenseNo),
		strings.TrimSpace(s.Phone),
		strings.TrimSpace(s.Email),
	)
	return err
}

func (r *PostgresSuggestionRepository) List(ctx context.Context, kind, q string, limit int) ([]models.Suggestion, error) {
	query := `
		SELECT kind, name, name_en, license_no, phone, email, updated_at
		FROM suggestions
		WHERE kind = $1
		  AND ($2 = ''
		       OR name_key LIKE '%' || $2 || '%' ESCAPE '\'
		       OR LOWER(name_en) LIKE '%' || $2 || '%' ESCAPE '\'
		       OR LOWER(license_no) LIKE '%' || $2 || '%' ESCAPE '\')
		ORDER BY updated_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, kind, escapeLike(folded(strings.TrimSpace(q))), normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Suggestion{}
	for rows.Next() {
		var s models.Suggestion
		if err := rows.Scan(&s.Kind, &s.Name, &s.NameEn, &s.LicenseNo, &s.Phone, &s.Email, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MemorySuggestionRepository is the fallback when no database is configured.
type MemorySuggestionRepository struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]models.Suggestion
}

func NewMemorySuggestionRepository() *MemorySuggestionRepository {
	return &MemorySuggestionRepository{now: time.Now, items: make(map[string]models.Suggestion)}
}

func (r *MemorySuggestionRepository) Record(_ context.Context, s models.Suggestion) error {
	key := SuggestionKey(s)
	if key == "" {
		return ErrEmptySuggestion
	}
	s.Name = strings.TrimSpace(s.Name)
	s.NameEn = strings.TrimSpace(s.NameEn)
	s.LicenseNo = strings.TrimSpace(s.LicenseNo)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Email = strings.TrimSpace(s.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	id := s.Kind + "/" + key
	if prev, ok := r.items[id]; ok {
		if s.LicenseNo == "" {
			s.LicenseNo = prev.LicenseNo
		}
		if s.Phone == "" {
			s.Phone = prev.Phone
		}
		if s.Email == "" {
			s.Email = prev.Email
		}
	}
	s.UpdatedAt = r.now()
	r.items[id] = s
	return nil
}

func (r *MemorySuggestionRepository) List(_ context.Context, kind, q string, limit int) ([]models.Suggestion, error) {
	q = folded(strings.TrimSpace(q))

	r.mu.Lock()
	out := []models.Suggestion{}
	for _, s := range r.items {
		if s.Kind == kind && matchesSuggestion(s, q) {
			out = append(out, s)
		}
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
