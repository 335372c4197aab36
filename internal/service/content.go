package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/repository"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const contentCacheKey = "content:site"

var (
	ErrUnknownSection = errors.New("unknown content section")
	ErrInvalidContent = errors.New("content data must be a JSON object or array")
)

//go:embed default_content.json
var defaultContentJSON []byte

// Content maps a section name to its JSON document.
type Content map[string]json.RawMessage

func DefaultContent() (Content, error) {
	var c Content
	if err := json.Unmarshal(defaultContentJSON, &c); err != nil {
		return nil, fmt.Errorf("decode default content: %w", err)
	}
	return c, nil
}

type ContentService struct {
	repo     *repository.SiteSectionRepository
	cache    *storage.RedisClient
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewContentService builds the service. cache may be nil, in which case
// every read goes to the database.
func NewContentService(repo *repository.SiteSectionRepository, cache *storage.RedisClient, cacheTTL time.Duration, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Get returns every section, stored documents overriding the defaults.
func (s *ContentService) Get(ctx context.Context) (Content, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	content, err := DefaultContent()
	if err != nil {
		return nil, err
	}

	sections, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	for _, section := range sections {
		if models.IsSection(section.Name) {
			content[section.Name] = json.RawMessage(section.Data)
		}
	}

	s.toCache(ctx, content)
	return content, nil
}

// Update replaces one section and drops the cached document.
func (s *ContentService) Update(ctx context.Context, section string, data json.RawMessage) error {
	if !models.IsSection(section) {
		return ErrUnknownSection
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(trimmed) {
		return ErrInvalidContent
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return ErrInvalidContent
	}

	if err := s.repo.Upsert(ctx, &models.SiteSection{
		Name:      section,
		Data:      compact.String(),
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("save section %s: %w", section, err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, contentCacheKey); err != nil {
			s.logger.Warn("failed to invalidate content cache", zap.Error(err))
		}
	}

	return nil
}

func (s *ContentService) fromCache(ctx context.Context) (Content, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, contentCacheKey)
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("content cache read failed", zap.Error(err))
		return nil, false
	}

	var content Content
	if err := json.Unmarshal([]byte(cached), &content); err != nil {
		s.logger.Warn("discarding corrupt content cache entry", zap.Error(err))
		return nil, false
	}
	return content, true
}

func (s *ContentService) toCache(ctx context.Context, content Content) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, contentCacheKey, payload, s.cacheTTL); err != nil {
		s.logger.Warn("content cache write failed", zap.Error(err))
	}
}
