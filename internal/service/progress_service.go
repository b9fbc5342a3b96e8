package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalworks/audit-api/internal/dto"
	"github.com/evalworks/audit-api/internal/models"
	"github.com/evalworks/audit-api/internal/repository"
)

// ProgressService produces per-process scoring progress summaries. Summaries
// are served cache-aside from redis with a short TTL; threshold rules are
// never cached anywhere.
type ProgressService interface {
	ProcessProgress(ctx context.Context, processCode string) (dto.ProcessProgressResponse, error)
}

type progressService struct {
	hierarchy repository.HierarchyRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewProgressService builds the progress aggregator.
func NewProgressService(hierarchy repository.HierarchyRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	return &progressService{
		hierarchy: hierarchy,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) ProcessProgress(ctx context.Context, processCode string) (dto.ProcessProgressResponse, error) {
	cacheKey := fmt.Sprintf("progress:process:%s", processCode)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProcessProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("process_code", processCode).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	process, err := s.hierarchy.GetProcess(ctx, processCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProcessProgressResponse{}, ErrProcessNotFound
		}
		return dto.ProcessProgressResponse{}, err
	}

	steps, err := s.hierarchy.ListStepsByProcess(ctx, processCode)
	if err != nil {
		return dto.ProcessProgressResponse{}, err
	}

	items, err := s.hierarchy.ListItemsByProcess(ctx, processCode)
	if err != nil {
		return dto.ProcessProgressResponse{}, err
	}

	response := buildProgress(process, steps, items)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func buildProgress(process models.AuditProcess, steps []models.AuditStep, items []models.ChecklistItem) dto.ProcessProgressResponse {
	itemsByStep := map[string][]models.ChecklistItem{}
	for _, item := range items {
		itemsByStep[item.StepCode] = append(itemsByStep[item.StepCode], item)
	}

	response := dto.ProcessProgressResponse{
		ProcessCode: process.Code,
		AuditType:   process.AuditType,
		Status:      process.Status,
		Steps:       make([]dto.StepProgress, 0, len(steps)),
	}

	var actual, max []float64
	for _, step := range steps {
		stepItems := itemsByStep[step.Code]
		scored := 0
		for _, item := range stepItems {
			if item.IsScored() {
				scored++
				actual = append(actual, *item.Score)
				max = append(max, item.MaxScore)
			}
		}

		response.Steps = append(response.Steps, dto.StepProgress{
			StepCode:    step.Code,
			Name:        step.Name,
			Status:      step.Status,
			Progress:    step.Progress,
			TotalItems:  len(stepItems),
			ScoredItems: scored,
		})
		response.TotalItems += len(stepItems)
		response.ScoredItems += scored
	}

	response.ProvisionalScore = AggregateScore(actual, max)
	return response
}
