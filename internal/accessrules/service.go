package accessrules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/planwise-crm/planwise-crm/internal/authz"
	"github.com/planwise-crm/planwise-crm/internal/shared"
)

// Service orchestrates access-rule operations. Feature lookups happen on
// every dynamically-authorized request, so reads go through a short-lived
// redis cache; writes invalidate the affected feature.
type Service struct {
	repo     Repository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService constructs a Service. The cache client may be nil, in which
// case every lookup hits the store.
func NewService(repo Repository, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// FeatureRule implements authz.RuleSource.
func (s *Service) FeatureRule(ctx context.Context, feature string) (*authz.FeatureRule, error) {
	rule, err := s.getByFeature(ctx, feature)
	if err != nil {
		return nil, err
	}
	return rule.FeatureRule(), nil
}

func (s *Service) getByFeature(ctx context.Context, feature string) (*AccessRule, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey(feature)).Bytes(); err == nil {
			var rule AccessRule
			if err := json.Unmarshal(cached, &rule); err == nil {
				return &rule, nil
			}
		}
	}
	rule, err := s.repo.GetByFeature(ctx, feature)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if data, err := json.Marshal(rule); err == nil {
			if err := s.cache.Set(ctx, cacheKey(feature), data, s.cacheTTL).Err(); err != nil && s.logger != nil {
				s.logger.Warn("cache access rule", slog.Any("error", err))
			}
		}
	}
	return rule, nil
}

// List returns all access rules.
func (s *Service) List(ctx context.Context) ([]AccessRule, error) {
	return s.repo.List(ctx)
}

// Get fetches a rule by ID.
func (s *Service) Get(ctx context.Context, id string) (*AccessRule, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and inserts a new rule.
func (s *Service) Create(ctx context.Context, rule AccessRule) (*AccessRule, error) {
	if err := validateRule(&rule); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, rule)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, created.FeatureName)
	return created, nil
}

// Update validates and replaces an existing rule.
func (s *Service) Update(ctx context.Context, rule AccessRule) (*AccessRule, error) {
	if rule.ID == "" {
		return nil, errors.New("accessrules: id required")
	}
	if err := validateRule(&rule); err != nil {
		return nil, err
	}
	previous, err := s.repo.GetByID(ctx, rule.ID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, rule)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, previous.FeatureName, updated.FeatureName)
	return updated, nil
}

// Delete removes a rule by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, rule.FeatureName)
	return nil
}

// SeedDefaults backfills the critical feature rules that must always exist.
// Idempotent and safe to race across process instances.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, rule := range DefaultRules() {
		if err := s.repo.EnsureExists(ctx, rule); err != nil {
			return fmt.Errorf("accessrules: seed %s: %w", rule.FeatureName, err)
		}
	}
	return nil
}

// Reset wipes all rules and restores the default set.
func (s *Service) Reset(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	for _, rule := range DefaultRules() {
		if err := s.repo.EnsureExists(ctx, rule); err != nil {
			return fmt.Errorf("accessrules: reset %s: %w", rule.FeatureName, err)
		}
	}
	features := make([]string, 0, len(existing)+len(DefaultRules()))
	for _, rule := range existing {
		features = append(features, rule.FeatureName)
	}
	for _, rule := range DefaultRules() {
		features = append(features, rule.FeatureName)
	}
	s.invalidate(ctx, features...)
	return nil
}

func (s *Service) invalidate(ctx context.Context, features ...string) {
	if s.cache == nil {
		return
	}
	for _, feature := range features {
		if err := s.cache.Del(ctx, cacheKey(feature)).Err(); err != nil && s.logger != nil {
			s.logger.Warn("invalidate access rule cache", slog.Any("error", err), slog.String("feature", feature))
		}
	}
}

func cacheKey(feature string) string {
	return "accessrule:" + feature
}

type ruleValidationError struct {
	msg string
}

func (e *ruleValidationError) Error() string {
	return e.msg
}

func validateRule(rule *AccessRule) error {
	rule.FeatureName = strings.TrimSpace(rule.FeatureName)
	if rule.FeatureName == "" {
		return &ruleValidationError{msg: "feature name required"}
	}
	for _, set := range [][]authz.Action{rule.Admin, rule.LeadPlanner, rule.Assistant, rule.AvailablePermissions} {
		for _, action := range set {
			if !ValidAction(action) {
				return &ruleValidationError{msg: fmt.Sprintf("unknown action %q", action)}
			}
		}
	}
	return nil
}

var _ authz.RuleSource = (*Service)(nil)
