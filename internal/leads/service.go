package leads

import (
	"context"
	"strings"
)

// Service wraps lead business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches a lead by ID.
func (s *Service) Get(ctx context.Context, id string) (*Lead, error) {
	return s.repo.Get(ctx, id)
}

// List returns leads matching the filter plus the total count.
func (s *Service) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	return s.repo.List(ctx, req)
}

// Create inserts a new lead.
func (s *Service) Create(ctx context.Context, req CreateLeadRequest) (*Lead, error) {
	status := req.Status
	if status == "" {
		status = StatusNew
	}
	return s.repo.Create(ctx, Lead{
		Name:       strings.TrimSpace(req.Name),
		Company:    strings.TrimSpace(req.Company),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      strings.TrimSpace(req.Phone),
		Value:      req.Value,
		Status:     status,
		Source:     strings.TrimSpace(req.Source),
		AssignedTo: req.AssignedTo,
	})
}

// Update applies partial changes to an existing lead.
func (s *Service) Update(ctx context.Context, id string, req UpdateLeadRequest) (*Lead, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.Company != nil {
		current.Company = strings.TrimSpace(*req.Company)
	}
	if req.Email != nil {
		current.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		current.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Value != nil {
		current.Value = *req.Value
	}
	if req.Status != nil {
		current.Status = *req.Status
	}
	if req.Source != nil {
		current.Source = strings.TrimSpace(*req.Source)
	}
	if req.AssignedTo != nil {
		current.AssignedTo = *req.AssignedTo
	}
	return s.repo.Update(ctx, *current)
}

// Delete removes a lead by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
