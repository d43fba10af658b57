package services

import (
	"fmt"

	"chat-desk/domain"
	"chat-desk/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type IQueryService interface {
	Create(req CreateQueryRequest) (domain.Query, error)
	List(status domain.QueryStatus, dom string, page, perPage int) ([]domain.Query, int, error)
	Resolve(id uuid.UUID, req ResolveQueryRequest) (domain.Query, error)
}

type CreateQueryRequest struct {
	EmailID  string `json:"emailId" validate:"required,email"`
	UserName string `json:"userName" validate:"required"`
	Message  string `json:"message" validate:"required,max=250"`
	Domain   string `json:"domain" validate:"required"`
}

type ResolveQueryRequest struct {
	ResolvedBy string `json:"resolvedBy" validate:"required"`
	AgentID    string `json:"agentId"`
}

// QueryService validates and stores offline query tickets. Validation
// happens here so the repository never sees half-formed tickets.
type QueryService struct {
	repository repositories.IQueryRepository
	validate   *validator.Validate
}

func NewQueryService(repository repositories.IQueryRepository) *QueryService {
	return &QueryService{
		repository: repository,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *QueryService) Create(req CreateQueryRequest) (domain.Query, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Query{}, fmt.Errorf("invalid query ticket: %w", err)
	}
	return s.repository.Create(req.EmailID, req.UserName, req.Message, req.Domain)
}

func (s *QueryService) List(status domain.QueryStatus, dom string, page, perPage int) ([]domain.Query, int, error) {
	return s.repository.List(status, dom, page, perPage)
}

func (s *QueryService) Resolve(id uuid.UUID, req ResolveQueryRequest) (domain.Query, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Query{}, fmt.Errorf("invalid resolution: %w", err)
	}
	return s.repository.Resolve(id, req.ResolvedBy, req.AgentID)
}
