package services

import (
	"context"

	"chat-desk/domain"
	"chat-desk/repositories"
)

type IHistoryService interface {
	PreviousChats(agentID string, page, perPage int) ([]domain.ArchivedConversation, int, error)
	Search(ctx context.Context, query string, limit int) ([]domain.ArchivedConversation, error)
}

// HistoryService exposes the conversation archive to the consoles.
type HistoryService struct {
	archive repositories.IConversationArchive
}

func NewHistoryService(archive repositories.IConversationArchive) *HistoryService {
	return &HistoryService{archive: archive}
}

func (s *HistoryService) PreviousChats(agentID string, page, perPage int) ([]domain.ArchivedConversation, int, error) {
	return s.archive.PreviousChats(agentID, page, perPage)
}

func (s *HistoryService) Search(ctx context.Context, query string, limit int) ([]domain.ArchivedConversation, error) {
	return s.archive.Search(ctx, query, limit)
}
