package services

import (
	"chat-desk/contract"
	"chat-desk/domain"
)

type ILiveChatService interface {
	Dispatch(cmd domain.Command)
	Connect(connectionID string, sink contract.EventSink)
	Disconnect(connectionID string)
}

// LiveChatService is the transport's single entry point into the
// router: attach a sink, dispatch commands, detach on hangup. The
// disconnect command rides the same channel as everything else so the
// router sees events in arrival order.
type LiveChatService struct {
	router   contract.IRouter
	registry contract.IRegistry
}

func NewLiveChatService(router contract.IRouter, registry contract.IRegistry) *LiveChatService {
	return &LiveChatService{router: router, registry: registry}
}

func (s *LiveChatService) Dispatch(cmd domain.Command) {
	s.router.Dispatch(cmd)
}

func (s *LiveChatService) Connect(connectionID string, sink contract.EventSink) {
	s.registry.Attach(connectionID, sink)
}

func (s *LiveChatService) Disconnect(connectionID string) {
	s.router.Dispatch(domain.DisconnectCommand{ConnectionID: connectionID})
}
