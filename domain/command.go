package domain

// Command is an inbound transport event, already decoded and validated.
// The router processes commands one at a time; a command with missing
// required fields never reaches the router (the transport drops it).
type Command interface {
	CommandName() string
}

type RegisterAgentCommand struct {
	ConnectionID   string
	Domain         string
	AgentName      string
	ClaimedID      string // old_agent_id, trust-on-assertion
	ReconnectToken string
}

func (RegisterAgentCommand) CommandName() string { return "register_agent" }

type AgentOfflineCommand struct {
	AgentID string
}

func (AgentOfflineCommand) CommandName() string { return "agent_offline" }

type RequestLiveChatCommand struct {
	ConnectionID   string
	Domain         string
	UserName       string
	ClaimedID      string // old_user_id, trust-on-assertion
	ReconnectToken string
}

func (RequestLiveChatCommand) CommandName() string { return "request_live_chat" }

type SendMessageCommand struct {
	SenderID    string // persistent_id of the sender
	RecipientID string
	Text        string
	Image       string
}

func (SendMessageCommand) CommandName() string { return "send_message" }

type EndChatCommand struct {
	ParticipantID string // persistent id of either side
}

func (EndChatCommand) CommandName() string { return "end_chat" }

type RestoreChatsCommand struct {
	AgentID string
}

func (RestoreChatsCommand) CommandName() string { return "restore_chats" }

// DisconnectCommand is synthesized by the transport when a socket drops.
type DisconnectCommand struct {
	ConnectionID string
}

func (DisconnectCommand) CommandName() string { return "disconnect" }
