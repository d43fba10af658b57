package ws

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chat-desk/bot"
	"chat-desk/domain"
	"chat-desk/observability"
	"chat-desk/services"
	"chat-desk/sink"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// Server terminates websocket connections and the console-facing HTTP
// endpoints. Socket events become router commands; router events flow
// back through each connection's sink. The server holds no routing
// state of its own.
type Server struct {
	log       *slog.Logger
	liveChat  services.ILiveChatService
	history   services.IHistoryService
	queries   services.IQueryService
	botClient *bot.Client
	monitor   *observability.Monitor

	upgrader     websocket.Upgrader
	validate     *validator.Validate
	bufferSize   int
	writeTimeout time.Duration
}

func NewServer(log *slog.Logger, liveChat services.ILiveChatService,
	history services.IHistoryService, queries services.IQueryService,
	botClient *bot.Client, monitor *observability.Monitor,
	bufferSize int, writeTimeout time.Duration) *Server {
	return &Server{
		log:       log,
		liveChat:  liveChat,
		history:   history,
		queries:   queries,
		botClient: botClient,
		monitor:   monitor,
		upgrader: websocket.Upgrader{
			// The widget is embedded on customer sites; origins vary.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		bufferSize:   bufferSize,
		writeTimeout: writeTimeout,
	}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleSocket)
	mux.HandleFunc("GET /previous_chats", s.handlePreviousChats)
	mux.HandleFunc("GET /previous_chats/search", s.handleSearch)
	mux.HandleFunc("GET /queries", s.handleListQueries)
	mux.HandleFunc("POST /queries", s.handleCreateQuery)
	mux.HandleFunc("PUT /queries/{id}/resolve", s.handleResolveQuery)
	mux.HandleFunc("POST /bot/query", s.handleBotQuery)
	mux.HandleFunc("GET /stats", s.handleStats)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	connectionID := uuid.NewString()
	connSink := sink.NewConnectionSink(s.log, s.bufferSize)
	s.liveChat.Connect(connectionID, connSink)
	s.log.Info("Connection established", "connection_id", connectionID)

	go s.writePump(conn, connSink)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.dispatchFrame(connectionID, payload)
	}

	// Hangup: the router decides what the loss means (agent offline,
	// reconnect window for paired users).
	s.liveChat.Disconnect(connectionID)
	connSink.Close()
	_ = conn.Close()
	s.log.Info("Connection closed", "connection_id", connectionID)
}

// writePump drains the sink into the socket. It exits when the sink
// closes; a write failure closes the socket and the read loop follows.
func (s *Server) writePump(conn *websocket.Conn, connSink *sink.ConnectionSink) {
	for evt := range connSink.Events() {
		frame := WireEvent{Event: evt.Name(), Data: evt}
		_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			s.log.Warn("Websocket write failed", "event", evt.Name(), "error", err)
			_ = conn.Close()
			return
		}
	}
}

// dispatchFrame decodes and validates one inbound frame. Malformed
// frames are dropped with no state mutation; the router never sees
// them.
func (s *Server) dispatchFrame(connectionID string, payload []byte) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil || s.validate.Struct(envelope) != nil {
		s.log.Debug("Dropping malformed frame", "connection_id", connectionID)
		return
	}

	switch envelope.Event {
	case "register_agent":
		var p RegisterAgentPayload
		if !s.decode(envelope.Data, &p) {
			return
		}
		s.liveChat.Dispatch(domain.RegisterAgentCommand{
			ConnectionID:   connectionID,
			Domain:         p.Domain,
			AgentName:      p.AgentName,
			ClaimedID:      p.OldAgentID,
			ReconnectToken: p.ReconnectToken,
		})
	case "agent_offline":
		var p AgentOfflinePayload
		if !s.decode(envelope.Data, &p) {
			return
		}
		s.liveChat.Dispatch(domain.AgentOfflineCommand{AgentID: p.AgentConnectionID})
	case "request_live_chat":
		var p RequestLiveChatPayload
		if !s.decode(envelope.Data, &p) {
			return
		}
		s.liveChat.Dispatch(domain.RequestLiveChatCommand{
			ConnectionID:   connectionID,
			Domain:         p.Domain,
			UserName:       p.UserName,
			ClaimedID:      p.OldUserID,
			ReconnectToken: p.ReconnectToken,
		})
	case "send_message":
		var p SendMessagePayload
		if !s.decode(envelope.Data, &p) {
			return
		}
		if p.Message == "" && p.Image == "" {
			return
		}
		s.liveChat.Dispatch(domain.SendMessageCommand{
			SenderID:    p.PersistentID,
			RecipientID: p.RecipientID,
			Text:        strings.TrimSpace(p.Message),
			Image:       sniffImage(p.Image),
		})
	case "end_chat":
		var p EndChatPayload
		if !s.decode(envelope.Data, &p) {
			return
		}
		s.liveChat.Dispatch(domain.EndChatCommand{ParticipantID: p.UserConnectionID})
	case "restore_chats":
		var p RestoreChatsPayload
		if !s.decode(envelope.Data, &p) {
			return
		}
		s.liveChat.Dispatch(domain.RestoreChatsCommand{AgentID: p.AgentConnectionID})
	default:
		s.log.Debug("Unknown event ignored", "event", envelope.Event)
	}
}

func (s *Server) decode(data json.RawMessage, out any) bool {
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	if err := s.validate.Struct(out); err != nil {
		return false
	}
	return true
}

// sniffImage keeps an image payload only when its bytes really are an
// image. Payloads arrive as data URLs or bare base64; anything else is
// stripped so the relay stays text-only.
func sniffImage(payload string) string {
	if payload == "" {
		return ""
	}
	encoded := payload
	if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	if !strings.HasPrefix(mimetype.Detect(raw).String(), "image/") {
		return ""
	}
	return payload
}

// --- Console HTTP endpoints ---

type previousChatEntry struct {
	UserName string           `json:"userName"`
	Messages []domain.Message `json:"messages"`
}

func (s *Server) handlePreviousChats(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		httpError(w, http.StatusBadRequest, "Missing agent_id")
		return
	}
	page, perPage := pagination(r)

	conversations, total, err := s.history.PreviousChats(agentID, page, perPage)
	if err != nil {
		s.log.Error("previous_chats failed", "agent_id", agentID, "error", err)
		httpError(w, http.StatusInternalServerError, "Server error")
		return
	}

	chats := make(map[string]previousChatEntry, len(conversations))
	for _, c := range conversations {
		name := c.UserName
		if name == "" {
			name = "User " + c.UserID
		}
		chats[c.UserID] = previousChatEntry{UserName: name, Messages: c.Messages}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chats":    chats,
		"page":     page,
		"per_page": perPage,
		"total":    total,
		"has_more": (page-1)*perPage+len(conversations) < total,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		httpError(w, http.StatusBadRequest, "Missing q")
		return
	}
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	results, err := s.history.Search(r.Context(), query, limit)
	if err != nil {
		s.log.Error("Archive search failed", "error", err)
		httpError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": len(results)})
}

func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		httpError(w, http.StatusBadRequest, "status is required")
		return
	}
	page, perPage := pagination(r)
	dom := strings.TrimSpace(r.URL.Query().Get("domain"))

	queries, total, err := s.queries.List(domain.QueryStatus(status), dom, page, perPage)
	if err != nil {
		s.log.Error("Listing queries failed", "error", err)
		httpError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":        page,
		"per_page":    perPage,
		"total_items": total,
		"data":        lo.Ternary(queries != nil, queries, []domain.Query{}),
	})
}

func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var req services.CreateQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	query, err := s.queries.Create(req)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, query)
}

func (s *Server) handleResolveQuery(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "Invalid query id")
		return
	}
	var req services.ResolveQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	query, err := s.queries.Resolve(id, req)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, query)
}

func (s *Server) handleBotQuery(w http.ResponseWriter, r *http.Request) {
	if s.botClient == nil {
		httpError(w, http.StatusServiceUnavailable, "Chatbot not configured")
		return
	}
	var req bot.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		httpError(w, http.StatusBadRequest, "query is required")
		return
	}
	writeJSON(w, http.StatusOK, s.botClient.Ask(r.Context(), req))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Snapshot())
}

func pagination(r *http.Request) (int, int) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 1 {
		page = v
	}
	perPage := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 && v <= 100 {
		perPage = v
	}
	return page, perPage
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func httpError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
