// Command tester is a terminal probe for a running chat-desk server.
// It drives a scripted agent/user conversation over two websockets,
// prints every event as it arrives, then lists the agent's archived
// chats and optionally exercises the chatbot endpoint.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"chat-desk/bot"
	"chat-desk/domain"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerAddr string `envconfig:"SERVER_ADDR" default:"localhost:8080"`
	Domain     string `envconfig:"TESTER_DOMAIN" default:"billing"`
	AgentName  string `envconfig:"TESTER_AGENT_NAME" default:"probe-agent"`
	UserName   string `envconfig:"TESTER_USER_NAME" default:"probe-user"`
	// TESTER_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"TESTER_COLOURS" default:"true"`
	// TESTER_BOT_QUERY sends one question to /bot/query after the chat scenario
	BotQuery string `envconfig:"TESTER_BOT_QUERY"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	p := &probe{cfg: cfg}

	if err := p.runScenario(); err != nil {
		p.failure("Scenario failed: %v", err)
		os.Exit(1)
	}
	if err := p.listPreviousChats(); err != nil {
		p.failure("previous_chats failed: %v", err)
		os.Exit(1)
	}
	if cfg.BotQuery != "" {
		if err := p.askBot(cfg.BotQuery); err != nil {
			p.failure("bot query failed: %v", err)
			os.Exit(1)
		}
	}
	p.success("All probe steps completed")
}

type probe struct {
	cfg     Config
	agentID string
}

func (p *probe) header(name string) {
	line := fmt.Sprintf("  ====== %s ======", name)
	if p.cfg.Colours {
		line = color.New(color.BgBlack, color.FgGreen).Render(line)
	}
	fmt.Println(line)
}

func (p *probe) event(side, event string, data json.RawMessage) {
	tag := side
	if p.cfg.Colours {
		if side == "agent" {
			tag = color.New(color.FgCyan).Render(side)
		} else {
			tag = color.New(color.FgYellow).Render(side)
		}
	}
	fmt.Printf("[%s] %s %s\n", tag, event, string(data))
}

func (p *probe) success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.cfg.Colours {
		msg = color.New(color.FgGreen).Render(msg)
	}
	fmt.Println(msg)
}

func (p *probe) failure(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.cfg.Colours {
		msg = color.New(color.FgRed).Render(msg)
	}
	fmt.Fprintln(os.Stderr, msg)
}

// socket wraps one websocket leg of the scenario.
type socket struct {
	side string
	conn *websocket.Conn
	p    *probe
}

func (p *probe) dial(side string) (*socket, error) {
	u := url.URL{Scheme: "ws", Host: p.cfg.ServerAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s socket: %w", side, err)
	}
	return &socket{side: side, conn: conn, p: p}, nil
}

func (s *socket) send(event string, data any) error {
	return s.conn.WriteJSON(map[string]any{"event": event, "data": data})
}

// expect reads frames until one with the wanted event name arrives,
// logging everything it sees along the way.
func (s *socket) expect(event string) (json.RawMessage, error) {
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = s.conn.SetReadDeadline(deadline)
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := s.conn.ReadJSON(&frame); err != nil {
			return nil, fmt.Errorf("%s waiting for %q: %w", s.side, event, err)
		}
		s.p.event(s.side, frame.Event, frame.Data)
		if frame.Event == event {
			return frame.Data, nil
		}
	}
}

func (s *socket) close() {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = s.conn.Close()
}

// runScenario registers an agent, pairs a user with it, exchanges one
// message each way and ends the chat from the agent side.
func (p *probe) runScenario() error {
	p.header("Live chat scenario")

	agent, err := p.dial("agent")
	if err != nil {
		return err
	}
	defer agent.close()

	if err := agent.send("register_agent", map[string]any{
		"domain":     p.cfg.Domain,
		"agent_name": p.cfg.AgentName,
	}); err != nil {
		return err
	}
	registered, err := agent.expect("registered")
	if err != nil {
		return err
	}
	var agentIdentity struct {
		PersistentID string `json:"connection_id"`
	}
	if err := json.Unmarshal(registered, &agentIdentity); err != nil {
		return err
	}

	user, err := p.dial("user")
	if err != nil {
		return err
	}
	defer user.close()

	if err := user.send("request_live_chat", map[string]any{
		"domain":    p.cfg.Domain,
		"user_name": p.cfg.UserName,
	}); err != nil {
		return err
	}
	connected, err := user.expect("live_chat_connected")
	if err != nil {
		return err
	}
	var pairing struct {
		PersistentID string `json:"user_connection_id"`
	}
	if err := json.Unmarshal(connected, &pairing); err != nil {
		return err
	}
	if _, err := agent.expect("new_live_chat"); err != nil {
		return err
	}

	if err := user.send("send_message", map[string]any{
		"persistent_id": pairing.PersistentID,
		"message":       "Hello, I have a billing question",
	}); err != nil {
		return err
	}
	if _, err := agent.expect("receive_message"); err != nil {
		return err
	}

	if err := agent.send("send_message", map[string]any{
		"persistent_id": agentIdentity.PersistentID,
		"recipient_id":  pairing.PersistentID,
		"message":       "Sure, let me look that up",
	}); err != nil {
		return err
	}
	if _, err := user.expect("receive_message"); err != nil {
		return err
	}

	if err := agent.send("end_chat", map[string]any{
		"user_connection_id": pairing.PersistentID,
	}); err != nil {
		return err
	}
	if _, err := user.expect("chat_ended"); err != nil {
		return err
	}
	if _, err := agent.expect("chat_ended"); err != nil {
		return err
	}

	p.agentID = agentIdentity.PersistentID
	p.success("Scenario completed for agent %s", p.cfg.AgentName)
	return nil
}

// listPreviousChats fetches the archived conversations of the scenario
// agent and prints them as a table.
func (p *probe) listPreviousChats() error {
	p.header("Previous chats")

	// The archive worker flushes asynchronously after chat_ended.
	time.Sleep(500 * time.Millisecond)

	endpoint := fmt.Sprintf("http://%s/previous_chats?agent_id=%s",
		p.cfg.ServerAddr, url.QueryEscape(p.agentID))
	resp, err := http.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Chats map[string]struct {
			UserName string           `json:"user_name"`
			Messages []domain.Message `json:"messages"`
		} `json:"chats"`
		Total   int  `json:"total"`
		HasMore bool `json:"has_more"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User ID", "User Name", "Messages", "Last Message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for userID, chat := range payload.Chats {
		last := ""
		if n := len(chat.Messages); n > 0 {
			last = chat.Messages[n-1].Text
		}
		displayID := userID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
		table.Append([]string{displayID, chat.UserName, fmt.Sprint(len(chat.Messages)), last})
	}
	table.Render()
	fmt.Printf("total=%d has_more=%v\n", payload.Total, payload.HasMore)
	return nil
}

// askBot posts one question to the fulfillment endpoint and renders the
// reply in the terminal.
func (p *probe) askBot(query string) error {
	p.header("Chatbot query")

	body, err := json.Marshal(map[string]string{
		"query":     query,
		"sessionId": "tester",
		"userName":  p.cfg.UserName,
	})
	if err != nil {
		return err
	}
	resp, err := http.Post(fmt.Sprintf("http://%s/bot/query", p.cfg.ServerAddr),
		"application/json", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	var reply bot.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return err
	}
	fmt.Printf("intent: %s\n", reply.Intent)
	renderer := &terminalRenderer{colours: p.cfg.Colours}
	for _, msg := range reply.Messages {
		msg.Render(renderer)
	}
	return nil
}

// terminalRenderer draws fulfillment messages with plain text and tables.
type terminalRenderer struct {
	colours bool
}

func (t *terminalRenderer) Text(text string) {
	fmt.Println(text)
}

func (t *terminalRenderer) Buttons(buttons []bot.Button) {
	for _, b := range buttons {
		label := b.Label
		if t.colours {
			label = color.New(color.FgCyan).Render(label)
		}
		fmt.Printf("  [%s] -> %s\n", label, b.Value)
	}
}

func (t *terminalRenderer) List(title string, items []string) {
	if title != "" {
		fmt.Println(title)
	}
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func (t *terminalRenderer) ListItems(items []bot.ListItem) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Title", "Description"})
	table.SetBorder(false)
	for _, item := range items {
		table.Append([]string{item.Title, item.Description})
	}
	table.Render()
}

func (t *terminalRenderer) ListOfText(rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
