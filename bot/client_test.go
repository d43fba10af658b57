package bot

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_Ask_ParsesFulfillments(t *testing.T) {
	req := require.New(t)

	var received Request
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.NoError(json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{
			"fulfillmentMessages": [
				{"text": ["order.status"]},
				{"type": "text", "text": "Your order is on its way"},
				{"type": "buttons", "buttons": [{"label": "Track it", "value": "track"}]}
			]
		}`))
	}))
	defer backend.Close()

	client := NewClient(slog.Default(), backend.URL, time.Second)
	reply := client.Ask(context.Background(), Request{
		Query: "where is my order", SessionID: "s1", UserName: "Alice",
	})

	req.Equal("order.status", reply.Intent)
	req.Len(reply.Messages, 2)
	req.Equal(KindText, reply.Messages[0].Kind)
	req.Equal("Your order is on its way", reply.Messages[0].Text)
	req.Equal(KindButtons, reply.Messages[1].Kind)
	req.Equal("Track it", reply.Messages[1].Buttons[0].Label)

	// The missing language code was detected from the query text
	req.Equal("en", received.LanguageCode)
	req.Equal("Alice", received.UserName)
}

func TestClient_Ask_KeepsExplicitLanguageCode(t *testing.T) {
	req := require.New(t)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var received Request
		req.NoError(json.NewDecoder(r.Body).Decode(&received))
		req.Equal("fr", received.LanguageCode)
		_, _ = w.Write([]byte(`{"fulfillmentMessages": [{"text": ["greeting"]}]}`))
	}))
	defer backend.Close()

	client := NewClient(slog.Default(), backend.URL, time.Second)
	reply := client.Ask(context.Background(), Request{Query: "bonjour", LanguageCode: "fr"})

	req.Equal("greeting", reply.Intent)
	req.Empty(reply.Messages)
}

func TestClient_Ask_FallsBackOnBackendError(t *testing.T) {
	req := require.New(t)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	client := NewClient(slog.Default(), backend.URL, time.Second)
	reply := client.Ask(context.Background(), Request{Query: "hello"})

	// Never an error: the caller always gets something to show
	req.Empty(reply.Intent)
	req.Len(reply.Messages, 1)
	req.Equal(fallbackText, reply.Messages[0].Text)
}

func TestClient_Ask_FallsBackOnUnreachableBackend(t *testing.T) {
	req := require.New(t)
	client := NewClient(slog.Default(), "http://127.0.0.1:1", 100*time.Millisecond)

	reply := client.Ask(context.Background(), Request{Query: "hello"})

	req.Len(reply.Messages, 1)
	req.Equal(fallbackText, reply.Messages[0].Text)
}

func TestFulfillment_Render_DispatchesOnKind(t *testing.T) {
	req := require.New(t)
	recorder := &renderRecorder{}

	Fulfillment{Kind: KindText, Text: "plain"}.Render(recorder)
	Fulfillment{Kind: KindButtons, Buttons: []Button{{Label: "Yes"}}}.Render(recorder)
	Fulfillment{Kind: KindList, Title: "Options", List: []string{"a", "b"}}.Render(recorder)
	Fulfillment{Kind: KindListItems, ListItems: []ListItem{{Title: "x"}}}.Render(recorder)
	Fulfillment{Kind: KindListOfText, ListOfText: [][]string{{"r1c1"}}}.Render(recorder)
	// An unknown kind degrades to text instead of blanking the widget
	Fulfillment{Kind: "hologram", Text: "degraded"}.Render(recorder)

	req.Equal([]string{"text", "buttons", "list", "listItems", "listOfText", "text"}, recorder.calls)
}

type renderRecorder struct {
	calls []string
}

func (r *renderRecorder) Text(string)           { r.calls = append(r.calls, "text") }
func (r *renderRecorder) Buttons([]Button)      { r.calls = append(r.calls, "buttons") }
func (r *renderRecorder) List(string, []string) { r.calls = append(r.calls, "list") }
func (r *renderRecorder) ListItems([]ListItem)  { r.calls = append(r.calls, "listItems") }
func (r *renderRecorder) ListOfText([][]string) { r.calls = append(r.calls, "listOfText") }
