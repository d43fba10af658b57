// Package bot wraps the external chatbot intent-matching service. The
// router never talks to it; the widget-facing HTTP layer does, and the
// call degrades to a fallback message instead of surfacing errors.
package bot

import "encoding/json"

type Kind string

const (
	KindText       Kind = "text"
	KindButtons    Kind = "buttons"
	KindList       Kind = "list"
	KindListItems  Kind = "listItems"
	KindListOfText Kind = "listOfText"
)

type Button struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ListItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Fulfillment is one rendered unit of a chatbot reply. Exactly the
// fields of its Kind are set; rendering dispatches on Kind and stays
// outside the router core.
type Fulfillment struct {
	Kind       Kind       `json:"type"`
	Text       string     `json:"text,omitempty"`
	Title      string     `json:"title,omitempty"`
	Buttons    []Button   `json:"buttons,omitempty"`
	List       []string   `json:"list,omitempty"`
	ListItems  []ListItem `json:"listItems,omitempty"`
	ListOfText [][]string `json:"listOfText,omitempty"`
}

// Renderer is implemented by whatever draws a reply: a web view, the
// terminal probe, a test double.
type Renderer interface {
	Text(text string)
	Buttons(buttons []Button)
	List(title string, items []string)
	ListItems(items []ListItem)
	ListOfText(rows [][]string)
}

// Render dispatches one fulfillment to the renderer. Unknown kinds fall
// back to plain text so a newer backend never blanks the widget.
func (f Fulfillment) Render(r Renderer) {
	switch f.Kind {
	case KindButtons:
		r.Buttons(f.Buttons)
	case KindList:
		r.List(f.Title, f.List)
	case KindListItems:
		r.ListItems(f.ListItems)
	case KindListOfText:
		r.ListOfText(f.ListOfText)
	default:
		r.Text(f.Text)
	}
}

// intentEnvelope is the first fulfillment message: {"text": ["intent"]}.
type intentEnvelope struct {
	Text []string `json:"text"`
}

// parseFulfillments splits a raw fulfillmentMessages array into the
// intent label and the renderable remainder.
func parseFulfillments(raw []json.RawMessage) (string, []Fulfillment, error) {
	if len(raw) == 0 {
		return "", nil, nil
	}
	var envelope intentEnvelope
	if err := json.Unmarshal(raw[0], &envelope); err != nil {
		return "", nil, err
	}
	intent := ""
	if len(envelope.Text) > 0 {
		intent = envelope.Text[0]
	}

	messages := make([]Fulfillment, 0, len(raw)-1)
	for _, message := range raw[1:] {
		var f Fulfillment
		if err := json.Unmarshal(message, &f); err != nil {
			return "", nil, err
		}
		messages = append(messages, f)
	}
	return intent, messages, nil
}
