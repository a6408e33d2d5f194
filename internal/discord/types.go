package discord

import "strings"

// EmptyFieldPlaceholder replaces empty embed field values.
// Discord rejects fields whose value is empty.
const EmptyFieldPlaceholder = "-"

// Field is a single name/value pair inside an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// NewField builds a Field with a normalized value: empty or
// whitespace-only input becomes EmptyFieldPlaceholder.
func NewField(name, value string, inline bool) Field {
	return Field{Name: name, Value: NormalizeFieldValue(value), Inline: inline}
}

// NormalizeFieldValue returns v unchanged unless it is empty or
// whitespace-only, in which case it returns EmptyFieldPlaceholder.
func NormalizeFieldValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return EmptyFieldPlaceholder
	}
	return v
}

// Embed is a rich sub-block of a notification. All members are
// optional; a zero Color is treated as "unset" and omitted from the
// wire payload.
type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Color       int     `json:"color,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"` // RFC 3339
	Fields      []Field `json:"fields,omitempty"`
}

// AddField appends a normalized field to the embed.
func (e *Embed) AddField(name, value string, inline bool) {
	e.Fields = append(e.Fields, NewField(name, value, inline))
}

// Notification is the top-level webhook payload.
//
// Username and AvatarURL override the webhook's registered identity for
// this one message; when empty, the delivery client may merge in its
// configured defaults before sending.
type Notification struct {
	Content   string  `json:"content,omitempty"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// Empty reports whether the notification carries neither content nor
// embeds. Empty payloads are rejected by Validate.
func (n Notification) Empty() bool {
	return strings.TrimSpace(n.Content) == "" && len(n.Embeds) == 0
}

// Normalized returns a copy of n with every embed field value
// normalized. Payloads built through NewField are already normalized;
// this covers values set through struct literals or decoded JSON.
func (n Notification) Normalized() Notification {
	if len(n.Embeds) == 0 {
		return n
	}
	out := n
	out.Embeds = make([]Embed, len(n.Embeds))
	for i, e := range n.Embeds {
		ne := e
		if len(e.Fields) > 0 {
			ne.Fields = make([]Field, len(e.Fields))
			for j, f := range e.Fields {
				f.Value = NormalizeFieldValue(f.Value)
				ne.Fields[j] = f
			}
		}
		out.Embeds[i] = ne
	}
	return out
}

// Summary renders a short single-line description of the payload for
// logs and the delivery history. It is not the wire format.
func (n Notification) Summary() string {
	var b strings.Builder
	if n.Content != "" {
		b.WriteString(n.Content)
	}
	for _, e := range n.Embeds {
		if e.Title != "" {
			if b.Len() > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(e.Title)
		}
		for _, f := range e.Fields {
			if b.Len() > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(f.Name)
			b.WriteString("=")
			b.WriteString(f.Value)
		}
	}
	s := b.String()
	if len(s) > 200 {
		s = s[:197] + "..."
	}
	return s
}
