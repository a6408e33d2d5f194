package discord

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNewFieldNormalizesValue(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "-"},
		{"   ", "-"},
		{"\t\n ", "-"},
		{"ok", "ok"},
		{" padded ", " padded "},
		{"-", "-"},
	}
	for _, c := range cases {
		f := NewField("Name", c.in, false)
		if f.Value != c.want {
			t.Fatalf("NewField(%q): got value %q, want %q", c.in, f.Value, c.want)
		}
	}
}

func TestNormalizedCoversLiteralFields(t *testing.T) {
	n := Notification{
		Content: "hi",
		Embeds: []Embed{
			{Fields: []Field{{Name: "ID", Value: ""}, {Name: "State", Value: "up"}}},
		},
	}
	out := n.Normalized()
	if out.Embeds[0].Fields[0].Value != EmptyFieldPlaceholder {
		t.Fatalf("expected placeholder, got %q", out.Embeds[0].Fields[0].Value)
	}
	if out.Embeds[0].Fields[1].Value != "up" {
		t.Fatalf("non-empty value changed: %q", out.Embeds[0].Fields[1].Value)
	}
	// The input must stay untouched.
	if n.Embeds[0].Fields[0].Value != "" {
		t.Fatalf("Normalized mutated its receiver")
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	n := Notification{
		Content:   "deploy finished",
		Username:  "relay",
		AvatarURL: "https://example.com/a.png",
		Embeds: []Embed{
			{
				Title:       "Build 42",
				Description: "all green",
				URL:         "https://example.com/b/42",
				Color:       0x2ECC71,
				Timestamp:   "2024-05-01T10:00:00Z",
				Fields: []Field{
					NewField("Branch", "main", true),
					NewField("Commit", "abc1234", true),
				},
			},
			{Description: "second embed"},
		},
	}

	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Notification
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(n, back) {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", n, back)
	}
}

func TestEmpty(t *testing.T) {
	if !(Notification{}).Empty() {
		t.Fatalf("zero notification should be empty")
	}
	if !(Notification{Content: "   "}).Empty() {
		t.Fatalf("whitespace-only content should be empty")
	}
	if (Notification{Content: "x"}).Empty() {
		t.Fatalf("content should make notification non-empty")
	}
	if (Notification{Embeds: []Embed{{}}}).Empty() {
		t.Fatalf("embeds should make notification non-empty")
	}
}

func TestAddField(t *testing.T) {
	var e Embed
	e.AddField("ID", "", true)
	e.AddField("Name", "thing", false)
	if len(e.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(e.Fields))
	}
	if e.Fields[0].Value != EmptyFieldPlaceholder {
		t.Fatalf("AddField did not normalize: %q", e.Fields[0].Value)
	}
}
