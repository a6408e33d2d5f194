package discord

import (
	"errors"
	"strings"
	"testing"
)

func wantConstraint(t *testing.T, err error, constraint string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	if verr.Constraint != constraint {
		t.Fatalf("expected constraint %q, got %q (%v)", constraint, verr.Constraint, verr)
	}
}

func TestValidateEmptyPayload(t *testing.T) {
	wantConstraint(t, Validate(Notification{}), "payload.empty")
}

func TestValidateContentLength(t *testing.T) {
	n := Notification{Content: strings.Repeat("x", MaxContentLength+1)}
	wantConstraint(t, Validate(n), "content.length")
}

func TestValidateCountsCharactersNotBytes(t *testing.T) {
	// 1500 two-byte runes: 3000 bytes but well under the 2000-char limit.
	n := Notification{Content: strings.Repeat("é", 1500)}
	if err := Validate(n); err != nil {
		t.Fatalf("multi-byte content under the limit rejected: %v", err)
	}

	n = Notification{Content: strings.Repeat("é", MaxContentLength+1)}
	wantConstraint(t, Validate(n), "content.length")

	e := Embed{Title: strings.Repeat("ü", MaxEmbedTitleLength)}
	if err := Validate(Notification{Embeds: []Embed{e}}); err != nil {
		t.Fatalf("multi-byte title at the limit rejected: %v", err)
	}
}

func TestValidateUsernameLength(t *testing.T) {
	n := Notification{Content: "hi", Username: strings.Repeat("u", MaxUsernameLength+1)}
	wantConstraint(t, Validate(n), "username.length")
}

func TestValidateEmbedCount(t *testing.T) {
	n := Notification{Embeds: make([]Embed, MaxEmbeds+1)}
	wantConstraint(t, Validate(n), "embeds.count")
}

func TestValidateFieldCount(t *testing.T) {
	e := Embed{}
	for i := 0; i <= MaxEmbedFields; i++ {
		e.AddField("n", "v", false)
	}
	wantConstraint(t, Validate(Notification{Embeds: []Embed{e}}), "embeds[0].fields.count")
}

func TestValidateFieldName(t *testing.T) {
	n := Notification{Embeds: []Embed{{Fields: []Field{{Name: "", Value: "v"}}}}}
	wantConstraint(t, Validate(n), "embeds[0].fields[0].name")

	n = Notification{Embeds: []Embed{{Fields: []Field{
		{Name: strings.Repeat("n", MaxFieldNameLength+1), Value: "v"},
	}}}}
	wantConstraint(t, Validate(n), "embeds[0].fields[0].name.length")
}

func TestValidateFieldValueLength(t *testing.T) {
	n := Notification{Embeds: []Embed{{Fields: []Field{
		{Name: "n", Value: strings.Repeat("v", MaxFieldValueLength+1)},
	}}}}
	wantConstraint(t, Validate(n), "embeds[0].fields[0].value.length")
}

func TestValidateColorRange(t *testing.T) {
	n := Notification{Embeds: []Embed{{Color: MaxColor + 1}}}
	wantConstraint(t, Validate(n), "embeds[0].color")

	n = Notification{Embeds: []Embed{{Color: -1}}}
	wantConstraint(t, Validate(n), "embeds[0].color")
}

func TestValidateEmbedTotalLength(t *testing.T) {
	e := Embed{Description: strings.Repeat("d", MaxEmbedDescription)}
	for i := 0; i < 2; i++ {
		e.AddField("name", strings.Repeat("v", MaxFieldValueLength), false)
	}
	wantConstraint(t, Validate(Notification{Embeds: []Embed{e}}), "embeds[0].total.length")
}

func TestValidateAcceptsRealisticPayload(t *testing.T) {
	e := Embed{Title: "Deploy", Description: "ok", Color: 0x5865F2}
	e.AddField("Branch", "main", true)
	e.AddField("Status", "", true) // normalized to "-"
	n := Notification{Content: "deploy finished", Username: "relay", Embeds: []Embed{e}}
	if err := Validate(n); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}
