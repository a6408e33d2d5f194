package discord

import (
	"fmt"
	"unicode/utf8"
)

// Published execute-webhook limits.
// https://discord.com/developers/docs/resources/webhook#execute-webhook-jsonform-params
// https://discord.com/developers/docs/resources/message#embed-object-embed-limits
const (
	MaxContentLength     = 2000
	MaxUsernameLength    = 80
	MaxEmbeds            = 10
	MaxEmbedTitleLength  = 256
	MaxEmbedDescription  = 4096
	MaxEmbedFields       = 25
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxEmbedTotalLength  = 6000 // title + description + all field names/values
	MaxColor             = 0xFFFFFF
)

// Validate checks n against the platform limits. It returns a
// *ValidationError naming the violated constraint, or nil. Callers are
// expected to run it before any network I/O.
//
// Discord counts limits in characters, not bytes, so all length checks
// use rune counts.
func Validate(n Notification) error {
	if n.Empty() {
		return &ValidationError{Constraint: "payload.empty", Detail: "content or embeds required"}
	}
	if c := utf8.RuneCountInString(n.Content); c > MaxContentLength {
		return &ValidationError{
			Constraint: "content.length",
			Detail:     fmt.Sprintf("content is %d chars, max %d", c, MaxContentLength),
		}
	}
	if c := utf8.RuneCountInString(n.Username); c > MaxUsernameLength {
		return &ValidationError{
			Constraint: "username.length",
			Detail:     fmt.Sprintf("username is %d chars, max %d", c, MaxUsernameLength),
		}
	}
	if len(n.Embeds) > MaxEmbeds {
		return &ValidationError{
			Constraint: "embeds.count",
			Detail:     fmt.Sprintf("%d embeds, max %d", len(n.Embeds), MaxEmbeds),
		}
	}
	for i, e := range n.Embeds {
		if err := validateEmbed(i, e); err != nil {
			return err
		}
	}
	return nil
}

func validateEmbed(idx int, e Embed) error {
	at := func(c string) string { return fmt.Sprintf("embeds[%d].%s", idx, c) }

	if e.Color < 0 || e.Color > MaxColor {
		return &ValidationError{
			Constraint: at("color"),
			Detail:     fmt.Sprintf("color %#x out of range 0..%#x", e.Color, MaxColor),
		}
	}
	if c := utf8.RuneCountInString(e.Title); c > MaxEmbedTitleLength {
		return &ValidationError{
			Constraint: at("title.length"),
			Detail:     fmt.Sprintf("title is %d chars, max %d", c, MaxEmbedTitleLength),
		}
	}
	if c := utf8.RuneCountInString(e.Description); c > MaxEmbedDescription {
		return &ValidationError{
			Constraint: at("description.length"),
			Detail:     fmt.Sprintf("description is %d chars, max %d", c, MaxEmbedDescription),
		}
	}
	if len(e.Fields) > MaxEmbedFields {
		return &ValidationError{
			Constraint: at("fields.count"),
			Detail:     fmt.Sprintf("%d fields, max %d", len(e.Fields), MaxEmbedFields),
		}
	}

	total := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	for j, f := range e.Fields {
		fat := func(c string) string { return fmt.Sprintf("embeds[%d].fields[%d].%s", idx, j, c) }
		if f.Name == "" {
			return &ValidationError{Constraint: fat("name"), Detail: "field name required"}
		}
		if c := utf8.RuneCountInString(f.Name); c > MaxFieldNameLength {
			return &ValidationError{
				Constraint: fat("name.length"),
				Detail:     fmt.Sprintf("name is %d chars, max %d", c, MaxFieldNameLength),
			}
		}
		if c := utf8.RuneCountInString(f.Value); c > MaxFieldValueLength {
			return &ValidationError{
				Constraint: fat("value.length"),
				Detail:     fmt.Sprintf("value is %d chars, max %d", c, MaxFieldValueLength),
			}
		}
		total += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	if total > MaxEmbedTotalLength {
		return &ValidationError{
			Constraint: at("total.length"),
			Detail:     fmt.Sprintf("embed totals %d chars, max %d", total, MaxEmbedTotalLength),
		}
	}
	return nil
}
