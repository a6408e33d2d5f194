// Package discord defines the Discord execute-webhook payload model.
//
// The types mirror the JSON body accepted by a webhook URL
// (content/username/avatar_url/embeds). Values are plain data: building
// a Notification performs no I/O and no limit enforcement. Limits are
// checked by Validate at send time so the same payload values can be
// reused across client configurations (including tests).
//
// The one construction-time rule is field normalization: Discord rejects
// embed fields with an empty value, so NewField substitutes a "-"
// placeholder for empty or whitespace-only values.
package discord
