// Package logx configures hookrelay's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional Discord webhook sink (min-level + rate limiting) so
//     operators see errors in the channel they already watch
package logx
