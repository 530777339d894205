// Package logx configures remindbot's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// Sinks and levels can be swapped at runtime via Service.Apply, which the
// app wires to config hot reload.
package logx
