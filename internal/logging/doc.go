// Package logging provides file-based structured logging with rotation for
// docindex. Logs are JSON lines written to ~/.docindex/logs/docindex.log.
//
// Commands that own the terminal (the interactive search UI and the MCP
// stdio server) log to the file only. Batch commands also mirror to stderr
// when --debug is set.
package logging
