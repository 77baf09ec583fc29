// Package main is the entry point for the Orrery workspace service.
//
// The service manages a workspace of typed visualization windows, persists
// workspaces as Jupyter notebooks, and proxies code execution to a remote
// notebook server.
//
// Architecture:
//
//	Client (HTTP/WebSocket) → Orrery Service → Notebook Server (kernels)
//	                                        → Library (.ipynb on disk)
//
// The server provides:
//   - REST API for window and workspace management
//   - Notebook import/export in nbformat 4
//   - On-disk notebook library with archive download
//   - Remote kernel lifecycle and cell execution
//   - WebSocket event stream for workspace changes
//
// Configuration:
//   - Environment variables (ORRERY_* prefix)
//   - CLI flags (override env vars)
//   - Defaults for local single-user use
//
// Usage:
//
//	# Point at a notebook server with a custom library root
//	./server -port 8000 -remote http://127.0.0.1:8888 -library ./notebooks
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown, stopping any running kernel
package main
