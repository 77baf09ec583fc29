// Package types provides shared data structures for the Orrery backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Workspace Types:
//   - WindowRecord: A tracked workspace window
//   - WindowState: Window payload and presentation state
//   - Kind: Window kind enum (chart, dataTable, ...)
//   - Position: Window placement geometry
//
// Notebook Types:
//   - Document: A notebook file (nbformat 4)
//   - Cell: A single notebook cell with typed metadata
//   - Output: A cell output record (stream, result, error)
//   - NotebookEntry: A listing row for stored notebooks
//
// Operation Results:
//   - ImportResult: Outcome of a workspace import
//   - Error: Typed operation failure with a stable kind
//
// Remote Session:
//   - ConnState, KernelState: Connection and kernel state enums
//   - Kernel: A remote kernel handle
//   - RemoteSession: Per-cell execution tracking state
package types
