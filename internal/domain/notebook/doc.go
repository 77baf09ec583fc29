// Package notebook converts workspace windows to and from notebook
// documents (nbformat 4).
//
// Export is deterministic: one cell per window in ascending id order, cell
// type chosen by window kind, source synthesized from the window content
// plus an annotated header, and window identity carried in reserved
// metadata keys. Import is tolerant: documents produced elsewhere decode
// too, with every missing or malformed field falling back to a default
// declared in Resolver. Only a structurally invalid document fails, with a
// single document-level error.
package notebook
