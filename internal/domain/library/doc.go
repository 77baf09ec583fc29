// Package library is the on-disk store of notebook documents.
//
// Documents live under a configured root as .ipynb files addressed by a
// bare name (no extension, no path separators). Listing walks the whole
// tree, so documents dropped into subdirectories by hand still show up;
// save, load, and delete address the flat namespace the server manages.
//
// Components:
//   - Manager: CRUD over the root with an in-memory document cache
//   - Archive: tar.gz bundle of the whole library for workspace hand-off
//
// Listing stats every candidate and sniffs file content, so a stray file
// renamed to .ipynb does not show up as a notebook.
package library
