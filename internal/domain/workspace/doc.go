// Package workspace merges imported notebook content into the live window
// store and seeds the initial layout at boot.
//
// Components:
//   - Reconciler: commits decoded candidates one at a time, resolving id
//     collisions against the store and reporting the id remap
//   - Seeder: populates an empty store from a YAML layout manifest
//
// The reconciler is the only import path with collision avoidance. Direct
// Create calls on the store overwrite on id collision instead; callers
// choose one path or the other and must not mix them for the same ids.
package workspace
