// Package core defines the shared language of the SSOT dashboard.
//
// This package contains:
//   - Domain entities (Row, Dataset, Dimension)
//   - The built-in dataset catalog (DatasetSpec, EditAction)
//   - Service interfaces (Store) and the edit journal types
//
// pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
