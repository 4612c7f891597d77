// Package grid holds the presentation helpers shared by the web tables and
// the CLI: column discovery, header labels, sorting and pagination.
package grid
