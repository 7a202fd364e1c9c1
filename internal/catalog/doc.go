// Package catalog provides the read-only item and container type lookups
// consumed by load calculations, with an in-memory implementation seeded from
// built-in defaults or a YAML/TOML catalog file.
package catalog
