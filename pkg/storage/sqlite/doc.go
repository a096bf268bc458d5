// Package sqlite implements quota storage on SQLite for development and
// single-node deployments. It mirrors pkg/storage/postgres.
package sqlite
