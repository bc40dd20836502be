//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based implementations of the authpage store
// interfaces. It works with any database GORM supports; Open wires the
// Postgres driver and a pure-Go SQLite driver.
//
// # Database Schema
//
// AutoMigrate creates:
//   - profiles: sign-up profile documents keyed by (app_id, uid)
//   - accounts: local email/password accounts keyed by email
//
// # Usage
//
//	db, _ := gormstore.Open(gormstore.DialectPostgres, dsn)
//	profiles := gormstore.NewProfileStore(db)
//	accounts := gormstore.NewAccountStore(db)
package gorm
