// Package database opens and migrates the wifid SQLite database.
//
// wifid persists one thing: the interface event journal written by the
// history package. The database is opened once at startup, migrated from
// SQL files embedded by the migrations package, and shared with the
// journal repository.
package database
