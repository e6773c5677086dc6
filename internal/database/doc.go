// Package database provides SQLite-based storage for wordfactor.
//
// The Store keeps two tables in a single file, wordfactor.db:
//   - pages: a cache of fetched page text keyed by URL, so repeated runs
//     over the same URL list do not refetch every page
//   - runs: the history of categorization runs, stored as JSON with a few
//     summary columns for listing
//
// The driver is modernc.org/sqlite, a CGO-free SQLite. The database runs in
// WAL mode with a single open connection.
package database
