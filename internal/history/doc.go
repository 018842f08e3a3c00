// Package history persists a record of every translate, burn, and extract job
// in a SQLite database under the state directory.
//
// The store mirrors job lifecycle: Start inserts a running record with a
// generated UUID, Finish stamps the terminal status, counts, exit code, and
// error text. Records left running by a crashed process are closed out by
// AbandonRunning once the caller holds the job slot for that kind.
package history
