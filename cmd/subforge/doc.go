// Command subforge translates, burns in, and extracts subtitles.
//
// Every job command (translate, burn, extract) takes a per-kind slot lock in
// the state directory, records its lifecycle in the history database, and
// writes a JSON job log under <log_dir>/jobs. Ctrl-C cancels the running job;
// cancelled and failed jobs exit nonzero.
package main
