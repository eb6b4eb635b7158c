// Package report renders run summaries, accuracy tables and tuning results
// for the terminal.
package report
