// Package wikicrawler provides similarity-driven exploration of Wikipedia.
//
// The navigation state machine is in package 'core', the command
// interpreter and oracle are in 'arbiter', and the command-line tool
// is in `cmd/wikicrawler`.
package wikicrawler
