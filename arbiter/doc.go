// Package arbiter interprets the wikicrawler command language.
//
// A Prompt owns a core.Session and executes one command line at a
// time against it.  Handlers that bring a new page into the session
// all go through a single pipeline that resolves, analyzes, and
// registers the page, so the navigation invariants hold no matter
// which command ran.
//
// An Oracle composes commands into similarity-driven moves and
// random walks.  A Script is a sequence of steps, some of which can
// be computed at the moment they run, executed by the same Prompt.
//
// A Prompt has a single writer.  Callers that accept input from
// several places serialize it first (see package sio).
package arbiter
