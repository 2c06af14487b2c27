// Package seer renders pages and navigation histories.
//
// A Seer writes Markdown and HTML documents for pages, renders pages
// for a terminal, and draws the navigation path as a Graphviz graph.
package seer
