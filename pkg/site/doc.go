/*
Package site implements a small filesystem-based static site generator
for the fellowship tracker.

It loads the opportunity dataset from JSON, registers a set of template
functions for deadline formatting and classification, renders the page
templates and markdown pages found in the input directory, and copies
static asset directories through to the output untouched. The Builder
is safe to re-run; every output write is atomic.
*/
package site
