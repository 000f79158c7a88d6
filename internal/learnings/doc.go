// Package learnings turns tool output into reusable learnings.
//
// A Detector scores a tool response against ordered signal tables. When the
// score clears the threshold an Extractor redacts the output, drops repeats
// seen earlier in the session through a Deduplicator, trims the output to a
// short excerpt and assembles a ToolLearning.
//
// Extraction is fail-closed: any internal error yields no learning.
//
// Deduplicator is not safe for concurrent use. Hook processes are short
// lived, so SessionStore persists one per session between invocations.
package learnings
