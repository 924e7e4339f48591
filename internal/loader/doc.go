// Package loader reads grammar files into ir.GrammarSpec values.
//
// Two formats are supported:
//
// CUE (.cue), compiled by internal/compiler:
//
//	title: "Greetings"
//	entry: "start"
//	rule: {
//		start:    "*GREETING*, *NAME*."
//		greeting: ["Hello there", "Hi"]
//	}
//
// YAML (.yaml, .yml), decoded strictly (unknown fields are rejected):
//
//	title: Greetings
//	entry: start
//	rules:
//	  start: "*GREETING*, *NAME*."
//	  greeting: [Hello there, Hi]
//
// In both formats a rule is a single string or a list of strings.
//
// A directory loads all of its .cue files as one CUE instance and every YAML
// file individually; the results are merged in that order. A FilePopulator
// feeds a loaded grammar into a story generator.
package loader
