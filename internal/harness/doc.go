// Package harness provides conformance testing for grammars.
//
// The harness loads a grammar, generates seeded stories from it, archives
// them and validates the results as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: greeting
//	description: "Greets Alice"
//	grammar: grammars/greetings.yaml   # relative to the scenario file
//	rules:                             # optional, added after the grammar
//	  - name: name
//	    alternatives: [Alice]
//	entry: start                       # defaults to the grammar's entry
//	seed: 7                            # first seed, default 1
//	count: 3                           # stories to generate, default 1
//	max_passes: 50                     # optional pass guard
//	assertions:
//	  - type: text_contains
//	    text: Alice
//	  - type: no_tokens
//
// # Assertion Types
//
//   - text_equals: every story equals text
//   - text_contains: every story contains text
//   - one_of: every story is one of texts
//   - no_tokens: no story contains a token naming a rule
//   - max_passes: no story took more than count passes
//   - distinct: at least count distinct stories were generated
//   - error: generation failed with the named kind (no_entry_point,
//     invalid_entry_point, pass_limit, unknown_rule, empty_rule_name)
//   - replays: every archived story regenerates identically from the archive
//
// # Deterministic Testing
//
// Story i (from 0) is generated with seed+i, a fixed generation id and a
// fresh in-memory archive, so the same scenario yields byte-identical
// snapshots across runs. Snapshots are canonical JSON and are compared
// against golden files.
package harness
