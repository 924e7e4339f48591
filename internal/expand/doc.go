// Package expand implements fixed-point expansion of story grammars.
//
// Expansion is purely textual. Each pass splits the text on whitespace and
// replaces every word that is an existing canonical rule name with a randomly
// chosen alternative of that rule. A single trailing punctuation mark
// (. , ? ! ;) is split off before lookup and reattached afterwards, so
// "*NAME*." expands to "Alice.". Words that are not rule names, including
// unknown delimiter-wrapped tokens, pass through unchanged.
//
// Passes repeat until one makes no substitution.
//
// TERMINATION:
//
// The engine performs no cycle detection. A grammar terminates only if every
// expansion chain eventually reaches fragments without rule names; a rule
// such as X -> "*X*" loops forever. WithMaxPasses bounds a run for callers
// that cannot trust their grammar.
package expand
