package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/storygen/internal/expand"
	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/ir"
)

// Finding levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// CycleWarning represents a recursive group of rules.
//
// Recursion is a warning, not an error, because it is often intentional:
// a rule such as STORY -> "*EVENT* *STORY*" | "The end." recurses but
// terminates with probability 1. Groups that can never terminate are
// reported by NonTerminating instead.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["*A*", "*B*", "*A*"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// Reference is an occurrence of a canonical-looking token inside a rule.
type Reference struct {
	Rule  string `json:"rule"`  // canonical rule containing the token
	Token string `json:"token"` // the token, terminator stripped
}

// Report is the result of static grammar analysis.
type Report struct {
	Cycles         []CycleWarning `json:"cycles"`
	Undefined      []Reference    `json:"undefined"`       // tokens shaped like rule names that are not rules
	Unreachable    []string       `json:"unreachable"`     // rules the entry point can never reach
	NonTerminating []string       `json:"non_terminating"` // rules that can never finish expanding
}

// Clean reports whether analysis found nothing worth mentioning.
func (r Report) Clean() bool {
	return len(r.Cycles) == 0 && len(r.Undefined) == 0 &&
		len(r.Unreachable) == 0 && len(r.NonTerminating) == 0
}

// Analyze performs static analysis on a grammar.
//
// The engine itself performs no cycle detection; this is a lint pass for
// grammar authors. The algorithm:
//  1. Build a rule -> referenced rules graph from every alternative
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as a cycle
//  4. Report rule-shaped tokens that are not rules (they pass through as text)
//  5. If an entry point is set, report rules it cannot reach
//  6. Report rules with no terminating expansion
func Analyze(spec ir.GrammarSpec) Report {
	table := BuildTable(spec)
	graph, undefined := buildReferenceGraph(table)

	report := Report{
		Cycles:         []CycleWarning{},
		Undefined:      undefined,
		Unreachable:    []string{},
		NonTerminating: NonTerminating(table),
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			report.Cycles = append(report.Cycles, cycleSCCToWarning(scc, graph))
		}
	}
	sort.Slice(report.Cycles, func(i, j int) bool {
		return report.Cycles[i].Path[0] < report.Cycles[j].Path[0]
	})

	if entry, err := grammar.Canonical(spec.Entry); err == nil && spec.Entry != "" {
		if _, ok := table[entry]; ok {
			reached := reachable(entry, graph)
			for _, name := range table.SortedNames() {
				if name != grammar.SentinelName && !reached[name] {
					report.Unreachable = append(report.Unreachable, name)
				}
			}
		}
	}

	return report
}

// referenceGraph maps canonical rule name -> rule names its alternatives use.
// Neighbor lists are sorted and deduplicated for deterministic output.
type referenceGraph map[string][]string

// buildReferenceGraph scans every alternative the way the expander tokenizes
// it: split on whitespace, strip one trailing terminator, exact lookup.
func buildReferenceGraph(table ir.RuleTable) (referenceGraph, []Reference) {
	graph := make(referenceGraph, len(table))
	undefined := []Reference{}

	for _, name := range table.SortedNames() {
		seen := map[string]bool{}
		graph[name] = []string{}
		for _, alt := range table[name] {
			for _, word := range strings.Fields(alt) {
				bare, _ := expand.SplitTerminator(word)
				if _, ok := table[bare]; ok {
					if !seen[bare] {
						seen[bare] = true
						graph[name] = append(graph[name], bare)
					}
					continue
				}
				if grammar.IsCanonical(bare) && !seen["?"+bare] {
					seen["?"+bare] = true
					undefined = append(undefined, Reference{Rule: name, Token: bare})
				}
			}
		}
		sort.Strings(graph[name])
	}

	return graph, undefined
}

// NonTerminating returns the rules that can never finish expanding, sorted.
//
// A rule terminates if one of its alternatives references only rules that
// terminate; fragments without references terminate trivially. This is the
// least fixed point of that relation, so whatever is left over loops on
// every path.
func NonTerminating(table ir.RuleTable) []string {
	// refs[name][i] lists the rules referenced by alternative i.
	refs := make(map[string][][]string, len(table))
	for name, alts := range table {
		for _, alt := range alts {
			var uses []string
			for _, word := range strings.Fields(alt) {
				bare, _ := expand.SplitTerminator(word)
				if _, ok := table[bare]; ok {
					uses = append(uses, bare)
				}
			}
			refs[name] = append(refs[name], uses)
		}
	}
	terminates := make(map[string]bool, len(table))
	for changed := true; changed; {
		changed = false
		for name, alts := range refs {
			if terminates[name] {
				continue
			}
			for _, uses := range alts {
				if allTerminate(uses, terminates) {
					terminates[name] = true
					changed = true
					break
				}
			}
		}
	}

	out := []string{}
	for _, name := range table.SortedNames() {
		if !terminates[name] {
			out = append(out, name)
		}
	}
	return out
}

func allTerminate(uses []string, terminates map[string]bool) bool {
	for _, u := range uses {
		if !terminates[u] {
			return false
		}
	}
	return true
}

// reachable returns every rule reachable from start, including start.
func reachable(start string, graph referenceGraph) map[string]bool {
	seen := map[string]bool{start: true}
	work := []string{start}
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]
		for _, m := range graph[n] {
			if !seen[m] {
				seen[m] = true
				work = append(work, m)
			}
		}
	}
	return seen
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of rule names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack to form an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	names := make([]string, 0, len(graph))
	for node := range graph {
		names = append(names, node)
	}
	sort.Strings(names)
	for _, node := range names {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
// For self-loops the path is [rule, rule].
func cycleSCCToWarning(scc []string, graph referenceGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-recursive rule: %s → %s", name, name),
			Level:   LevelWarning,
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Mutually recursive rules: %s", strings.Join(path, " → ")),
		Level:   LevelWarning,
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: start at the first node in the SCC, follow edges to other SCC
// members, continue until we return to the start node.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
