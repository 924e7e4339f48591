package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/storygen/internal/ir"
)

const selectGeneration = `
	SELECT id, seq, title, entry, seed, grammar_hash, passes, substitutions, text, engine_version
	FROM generations
`

// ListOptions filters ListGenerations.
type ListOptions struct {
	Title       string // exact title match, if set
	GrammarHash string // exact grammar hash match, if set
	Limit       int    // most recent N generations, if positive
}

// ReadGeneration retrieves a single generation by ID.
// Returns an error matching ErrNotFound if it does not exist.
func (a *Archive) ReadGeneration(ctx context.Context, id string) (ir.Generation, error) {
	row := a.db.QueryRowContext(ctx, selectGeneration+"WHERE id = ?", id)
	gen, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Generation{}, fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.Generation{}, fmt.Errorf("read generation: %w", err)
	}
	return gen, nil
}

// ListGenerations returns archived generations ordered by seq ASC, id ASC.
// With a Limit only the most recent generations are returned, still in
// ascending order.
//
// Returns an empty slice (not nil) if nothing matches.
func (a *Archive) ListGenerations(ctx context.Context, opts ListOptions) ([]ir.Generation, error) {
	var where []string
	var args []any
	if opts.Title != "" {
		where = append(where, "title = ?")
		args = append(args, opts.Title)
	}
	if opts.GrammarHash != "" {
		where = append(where, "grammar_hash = ?")
		args = append(args, opts.GrammarHash)
	}

	query := selectGeneration
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	if opts.Limit > 0 {
		query = `SELECT * FROM (` + query + `ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?)` + "\n"
		args = append(args, opts.Limit)
	}
	query += "ORDER BY seq ASC, id COLLATE BINARY ASC"

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	gens := []ir.Generation{}
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		gens = append(gens, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return gens, nil
}

// ReadGrammar retrieves the rule table stored under hash.
// Returns an error matching ErrNotFound if it does not exist.
func (a *Archive) ReadGrammar(ctx context.Context, hash string) (ir.RuleTable, error) {
	var rules string
	err := a.db.QueryRowContext(ctx, `SELECT rules FROM grammars WHERE hash = ?`, hash).Scan(&rules)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grammar %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return unmarshalRules(rules, hash)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (ir.Generation, error) {
	var gen ir.Generation
	var seed int64
	err := row.Scan(
		&gen.ID,
		&gen.Seq,
		&gen.Title,
		&gen.Entry,
		&seed,
		&gen.GrammarHash,
		&gen.Passes,
		&gen.Substitutions,
		&gen.Text,
		&gen.EngineVersion,
	)
	if err != nil {
		return ir.Generation{}, err
	}
	gen.Seed = uint64(seed)
	return gen, nil
}
