package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/storygen/internal/ir"
)

// Append stores a generation together with the rule table it was generated
// from, stamping it with the next seq. The stored record is returned.
//
// Grammars are content-addressed, so archiving many runs of one grammar
// stores its table once. Appending a generation whose ID already exists is a
// no-op that returns the existing record.
func (a *Archive) Append(ctx context.Context, gen ir.Generation, table ir.RuleTable) (ir.Generation, error) {
	hash, err := ir.GrammarHash(table)
	if err != nil {
		return ir.Generation{}, fmt.Errorf("append generation: %w", err)
	}
	if gen.GrammarHash == "" {
		gen.GrammarHash = hash
	}
	if gen.GrammarHash != hash {
		return ir.Generation{}, fmt.Errorf("append generation: grammar hash %s does not match rule table %s", gen.GrammarHash, hash)
	}
	if gen.ID == "" {
		return ir.Generation{}, fmt.Errorf("append generation: missing id")
	}

	rulesJSON, err := marshalRules(table)
	if err != nil {
		return ir.Generation{}, fmt.Errorf("append generation: %w", err)
	}

	// The clock only advances once the row is in, so failed and duplicate
	// appends leave no gap in seq.
	a.appendMu.Lock()
	defer a.appendMu.Unlock()

	gen.Seq = a.clock.Current() + 1
	var inserted bool
	err = a.withTx(ctx, func(tx *sql.Tx) error {
		if err := writeGrammar(ctx, tx, hash, rulesJSON, gen.Seq); err != nil {
			return err
		}
		var err error
		inserted, err = writeGeneration(ctx, tx, gen)
		return err
	})
	if err != nil {
		return ir.Generation{}, fmt.Errorf("append generation: %w", err)
	}
	if !inserted {
		return a.ReadGeneration(ctx, gen.ID)
	}
	a.clock.Next()
	return gen, nil
}

// WriteGrammar stores a rule table and returns its hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency.
func (a *Archive) WriteGrammar(ctx context.Context, table ir.RuleTable) (string, error) {
	hash, err := ir.GrammarHash(table)
	if err != nil {
		return "", fmt.Errorf("write grammar: %w", err)
	}
	rulesJSON, err := marshalRules(table)
	if err != nil {
		return "", fmt.Errorf("write grammar: %w", err)
	}
	err = a.withTx(ctx, func(tx *sql.Tx) error {
		return writeGrammar(ctx, tx, hash, rulesJSON, a.clock.Current())
	})
	if err != nil {
		return "", fmt.Errorf("write grammar: %w", err)
	}
	return hash, nil
}

func writeGrammar(ctx context.Context, tx *sql.Tx, hash, rulesJSON string, seq int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO grammars (hash, rules, created_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, rulesJSON, seq)
	if err != nil {
		return fmt.Errorf("write grammar: %w", err)
	}
	return nil
}

// writeGeneration inserts gen and reports whether a row was added.
// Duplicate IDs are silently ignored.
func writeGeneration(ctx context.Context, tx *sql.Tx, gen ir.Generation) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO generations
		(id, seq, title, entry, seed, grammar_hash, passes, substitutions, text, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		gen.ID,
		gen.Seq,
		gen.Title,
		gen.Entry,
		int64(gen.Seed),
		gen.GrammarHash,
		gen.Passes,
		gen.Substitutions,
		gen.Text,
		gen.EngineVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write generation: %w", err)
	}
	return n > 0, nil
}
