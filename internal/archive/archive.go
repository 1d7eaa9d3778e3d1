// Package archive stores finished matches in PostgreSQL with a PGN rendering.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/position"
)

const schema = `CREATE TABLE IF NOT EXISTS match_results (
  match_id       TEXT PRIMARY KEY,
  white_id       TEXT NOT NULL,
  black_id       TEXT NOT NULL,
  time_control   TEXT NOT NULL DEFAULT '',
  status         TEXT NOT NULL,
  result_method  TEXT NOT NULL DEFAULT '',
  moves_uci      JSONB NOT NULL,
  moves_san      JSONB NOT NULL,
  final_fen      TEXT NOT NULL,
  pgn            TEXT NOT NULL,
  move_count     INTEGER NOT NULL,
  created_tick   BIGINT NOT NULL,
  last_move_tick BIGINT NOT NULL,
  archived_at    TIMESTAMPTZ NOT NULL
)`

const upsert = `INSERT INTO match_results (
    match_id, white_id, black_id, time_control,
    status, result_method, moves_uci, moves_san, final_fen, pgn,
    move_count, created_tick, last_move_tick, archived_at
  ) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
  ) ON CONFLICT (match_id) DO UPDATE SET
    white_id=EXCLUDED.white_id,
    black_id=EXCLUDED.black_id,
    time_control=EXCLUDED.time_control,
    status=EXCLUDED.status,
    result_method=EXCLUDED.result_method,
    moves_uci=EXCLUDED.moves_uci,
    moves_san=EXCLUDED.moves_san,
    final_fen=EXCLUDED.final_fen,
    pgn=EXCLUDED.pgn,
    move_count=EXCLUDED.move_count,
    created_tick=EXCLUDED.created_tick,
    last_move_tick=EXCLUDED.last_move_tick,
    archived_at=EXCLUDED.archived_at`

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveResult upserts a finished match. Active matches are ignored.
func (r *Repository) SaveResult(ctx context.Context, g *match.Match) error {
	if r == nil || r.db == nil || g == nil || !g.Status.Terminal() {
		return nil
	}
	san, err := position.Notate(position.StartFEN, g.Moves)
	if err != nil {
		return fmt.Errorf("notate %s: %w", g.ID, err)
	}
	movesUCI, err := json.Marshal(nonNil(g.Moves))
	if err != nil {
		return err
	}
	movesSAN, err := json.Marshal(san)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsert,
		g.ID, g.White, g.Black, g.TimeControl,
		string(g.Status), string(g.Method), string(movesUCI), string(movesSAN), g.FEN,
		BuildPGN(g, san),
		g.MoveCount, int64(g.CreatedTick), int64(g.LastMoveTick), r.now().UTC(),
	)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ResultToken maps a status to the PGN result field.
func ResultToken(s match.Status) string {
	switch s {
	case match.StatusWhiteWon:
		return "1-0"
	case match.StatusBlackWon:
		return "0-1"
	case match.StatusDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func terminationLabel(m match.Method) string {
	switch m {
	case match.MethodCheckmate:
		return "checkmate"
	case match.MethodStalemate:
		return "stalemate"
	case match.MethodInsufficientMaterial:
		return "insufficient material"
	case match.MethodResignation:
		return "resignation"
	case match.MethodTimeout:
		return "timeout"
	case match.MethodAgreement:
		return "agreement"
	case match.MethodAdjudication:
		return "adjudication"
	}
	return ""
}

// BuildPGN renders the match headers and numbered SAN movetext.
func BuildPGN(g *match.Match, san []string) string {
	if g == nil {
		return ""
	}
	result := ResultToken(g.Status)
	var b strings.Builder
	b.WriteString("[Event \"chessmatch\"]\n")
	fmt.Fprintf(&b, "[Round \"%s\"]\n", sanitizePGN(g.ID))
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(g.White))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(g.Black))
	if tc := strings.TrimSpace(g.TimeControl); tc != "" {
		fmt.Fprintf(&b, "[TimeControl \"%s\"]\n", sanitizePGN(tc))
	}
	if t := terminationLabel(g.Method); t != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", t)
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", result)

	for i := 0; i < len(san); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, strings.TrimSpace(san[i]))
		if i+1 < len(san) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(san[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
