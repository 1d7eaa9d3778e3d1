// fencheck classifies FEN positions locally or against a running chessmatch server.
//
//	fencheck [-server URL] [-claim STATUS] [-moves] [FEN ...]
//
// With no FEN arguments, positions are read one per line from stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/msgcat"
	"github.com/park285/chessmatch/pkg/matchclient"
	"github.com/park285/chessmatch/pkg/matchdto"
)

type verifier func(ctx context.Context, fen, claimed string) (*matchdto.Verification, error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fencheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", "", "chessmatch base URL (default: verify locally)")
	claim := fs.String("claim", "", "expected status: active, checkmate, stalemate or draw")
	listMoves := fs.Bool("moves", false, "print the legal moves in SAN")
	timeout := fs.Duration("timeout", 8*time.Second, "per-request timeout for -server")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cat := msgcat.MustDefault()
	verify := localVerifier()
	if s := strings.TrimSpace(*server); s != "" {
		verify = remoteVerifier(matchclient.New(s, matchclient.WithTimeout(*timeout)))
	}

	fens := fs.Args()
	if len(fens) == 0 {
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
				fens = append(fens, line)
			}
		}
		if err := sc.Err(); err != nil {
			fmt.Fprintf(stderr, "read stdin: %v\n", err)
			return 2
		}
	}

	failed := 0
	for _, fen := range fens {
		v, err := verify(ctx, fen, *claim)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "%s\tERROR %s\n", fen, describe(cat, err))
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\tcheck=%t\tmoves=%d\n", fen, v.Status, v.Check, len(v.LegalMoves))
		if *listMoves && len(v.LegalMoves) > 0 {
			fmt.Fprintf(stdout, "\t%s\n", strings.Join(v.LegalMoves, " "))
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func localVerifier() verifier {
	mgr := match.NewManager(kv.NewMemory(), match.Config{})
	return func(_ context.Context, fen, claimed string) (*matchdto.Verification, error) {
		var (
			v   *match.Verification
			err error
		)
		if claimed != "" {
			v, err = mgr.VerifyClaim(fen, claimed)
		} else {
			v, err = mgr.VerifyPosition(fen)
		}
		if err != nil {
			return nil, err
		}
		return &matchdto.Verification{Status: v.Status, Check: v.Check, LegalMoves: v.LegalMoves, LegalMovesUCI: v.LegalMovesUCI}, nil
	}
}

func remoteVerifier(c *matchclient.Client) verifier {
	return c.Verify
}

func describe(cat *msgcat.Catalog, err error) string {
	var me *match.Error
	if errors.As(err, &me) {
		return string(me.Kind) + ": " + cat.ErrorText(string(me.Kind), me.Detail)
	}
	var apiErr matchdto.ErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.Code + ": " + apiErr.Message
	}
	return err.Error()
}
