package matchclient

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/chessmatch/internal/httpapi"
	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/position"
	"github.com/park285/chessmatch/pkg/matchdto"
)

func serve(t *testing.T, handler fasthttp.RequestHandler) func(string) (net.Conn, error) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return func(string) (net.Conn, error) { return ln.Dial() }
}

func newAPI(t *testing.T) func(string) (net.Conn, error) {
	t.Helper()
	h := httpapi.New(match.NewManager(kv.NewMemory(), match.Config{}), nil)
	return serve(t, h.Handle)
}

func TestClient_PlayFlow(t *testing.T) {
	dial := newAPI(t)
	ctx := context.Background()
	alice := New("http://chessmatch", WithDial(dial), WithPlayer("alice"))
	bob := New("http://chessmatch", WithDial(dial), WithPlayer("bob"))

	g, err := alice.CreateMatch(ctx, matchdto.CreateMatchRequest{ID: "g1", Opponent: "bob"}, 5)
	require.NoError(t, err)
	require.Equal(t, "white", g.Turn)

	_, err = bob.SubmitMove(ctx, "g1", matchdto.MoveRequest{From: "e7", To: "e5"}, 6)
	var apiErr matchdto.ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "not_your_turn", apiErr.Code)

	g, err = alice.SubmitMove(ctx, "g1", matchdto.MoveRequest{From: "e2", To: "e4"}, 6)
	require.NoError(t, err)
	require.Equal(t, 1, g.MoveCount)

	got, err := bob.GetMatch(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, g.FEN, got.FEN)

	c, err := bob.Clock(ctx, "g1", 7)
	require.NoError(t, err)
	require.False(t, c.Expired)
	require.Equal(t, match.DefaultInitialClock, c.BlackRemaining)
}

func TestClient_Positions(t *testing.T) {
	dial := newAPI(t)
	ctx := context.Background()
	c := New("http://chessmatch", WithDial(dial))

	v, err := c.Verify(ctx, position.StartFEN, "")
	require.NoError(t, err)
	require.Equal(t, "active", v.Status)

	_, err = c.Verify(ctx, position.StartFEN, "stalemate")
	var apiErr matchdto.ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "claim_mismatch", apiErr.Code)

	r, err := c.Validate(ctx, matchdto.ValidateRequest{FEN: position.StartFEN, From: "g1", To: "f3"})
	require.NoError(t, err)
	require.True(t, r.Valid)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	dial := serve(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"status":"stalemate","is_check":false,"legal_moves":[],"legal_moves_uci":[]}`)
	})
	c := New("http://chessmatch", WithDial(dial), WithRetry(3))
	v, err := c.Verify(context.Background(), "x", "")
	require.NoError(t, err)
	require.Equal(t, "stalemate", v.Status)
	require.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	_, err = c.CreateMatch(context.Background(), matchdto.CreateMatchRequest{Opponent: "b"}, 1)
	require.ErrorContains(t, err, "status=503")
	require.Equal(t, int32(1), calls.Load(), "mutations are not retried")
}

func TestClient_DrawResignOverrideAndProfiles(t *testing.T) {
	dial := newAPI(t)
	ctx := context.Background()
	alice := New("http://chessmatch", WithDial(dial), WithPlayer("alice"))
	bob := New("http://chessmatch", WithDial(dial), WithPlayer("bob"))

	p, err := alice.InitProfile(ctx, "Alice", 1)
	require.NoError(t, err)
	require.Equal(t, "Alice", p.Name)

	// ids with characters outside the path alphabet are escaped on the wire
	g, err := alice.CreateMatch(ctx, matchdto.CreateMatchRequest{ID: "game one", Opponent: "bob"}, 2)
	require.NoError(t, err)
	require.Equal(t, "game one", g.ID)

	got, err := bob.GetMatch(ctx, "game one")
	require.NoError(t, err)
	require.Equal(t, "game one", got.ID)

	g, err = alice.ProposeDraw(ctx, "game one", 3)
	require.NoError(t, err)
	require.Equal(t, "alice", g.DrawProposer)

	_, err = alice.RespondDraw(ctx, "game one", true, 4)
	var apiErr matchdto.ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "cannot_respond_to_own_proposal", apiErr.Code)

	g, err = bob.RespondDraw(ctx, "game one", true, 4)
	require.NoError(t, err)
	require.Equal(t, "draw", g.Status)
	require.Equal(t, "agreement", g.Method)

	_, err = alice.CreateMatch(ctx, matchdto.CreateMatchRequest{ID: "g2", Opponent: "bob"}, 5)
	require.NoError(t, err)
	g, err = bob.Resign(ctx, "g2", 6)
	require.NoError(t, err)
	require.Equal(t, "white_won", g.Status)
	require.Equal(t, "resignation", g.Method)

	_, err = alice.CreateMatch(ctx, matchdto.CreateMatchRequest{ID: "g3", Opponent: "bob"}, 7)
	require.NoError(t, err)
	g, err = alice.OverrideStatus(ctx, "g3", "black_won", 8)
	require.NoError(t, err)
	require.Equal(t, "black_won", g.Status)
	require.Equal(t, "adjudication", g.Method)

	ids, err := bob.MatchIDs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"game one", "g2", "g3"}, ids)

	gs, err := bob.MatchesForPlayer(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, gs, 3)

	p, err = bob.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, p.Wins)
	require.Equal(t, 1, p.Losses)
	require.Equal(t, 1, p.Draws)

	players, err := bob.Players(ctx)
	require.NoError(t, err)
	require.Contains(t, players, "alice")
	require.Contains(t, players, "bob")
}
