// Package httpapi exposes the match manager over HTTP with fasthttp.
//
// The caller is identified by the X-Player-Id header and the logical clock by
// X-Tick; requests without X-Tick use the server's Unix time in seconds.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/msgcat"
	"github.com/park285/chessmatch/internal/obslog"
	"github.com/park285/chessmatch/pkg/matchdto"
)

const (
	HeaderPlayer    = "X-Player-Id"
	HeaderTick      = "X-Tick"
	HeaderRequestID = "X-Request-Id"
)

// Service is the subset of *match.Manager the handler dispatches to.
type Service interface {
	InitializeProfile(ctx context.Context, caller, name string, now uint64) (*match.Profile, error)
	CreateMatch(ctx context.Context, caller, id, opponent, timeControl string, now uint64) (*match.Match, error)
	SubmitMove(ctx context.Context, caller, id, from, to, promotion string, now uint64) (*match.Match, error)
	Resign(ctx context.Context, caller, id string, now uint64) (*match.Match, error)
	OverrideStatus(ctx context.Context, caller, id, label string, now uint64) (*match.Match, error)
	ProposeDraw(ctx context.Context, caller, id string, now uint64) (*match.Match, error)
	RespondDraw(ctx context.Context, caller, id string, accept bool, now uint64) (*match.Match, error)
	ClockStatus(ctx context.Context, id string, now uint64) (*match.ClockStatus, error)
	VerifyPosition(fen string) (*match.Verification, error)
	VerifyClaim(fen, claimed string) (*match.Verification, error)
	ValidateMove(fen, from, to, promotion string) match.MoveCheck
	GetMatch(ctx context.Context, id string) (*match.Match, error)
	MatchIDs(ctx context.Context) ([]string, error)
	MatchesForPlayer(ctx context.Context, player string) ([]*match.Match, error)
	GetProfile(ctx context.Context, player string) (*match.Profile, error)
	Players(ctx context.Context) ([]string, error)
}

type Handler struct {
	svc Service
	cat *msgcat.Catalog
	now func() uint64
}

func New(svc Service, cat *msgcat.Catalog) *Handler {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	return &Handler{
		svc: svc,
		cat: cat,
		now: func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// Handle is the fasthttp.RequestHandler for the whole API.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	reqID := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	h.route(ctx)

	obslog.L().Debug("http_request",
		zap.String("request_id", reqID),
		zap.ByteString("method", ctx.Method()),
		zap.ByteString("path", ctx.Path()),
		zap.ByteString("player", ctx.Request.Header.Peek(HeaderPlayer)),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("took", time.Since(start)),
	)
}

func (h *Handler) route(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	get, post := method == fasthttp.MethodGet, method == fasthttp.MethodPost

	switch {
	case len(parts) == 1 && parts[0] == "profiles" && get:
		h.players(ctx)
	case len(parts) == 1 && parts[0] == "profiles" && post:
		h.initProfile(ctx)
	case len(parts) == 2 && parts[0] == "profiles" && get:
		h.getProfile(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "profiles" && parts[2] == "matches" && get:
		h.playerMatches(ctx, parts[1])

	case len(parts) == 1 && parts[0] == "matches" && get:
		h.matchIDs(ctx)
	case len(parts) == 1 && parts[0] == "matches" && post:
		h.createMatch(ctx)
	case len(parts) == 2 && parts[0] == "matches" && get:
		h.getMatch(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "matches" && parts[2] == "clock" && get:
		h.clock(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "matches" && parts[2] == "moves" && post:
		h.submitMove(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "matches" && parts[2] == "resign" && post:
		h.resign(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "matches" && parts[2] == "status" && post:
		h.override(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "matches" && parts[2] == "draw" && post:
		h.proposeDraw(ctx, parts[1])
	case len(parts) == 4 && parts[0] == "matches" && parts[2] == "draw" && parts[3] == "respond" && post:
		h.respondDraw(ctx, parts[1])

	case len(parts) == 2 && parts[0] == "positions" && parts[1] == "verify" && post:
		h.verify(ctx)
	case len(parts) == 2 && parts[0] == "positions" && parts[1] == "validate" && post:
		h.validate(ctx)

	default:
		h.writeMessage(ctx, fasthttp.StatusNotFound, "not_routed", "http.not_routed",
			map[string]string{"Method": method, "Path": string(ctx.Path())})
	}
}

func (h *Handler) players(ctx *fasthttp.RequestCtx) {
	ids, err := h.svc.Players(ctx)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, matchdto.IDList{IDs: ids})
}

func (h *Handler) initProfile(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	var req matchdto.InitProfileRequest
	if !h.decode(ctx, &req) {
		return
	}
	now, ok := h.tick(ctx)
	if !ok {
		return
	}
	p, err := h.svc.InitializeProfile(ctx, caller, req.Name, now)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, profileState(p))
}

func (h *Handler) getProfile(ctx *fasthttp.RequestCtx, player string) {
	p, err := h.svc.GetProfile(ctx, player)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, profileState(p))
}

func (h *Handler) playerMatches(ctx *fasthttp.RequestCtx, player string) {
	gs, err := h.svc.MatchesForPlayer(ctx, player)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	out := matchdto.MatchList{Matches: make([]*matchdto.MatchState, 0, len(gs))}
	for _, g := range gs {
		out.Matches = append(out.Matches, matchState(g))
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (h *Handler) matchIDs(ctx *fasthttp.RequestCtx) {
	ids, err := h.svc.MatchIDs(ctx)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, matchdto.IDList{IDs: ids})
}

func (h *Handler) createMatch(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	var req matchdto.CreateMatchRequest
	if !h.decode(ctx, &req) {
		return
	}
	now, ok := h.tick(ctx)
	if !ok {
		return
	}
	g, err := h.svc.CreateMatch(ctx, caller, req.ID, req.Opponent, req.TimeControl, now)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, matchState(g))
}

func (h *Handler) getMatch(ctx *fasthttp.RequestCtx, id string) {
	g, err := h.svc.GetMatch(ctx, id)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, matchState(g))
}

func (h *Handler) clock(ctx *fasthttp.RequestCtx, id string) {
	now, ok := h.tick(ctx)
	if !ok {
		return
	}
	c, err := h.svc.ClockStatus(ctx, id, now)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, clockState(c))
}

func (h *Handler) submitMove(ctx *fasthttp.RequestCtx, id string) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	var req matchdto.MoveRequest
	if !h.decode(ctx, &req) {
		return
	}
	now, ok := h.tick(ctx)
	if !ok {
		return
	}
	g, err := h.svc.SubmitMove(ctx, caller, id, req.From, req.To, req.Promotion, now)
	if err != nil {
		// a timeout commits the loss and still returns the match
		h.fail(ctx, err, g)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, matchState(g))
}

func (h *Handler) resign(ctx *fasthttp.RequestCtx, id string) {
	h.transition(ctx, func(caller string, now uint64) (*match.Match, error) {
		return h.svc.Resign(ctx, caller, id, now)
	})
}

func (h *Handler) proposeDraw(ctx *fasthttp.RequestCtx, id string) {
	h.transition(ctx, func(caller string, now uint64) (*match.Match, error) {
		return h.svc.ProposeDraw(ctx, caller, id, now)
	})
}

func (h *Handler) override(ctx *fasthttp.RequestCtx, id string) {
	var req matchdto.OverrideRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.transition(ctx, func(caller string, now uint64) (*match.Match, error) {
		return h.svc.OverrideStatus(ctx, caller, id, req.Status, now)
	})
}

func (h *Handler) respondDraw(ctx *fasthttp.RequestCtx, id string) {
	var req matchdto.RespondDrawRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.transition(ctx, func(caller string, now uint64) (*match.Match, error) {
		return h.svc.RespondDraw(ctx, caller, id, req.Accept, now)
	})
}

func (h *Handler) transition(ctx *fasthttp.RequestCtx, fn func(caller string, now uint64) (*match.Match, error)) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	now, ok := h.tick(ctx)
	if !ok {
		return
	}
	g, err := fn(caller, now)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, matchState(g))
}

func (h *Handler) verify(ctx *fasthttp.RequestCtx) {
	var req matchdto.VerifyRequest
	if !h.decode(ctx, &req) {
		return
	}
	var (
		v   *match.Verification
		err error
	)
	if strings.TrimSpace(req.Claimed) != "" {
		v, err = h.svc.VerifyClaim(req.FEN, req.Claimed)
	} else {
		v, err = h.svc.VerifyPosition(req.FEN)
	}
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, verification(v))
}

func (h *Handler) validate(ctx *fasthttp.RequestCtx) {
	var req matchdto.ValidateRequest
	if !h.decode(ctx, &req) {
		return
	}
	res := h.svc.ValidateMove(req.FEN, req.From, req.To, req.Promotion)
	out := matchdto.ValidateResponse{Valid: res.Valid, FEN: res.FEN}
	if res.Err != nil {
		kind, detail := describe(res.Err)
		out.Code = kind
		out.Message = h.cat.ErrorText(kind, detail)
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (h *Handler) caller(ctx *fasthttp.RequestCtx) (string, bool) {
	p := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderPlayer)))
	if p == "" {
		h.writeMessage(ctx, fasthttp.StatusBadRequest, "missing_player", "http.missing_player", nil)
		return "", false
	}
	return p, true
}

func (h *Handler) tick(ctx *fasthttp.RequestCtx) (uint64, bool) {
	raw := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderTick)))
	if raw == "" {
		return h.now(), true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.writeMessage(ctx, fasthttp.StatusBadRequest, "bad_tick", "http.bad_tick", nil)
		return 0, false
	}
	return n, true
}

// decode accepts an empty body as the zero request.
func (h *Handler) decode(ctx *fasthttp.RequestCtx, v any) bool {
	body := ctx.PostBody()
	if len(strings.TrimSpace(string(body))) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		h.writeMessage(ctx, fasthttp.StatusBadRequest, "bad_body", "http.bad_body", nil)
		return false
	}
	return true
}

func (h *Handler) fail(ctx *fasthttp.RequestCtx, err error, g *match.Match) {
	if _, ok := match.KindOf(err); !ok {
		obslog.L().Error("http_internal_error",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err),
		)
		h.writeMessage(ctx, fasthttp.StatusInternalServerError, "internal", "http.internal", nil)
		return
	}
	kind, detail := describe(err)
	writeJSON(ctx, statusFor(match.Kind(kind)), matchdto.ErrorResponse{
		Code:    kind,
		Message: h.cat.ErrorText(kind, detail),
		Detail:  detail,
		Match:   matchState(g),
	})
}

func describe(err error) (kind, detail string) {
	var e *match.Error
	if errors.As(err, &e) {
		return string(e.Kind), e.Detail
	}
	return "internal", err.Error()
}

func (h *Handler) writeMessage(ctx *fasthttp.RequestCtx, status int, code, key string, data any) {
	msg, err := h.cat.Render(key, data)
	if err != nil {
		msg = code
	}
	writeJSON(ctx, status, matchdto.ErrorResponse{Code: code, Message: msg})
}

// 도메인 오류 종류를 HTTP 상태 코드로 매핑.
func statusFor(kind match.Kind) int {
	switch kind {
	case match.KindNotFound:
		return fasthttp.StatusNotFound
	case match.KindNotParticipant:
		return fasthttp.StatusForbidden
	case match.KindNotYourTurn, match.KindGameNotActive, match.KindGameAlreadyExists,
		match.KindDrawAlreadyProposed, match.KindNoDrawProposal,
		match.KindCannotRespondToOwnProposal, match.KindTimeExpired:
		return fasthttp.StatusConflict
	case match.KindNoPieceAtSource, match.KindIllegalMove, match.KindClaimMismatch:
		return fasthttp.StatusUnprocessableEntity
	default:
		return fasthttp.StatusBadRequest
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(b)
}
