package match

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/park285/chessmatch/internal/kv"
	"github.com/park285/chessmatch/internal/rating"
)

const (
	matchBucket   = "match:"
	profileBucket = "profile:"
)

func matchKey(id string) string        { return matchBucket + id }
func profileKey(player string) string { return profileBucket + player }

func loadMatch(tx kv.Tx, id string) (*Match, error) {
	raw, err := tx.Get(matchKey(id))
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", id, err)
	}
	if raw == nil {
		return nil, errorf(KindNotFound, "match %s", id)
	}
	var g Match
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", id, err)
	}
	return &g, nil
}

func putMatch(tx kv.Tx, g *Match) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode match %s: %w", g.ID, err)
	}
	return tx.Put(matchKey(g.ID), raw)
}

// loadProfile returns nil, nil for an unknown player.
func loadProfile(tx kv.Tx, player string) (*Profile, error) {
	raw, err := tx.Get(profileKey(player))
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", player, err)
	}
	if raw == nil {
		return nil, nil
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", player, err)
	}
	return &p, nil
}

// ensureProfile loads the profile or creates it at the default rating.
func ensureProfile(tx kv.Tx, player string, now uint64) (p *Profile, created bool, err error) {
	p, err = loadProfile(tx, player)
	if err != nil || p != nil {
		return p, false, err
	}
	return &Profile{
		Player:       player,
		Name:         player,
		Rating:       rating.Default,
		CurrentGames: []string{},
		CreatedTick:  now,
	}, true, nil
}

func putProfile(tx kv.Tx, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.Player, err)
	}
	return tx.Put(profileKey(p.Player), raw)
}

func idsFromKeys(keys []string, bucket string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, bucket))
	}
	return out
}
