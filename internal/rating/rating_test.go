package rating

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdate_Table(t *testing.T) {
	cases := []struct {
		name             string
		winner, loser    int
		draw             bool
		wantWin, wantLos int
	}{
		{"equal decisive", 1200, 1200, false, 1216, 1184},
		{"equal draw", 1200, 1200, true, 1200, 1200},
		{"favourite wins", 1400, 1200, false, 1407, 1193},
		{"underdog wins", 1200, 1400, false, 1224, 1376},
		{"draw against stronger", 1200, 1400, true, 1208, 1392},
		{"diff clamps at 800", 2400, 1000, false, 2401, 999},
		{"band edge 25", 1225, 1200, false, 1241, 1184},
		{"band edge 26", 1226, 1200, false, 1240, 1186},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, l := Update(tc.winner, tc.loser, tc.draw)
			require.Equal(t, tc.wantWin, w)
			require.Equal(t, tc.wantLos, l)
		})
	}
}

func TestUpdate_Floor(t *testing.T) {
	for _, r := range []int{0, 1, 50, 100, 101, 110, 115} {
		for _, o := range []int{0, 100, 1200, 3000} {
			for _, draw := range []bool{false, true} {
				w, l := Update(o, r, draw)
				require.GreaterOrEqual(t, w, Floor)
				require.GreaterOrEqual(t, l, Floor)
			}
		}
	}
	_, l := Update(110, 100, false)
	require.Equal(t, Floor, l)
}

func TestUpdate_DrawSymmetry(t *testing.T) {
	for _, a := range []int{100, 1000, 1200, 1337, 2100} {
		for _, b := range []int{100, 1190, 1200, 1650, 2900} {
			a1, b1 := Update(a, b, true)
			b2, a2 := Update(b, a, true)
			require.Equal(t, a1, a2, "a=%d b=%d", a, b)
			require.Equal(t, b1, b2, "a=%d b=%d", a, b)
		}
	}
}
