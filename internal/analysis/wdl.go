package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/corentings/chess/v2"
)

// WDL is a win/draw/loss expectation in permille, summing to 1000.
type WDL struct {
	Wins   int
	Draws  int
	Losses int
}

// Expectation returns the expected score in [0,1]: a draw counts half.
func (w WDL) Expectation() float64 {
	total := w.Wins + w.Draws + w.Losses
	if total == 0 {
		return 0.5
	}
	return (float64(w.Wins) + 0.5*float64(w.Draws)) / float64(total)
}

// WDLModel maps a centipawn score at a given game ply to a WDL expectation.
// Implementations must be monotonic in cp for a fixed ply.
type WDLModel interface {
	Name() string
	WDL(cp, ply int) WDL
}

// DefaultModel is the model identifier used when none is configured.
const DefaultModel = "sf"

// WinProbability converts score into the probability-like expected score
// for color. Mates ignore distance: delivering mate is 1, receiving it 0.
func WinProbability(score PovScore, color chess.Color, model WDLModel) float64 {
	s := score.Pov(color).Score
	if s.IsMate() {
		if s.Winning() {
			return 1
		}
		return 0
	}
	cp, _ := s.CP()
	return model.WDL(cp, score.Ply).Expectation()
}

// winRateFunc returns the permille win rate for the side holding cp.
type winRateFunc func(cp, ply int) int

type polynomialModel struct {
	name string
	wins winRateFunc
}

func (m polynomialModel) Name() string { return m.name }

func (m polynomialModel) WDL(cp, ply int) WDL {
	w := m.wins(cp, ply)
	l := m.wins(-cp, ply)
	return WDL{Wins: w, Draws: 1000 - w - l, Losses: l}
}

type lichessModel struct{}

func (lichessModel) Name() string { return "lichess" }

func (lichessModel) WDL(cp, _ int) WDL {
	cp = clampInt(cp, -1000, 1000)
	w := int(math.Round(1000 / (1 + math.Exp(-0.00368208*float64(cp)))))
	return WDL{Wins: w, Draws: 0, Losses: 1000 - w}
}

// logistic evaluates the Stockfish win-rate curve 1000 / (1 + e^((a-x)/b)),
// rounded half up to permille.
func logistic(a, b, x float64) int {
	return int(0.5 + 1000/(1+math.Exp((a-x)/b)))
}

// phase returns the clamped game-phase coordinate used by the sf12..sf16
// polynomials.
func phase(ply int) float64 {
	return float64(clampInt(ply, 0, 240)) / 64
}

func sf16_1Wins(cp, ply int) int {
	const normalizeToPawnValue = 356
	m := math.Min(120, math.Max(8, float64(ply)/2+1)) / 32
	a := (((-1.06249702*m+7.42016937)*m+0.89425629)*m + 348.60356174)
	b := (((-5.33122190*m+39.57831533)*m+-90.84473771)*m + 123.40620748)
	x := math.Min(4000, math.Max(float64(cp)*normalizeToPawnValue/100, -4000))
	return logistic(a, b, x)
}

func sf16Wins(cp, ply int) int {
	const normalizeToPawnValue = 328
	m := phase(ply)
	a := (((0.38036525*m+-2.82015070)*m+23.17882135)*m + 307.36768407)
	b := (((-2.29434733*m+13.27689788)*m+-14.26828904)*m + 63.45318330)
	x := math.Min(4000, math.Max(float64(cp)*normalizeToPawnValue/100, -4000))
	return logistic(a, b, x)
}

func sf15_1Wins(cp, ply int) int {
	const normalizeToPawnValue = 361
	m := phase(ply)
	a := (((-0.58270499*m+2.68512549)*m+15.24638015)*m + 344.49745382)
	b := (((-2.65734562*m+15.96509799)*m+-20.69040836)*m + 73.61029937)
	x := math.Min(4000, math.Max(float64(cp)*normalizeToPawnValue/100, -4000))
	return logistic(a, b, x)
}

func sf15Wins(cp, ply int) int {
	m := phase(ply)
	a := (((-1.17202460e-1*m+5.94729104e-1)*m+1.12065546e+1)*m + 1.22606222e+2)
	b := (((-1.79066759*m+11.30759193)*m+-17.43677612)*m + 36.47147479)
	x := math.Min(2000, math.Max(float64(cp), -2000))
	return logistic(a, b, x)
}

func sf14Wins(cp, ply int) int {
	m := phase(ply)
	a := (((-3.68389304*m+30.07065921)*m+-60.52878723)*m + 149.53378557)
	b := (((-2.01818570*m+15.85685038)*m+-29.83452023)*m + 47.59078827)
	x := math.Min(2000, math.Max(float64(cp), -2000))
	return logistic(a, b, x)
}

func sf12Wins(cp, ply int) int {
	m := phase(ply)
	a := (((-8.24404295*m+64.23892342)*m+-95.73056462)*m + 153.86478679)
	b := (((-3.37154371*m+28.44489198)*m+-56.67657603)*m + 72.05858751)
	x := math.Min(1000, math.Max(float64(cp), -1000))
	return logistic(a, b, x)
}

var models = map[string]WDLModel{
	"sf16.1":  polynomialModel{name: "sf16.1", wins: sf16_1Wins},
	"sf16":    polynomialModel{name: "sf16", wins: sf16Wins},
	"sf15.1":  polynomialModel{name: "sf15.1", wins: sf15_1Wins},
	"sf15":    polynomialModel{name: "sf15", wins: sf15Wins},
	"sf14":    polynomialModel{name: "sf14", wins: sf14Wins},
	"sf12":    polynomialModel{name: "sf12", wins: sf12Wins},
	"lichess": lichessModel{},
}

// ModelByName resolves a model identifier. "sf" tracks the newest
// Stockfish model.
func ModelByName(name string) (WDLModel, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "sf" {
		key = "sf16.1"
	}
	m, ok := models[key]
	if !ok {
		return nil, fmt.Errorf("unknown wdl model %q (known: %s)", name, strings.Join(ModelNames(), ", "))
	}
	return m, nil
}

// ModelNames lists the accepted model identifiers.
func ModelNames() []string {
	names := []string{"sf"}
	for k := range models {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
