package scoring

import (
	"strings"
	"time"
)

// Mode selects which rank ladder applies.
type Mode string

const (
	ModeSpeed     Mode = "speed"
	ModePrecision Mode = "precision"
)

// Rank is a coarse skill label from D to SR.
type Rank string

const (
	RankD      Rank = "D"
	RankC      Rank = "C"
	RankCPlus  Rank = "C+"
	RankBMinus Rank = "B-"
	RankB      Rank = "B"
	RankBPlus  Rank = "B+"
	RankAMinus Rank = "A-"
	RankA      Rank = "A"
	RankAPlus  Rank = "A+"
	RankS      Rank = "S"
	RankSPlus  Rank = "S+"
	RankSR     Rank = "SR"
)

// speedLadder maps inclusive upper WPM bounds to labels. Anything above
// the last bound is SR.
var speedLadder = []struct {
	upTo float64
	rank Rank
}{
	{20, RankD},
	{30, RankC},
	{35, RankCPlus},
	{40, RankBMinus},
	{45, RankB},
	{50, RankBPlus},
	{55, RankAMinus},
	{60, RankA},
	{65, RankAPlus},
	{70, RankS},
	{75, RankSPlus},
}

// Classify maps averaged speed and accuracy to a rank on the ladder for mode.
func Classify(wpm, accuracy float64, mode Mode) Rank {
	if mode == ModeSpeed {
		for _, step := range speedLadder {
			if wpm <= step.upTo {
				return step.rank
			}
		}
		return RankSR
	}

	switch {
	case accuracy < 50:
		return RankD
	case accuracy < 70 || wpm < 20:
		return RankC
	case accuracy < 80 || wpm < 30:
		return RankB
	case accuracy < 90 || wpm < 40:
		return RankA
	case accuracy < 95 || wpm < 50:
		return RankS
	}
	return RankSR
}

// TrainingRanks are the ranks a user can pick to calibrate training.
var TrainingRanks = []Rank{RankD, RankC, RankB, RankA, RankS, RankSR}

var trainingWPM = map[Rank]float64{
	RankD:  20,
	RankC:  35,
	RankB:  50,
	RankA:  70,
	RankS:  80,
	RankSR: 90,
}

// ParseTrainingRank returns the training rank named by s.
func ParseTrainingRank(s string) (Rank, bool) {
	r := Rank(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := trainingWPM[r]
	return r, ok
}

// TimeAllowed is the time budget for typing promptLen characters at the
// target speed of rank, plus Allowance. Unknown ranks use the D target.
func TimeAllowed(rank Rank, promptLen int) time.Duration {
	target, ok := trainingWPM[rank]
	if !ok {
		target = trainingWPM[RankD]
	}
	seconds := float64(promptLen) / (target * 5) * 60
	return time.Duration(seconds*float64(time.Second)) + Allowance
}

// ShiroOniThreshold is the best speed WPM that earns the Shiro Oni badge.
const ShiroOniThreshold = 76

// ShiroOni reports whether the best speed earns the badge.
func ShiroOni(bestSpeedWPM int) bool {
	return bestSpeedWPM >= ShiroOniThreshold
}

var descriptions = map[Rank]string{
	RankD:      "Tu tapes mais on dirait que tu es en prison. Continue l'entraînement!",
	RankC:      "Tu peux écrire des pavés, avec quelques pauses.",
	RankCPlus:  "Main rapide, mais tu comptes encore sur l'autocorrect.",
	RankBMinus: "Tu commences à enchaîner sans réfléchir, il reste des fautes.",
	RankB:      "Tu tiens une discussion rapide sans trop de fautes.",
	RankBPlus:  "Tu as la gestuelle d'un hacker de film.",
	RankAMinus: "Rapide et propre, mais tu regardes encore le clavier.",
	RankA:      "Un couplet entier sans faute en dix secondes.",
	RankAPlus:  "Pleine vitesse, pleine précision.",
	RankS:      "Dans le flow, zéro hésitation, aucune faute.",
	RankSPlus:  "On t'appelle Shiro Oni sans même te connaître.",
	RankSR:     "Main gauche, main droite: le Yin et le Yang du clavier.",
}

// Describe returns the flavor line shown next to a rank.
func Describe(r Rank) string {
	return descriptions[r]
}
