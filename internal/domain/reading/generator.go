package reading

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/domain/zodiac"
)

var elementPhrases = map[zodiac.Element]string{
	zodiac.Wood:  "Wood's growing wild and refuses to be pruned",
	zodiac.Fire:  "Fire's lit but reckless",
	zodiac.Earth: "Earth's steady under your feet",
	zodiac.Metal: "Metal's sharp and a little unbending",
	zodiac.Water: "Water's running deeper than you admit",
}

var dailyNudges = []string{
	"Try not to overthink every text today.",
	"Say yes to one small adventure.",
	"Guard your energy before lunch.",
	"Someone is about to surprise you.",
	"Finish what you started yesterday.",
	"Drink the water, send the email.",
}

// LocalGenerator derives a reading from the birth date and the local calendar day.
// The same inputs on the same day always yield the same reading apart from Date.
type LocalGenerator struct {
	loc *time.Location
}

// NewLocalGenerator returns a generator bound to loc for day boundaries.
func NewLocalGenerator(loc *time.Location) *LocalGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &LocalGenerator{loc: loc}
}

// Generate implements Generator.
func (g *LocalGenerator) Generate(p profile.UserProfile, now time.Time) Response {
	seed := g.seed(p, now)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	sign := zodiac.Sign(p.BirthYear)
	yearElement := zodiac.YearElement(p.BirthYear)

	weights := make([]float64, len(zodiac.Elements))
	for i, el := range zodiac.Elements {
		weights[i] = float64(10 + rng.IntN(30))
		if el == yearElement {
			weights[i] += 25
		}
	}
	percents := largestRemainder(weights, 100)

	balance := make(map[string]float64, len(zodiac.Elements))
	dominant := 0
	for i, el := range zodiac.Elements {
		balance[string(el)] = float64(percents[i])
		if percents[i] > percents[dominant] {
			dominant = i
		}
	}
	dominantEl := zodiac.Elements[dominant]

	resp := Response{
		Zodiac:           sign,
		DominantElement:  string(dominantEl),
		ElementPercent:   float64(percents[dominant]),
		ElementalBalance: balance,
		Reading: fmt.Sprintf("Your %s's a %s, %s. %s The universe has spoken.",
			sign, zodiac.Traits(sign), elementPhrases[dominantEl], dailyNudges[rng.IntN(len(dailyNudges))]),
		Date: now.UTC().Format(isoLayout),
	}
	if hour, ok := p.BirthHour(); ok {
		resp.HourZodiac = zodiac.HourSign(hour)
	}
	return resp
}

func (g *LocalGenerator) seed(p profile.UserProfile, now time.Time) uint64 {
	hour := -1
	if h, ok := p.BirthHour(); ok {
		hour = h
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%04d-%02d-%02d|%d|%s", p.BirthYear, p.BirthMonth, p.BirthDay, hour, now.In(g.loc).Format("2006-01-02"))
	return h.Sum64()
}

// largestRemainder scales weights to integers summing exactly to total.
func largestRemainder(weights []float64, total int) []int {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	out := make([]int, len(weights))
	if sum <= 0 {
		out[0] = total
		return out
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, len(weights))
	assigned := 0
	for i, w := range weights {
		exact := w * float64(total) / sum
		out[i] = int(exact)
		assigned += out[i]
		rems[i] = remainder{idx: i, frac: exact - float64(out[i])}
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < total; i++ {
		out[rems[i%len(rems)].idx]++
		assigned++
	}
	return out
}
