package systems

import (
	"math"

	"github.com/pthm-cable/serpent/components"
	"github.com/pthm-cable/serpent/config"
)

// obstacle is a circle the safety layer must keep clear of.
type obstacle struct {
	pos    components.Vec2
	radius float64
	head   bool
}

// SafetyLayer vets a desired direction with forward lookahead samples and,
// when it is unsafe, picks the cheapest direction from a fan of candidates.
type SafetyLayer struct {
	cfg     *config.SafetyConfig
	derived *config.DerivedConfig
	width   float64
	height  float64

	obstacles []obstacle
	angles    []float64
}

// NewSafetyLayer creates a safety layer for the given world.
func NewSafetyLayer(cfg *config.Config) *SafetyLayer {
	return &SafetyLayer{
		cfg:       &cfg.Safety,
		derived:   &cfg.Derived,
		width:     cfg.World.Width,
		height:    cfg.World.Height,
		obstacles: make([]obstacle, 0, 64),
		angles:    make([]float64, 0, 32),
	}
}

// Gather collects obstacles near self: every other agent's head pushed
// forward along its velocity, plus a sampled subset of its body. The boss
// body, if given, is included the same way.
func (l *SafetyLayer) Gather(self *components.Snake, roster []*components.Snake, boss *components.Snake) {
	l.obstacles = l.obstacles[:0]
	reach := l.cfg.ScanRadius
	if n := len(l.cfg.Lookahead); n > 0 {
		reach += l.cfg.Lookahead[n-1]
	}
	reachSq := reach * reach

	add := func(o *components.Snake) {
		if o == nil || o == self || !o.Alive {
			return
		}
		if components.DistSq(self.Pos, o.Pos) <= reachSq {
			head := o.Pos.Add(o.Vel.Scale(l.cfg.HeadExtrapolation))
			l.obstacles = append(l.obstacles, obstacle{pos: head, radius: o.HeadRadius, head: true})
		}
		for i := 1; i < len(o.Segments); i += l.cfg.BodySampleStep {
			seg := o.Segments[i]
			p := components.Vec2{X: seg.X, Y: seg.Y}
			if components.DistSq(self.Pos, p) <= reachSq {
				l.obstacles = append(l.obstacles, obstacle{pos: p, radius: seg.Radius})
			}
		}
	}
	for _, o := range roster {
		add(o)
	}
	add(boss)
}

// levelConfig returns the fan for a level; levels below 3 use the level 2 fan.
func (l *SafetyLayer) levelConfig(level int) (cfg config.SafetyLevelConfig, step, span float64) {
	if level >= 3 {
		return l.cfg.Level3, l.derived.Level3StepRad, l.derived.Level3FanRad
	}
	return l.cfg.Level2, l.derived.Level2StepRad, l.derived.Level2FanRad
}

// Cost scores heading angle against the desired heading for a level:
// angular deviation plus weighted intrusion into obstacle clearance, with
// nearer samples weighted more. Leaving the world is +Inf.
func (l *SafetyLayer) Cost(self *components.Snake, angle, desired float64, level int) float64 {
	lc, _, _ := l.levelConfig(level)
	intrusion, catastrophic := l.probe(self, angle)
	if catastrophic {
		return math.Inf(1)
	}
	return l.cfg.DeviationWeight*math.Abs(angleDelta(desired, angle)) + lc.IntrusionWeight*intrusion
}

// Safe reports whether heading angle is free of walls and obstacle clearance.
func (l *SafetyLayer) Safe(self *components.Snake, angle float64) bool {
	intrusion, catastrophic := l.probe(self, angle)
	return !catastrophic && intrusion == 0
}

// probe samples the lookahead points along angle.
func (l *SafetyLayer) probe(self *components.Snake, angle float64) (intrusion float64, catastrophic bool) {
	dir := components.FromAngle(angle)
	r := self.HeadRadius
	for k, d := range l.cfg.Lookahead {
		p := self.Pos.Add(dir.Scale(d))
		if p.X < r || p.X > l.width-r || p.Y < r || p.Y > l.height-r {
			return 0, true
		}
		weight := 1 / float64(k+1)
		for _, o := range l.obstacles {
			clearance := r + o.radius + l.cfg.Buffer
			dist := components.Dist(p, o.pos)
			if dist < clearance {
				intrusion += weight * (clearance - dist)
			}
		}
	}
	return intrusion, false
}

// CandidateAngles returns the fan of headings tried at a level, desired
// first, then alternating sides at growing offsets.
func (l *SafetyLayer) CandidateAngles(desired float64, level int) []float64 {
	_, step, span := l.levelConfig(level)
	l.angles = append(l.angles[:0], desired)
	if !(step > 0) {
		return l.angles
	}
	n := int(math.Floor(span/step + 1e-9))
	for m := 1; m <= n; m++ {
		off := float64(m) * step
		l.angles = append(l.angles, normalizeAngle(desired+off), normalizeAngle(desired-off))
	}
	return l.angles
}

// Resolve returns desired unchanged when it is safe. Otherwise it returns
// the minimum-cost candidate of the level's fan; if every candidate leaves
// the world it steers away from the nearest agent head, or toward the
// center when there is none. The second result reports whether desired
// was already safe.
func (l *SafetyLayer) Resolve(self *components.Snake, desired components.Vec2, level int) (components.Vec2, bool) {
	desired = sanitizeDir(desired, self.Dir)
	want := desired.Angle()
	if l.Safe(self, want) {
		return desired, true
	}

	best, bestCost := want, math.Inf(1)
	for _, a := range l.CandidateAngles(want, level) {
		if c := l.Cost(self, a, want, level); c < bestCost {
			best, bestCost = a, c
		}
	}
	if !math.IsInf(bestCost, 1) {
		return components.FromAngle(best), false
	}
	return l.fallback(self), false
}

// fallback steers away from the nearest obstacle head, or to the center.
func (l *SafetyLayer) fallback(self *components.Snake) components.Vec2 {
	nearest := -1
	bestSq := math.Inf(1)
	for i, o := range l.obstacles {
		if !o.head {
			continue
		}
		if d := components.DistSq(self.Pos, o.pos); d < bestSq {
			nearest, bestSq = i, d
		}
	}
	if nearest >= 0 {
		away := self.Pos.Sub(l.obstacles[nearest].pos)
		if away.LenSq() > 1e-12 {
			return away.Normalize()
		}
	}
	center := components.Vec2{X: l.width / 2, Y: l.height / 2}
	return sanitizeDir(center.Sub(self.Pos), self.Dir)
}
