package systems

import (
	"testing"

	"github.com/pthm-cable/serpent/components"
)

func newTestBoss(t *testing.T, kind components.BossKind, x, y float64) (*BossSystem, *components.Boss) {
	t.Helper()
	cfg := loadConfig(t)
	loco := NewLocomotion(cfg, newTestRNG())
	bs := NewBossSystem(cfg, loco, newTestRNG())
	spacing := SampleSpacing(bs.KindConfig(kind).Speed, cfg.Physics.TickMs)
	return bs, bs.Spawn(1000, kind, components.Vec2{X: x, Y: y}, 0, spacing, cfg.Snake.TrailSlack)
}

func TestBoss_DamageCooldownUsesClock(t *testing.T) {
	cfg := loadConfig(t)
	_, boss := newTestBoss(t, components.BossLeviathan, 2000, 2000)
	clock := &SimClock{}
	cooldown := cfg.Boss.HitCooldownMs

	if !boss.TryDamage(1, clock.NowMs(), cooldown) {
		t.Fatal("first hit rejected")
	}
	clock.Advance(cooldown / 2)
	if boss.TryDamage(1, clock.NowMs(), cooldown) {
		t.Error("hit accepted inside cooldown")
	}
	clock.Advance(cooldown / 2)
	if !boss.TryDamage(1, clock.NowMs(), cooldown) {
		t.Error("hit rejected after cooldown")
	}
	if boss.Health != boss.MaxHealth-2 {
		t.Errorf("health = %d, want %d", boss.Health, boss.MaxHealth-2)
	}
}

func TestBoss_LifetimeExpires(t *testing.T) {
	_, boss := newTestBoss(t, components.BossWarden, 2000, 2000)
	if boss.Age(boss.LifetimeMs - 1) {
		t.Fatal("expired early")
	}
	if !boss.Age(2) {
		t.Error("did not report expiry")
	}
	if boss.Alive() {
		t.Error("boss alive after lifetime ran out")
	}
	if boss.Age(100) {
		t.Error("expiry reported twice")
	}
}

func TestBoss_ContactPerKind(t *testing.T) {
	cfg := loadConfig(t)
	tests := []struct {
		kind components.BossKind
		want ContactKind
	}{
		{components.BossLeviathan, ContactKill},
		{components.BossWarden, ContactPush},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			bs, boss := newTestBoss(t, tt.kind, 2000, 2000)
			mid := boss.Body.Segments[5]
			agent := newTestSnake(cfg, 1, mid.X, mid.Y+mid.Radius, -1.5708, 10)
			contacts := bs.Collide(boss, []*components.Snake{agent}, &SimClock{}, nil)
			if len(contacts) != 1 || contacts[0].Kind != tt.want {
				t.Fatalf("contacts = %+v, want one %v", contacts, tt.want)
			}
			if tt.want == ContactPush && contacts[0].Push.Y <= 0 {
				t.Errorf("push %+v does not point away from the boss", contacts[0].Push)
			}
		})
	}
}

func TestBoss_BoostingTailStrikeDamages(t *testing.T) {
	cfg := loadConfig(t)
	bs, boss := newTestBoss(t, components.BossLeviathan, 2000, 2000)
	tail := boss.Body.Tail()
	agent := newTestSnake(cfg, 1, tail.X, tail.Y+tail.Radius, -1.5708, 10)
	clock := &SimClock{}

	contacts := bs.Collide(boss, []*components.Snake{agent}, clock, nil)
	if len(contacts) != 1 || contacts[0].Kind != ContactKill {
		t.Fatalf("cruising into the tail: contacts = %+v, want kill", contacts)
	}

	agent.Boosting = true
	contacts = bs.Collide(boss, []*components.Snake{agent}, clock, nil)
	if len(contacts) != 1 || contacts[0].Kind != ContactHit || !contacts[0].Damaged {
		t.Fatalf("boosting into the tail: contacts = %+v, want damaging hit", contacts)
	}
	contacts = bs.Collide(boss, []*components.Snake{agent}, clock, nil)
	if len(contacts) != 1 || contacts[0].Damaged {
		t.Errorf("second strike inside cooldown damaged the boss")
	}
	if boss.LastAttackerID != agent.ID {
		t.Errorf("LastAttackerID = %d, want %d", boss.LastAttackerID, agent.ID)
	}
}

func TestBoss_RetargetNeedsMargin(t *testing.T) {
	cfg := loadConfig(t)
	bs, boss := newTestBoss(t, components.BossLeviathan, 2000, 2000)
	first := newTestSnake(cfg, 1, 2300, 2000, 0, 10)
	roster := []*components.Snake{first}

	bs.Update(boss, roster, staticFood{}, cfg.Physics.TickMs)
	if boss.PreyID != first.ID {
		t.Fatalf("PreyID = %d, want %d", boss.PreyID, first.ID)
	}

	dist := components.Dist(boss.Body.Pos, first.Pos)
	// Slightly closer, but not by the retarget margin.
	second := newTestSnake(cfg, 2, boss.Body.Pos.X, boss.Body.Pos.Y-dist*0.95, 0, 10)
	roster = append(roster, second)
	boss.RetargetCooldownMs = 0
	bs.Update(boss, roster, staticFood{}, cfg.Physics.TickMs)
	if boss.PreyID != first.ID {
		t.Errorf("switched to a marginally closer prey")
	}

	second.Pos.Y = boss.Body.Pos.Y - dist*0.3
	boss.RetargetCooldownMs = 0
	bs.Update(boss, roster, staticFood{}, cfg.Physics.TickMs)
	if boss.PreyID != second.ID {
		t.Errorf("PreyID = %d, want the much closer prey %d", boss.PreyID, second.ID)
	}
}

func TestLeadTarget_ClampsLeadTime(t *testing.T) {
	from := components.Vec2{}
	target := components.Vec2{X: 1000}
	vel := components.Vec2{Y: 100}
	got := LeadTarget(from, 10, target, vel, 1.5)
	if !approxEqual(got.Y, 150, 1e-9) {
		t.Errorf("lead Y = %f, want 150 (clamped)", got.Y)
	}
	got = LeadTarget(from, 1000, target, vel, 1.5)
	if !approxEqual(got.Y, 100, 1e-9) {
		t.Errorf("lead Y = %f, want 100", got.Y)
	}
}
