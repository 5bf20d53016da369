// Package telemetry provides arena health tracking, bookmarking, and snapshots.
package telemetry

import "github.com/pthm-cable/serpent/components"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventSpawn EventType = iota
	EventDeath
	EventKill
	EventEat
	EventPowerUp
	EventBossSpawn
	EventBossHit
	EventBossDefeat
	EventBossExpire
)

func (t EventType) String() string {
	switch t {
	case EventSpawn:
		return "spawn"
	case EventDeath:
		return "death"
	case EventKill:
		return "kill"
	case EventEat:
		return "eat"
	case EventPowerUp:
		return "power_up"
	case EventBossSpawn:
		return "boss_spawn"
	case EventBossHit:
		return "boss_hit"
	case EventBossDefeat:
		return "boss_defeat"
	case EventBossExpire:
		return "boss_expire"
	default:
		return "unknown"
	}
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	Tick     int32
	EntityID uint32
	Kind     components.Kind

	// Optional fields depending on event type
	TargetID uint32 // victim for kills, killer for deaths
	Cause    string // death cause
	Amount   int    // score gained
}

// NewSpawnEvent creates a spawn event.
func NewSpawnEvent(tick int32, id uint32, kind components.Kind) Event {
	return Event{Type: EventSpawn, Tick: tick, EntityID: id, Kind: kind}
}

// NewDeathEvent creates a death event. killerID is 0 for walls and bosses.
func NewDeathEvent(tick int32, id uint32, kind components.Kind, killerID uint32, cause string) Event {
	return Event{
		Type:     EventDeath,
		Tick:     tick,
		EntityID: id,
		Kind:     kind,
		TargetID: killerID,
		Cause:    cause,
	}
}

// NewKillEvent creates a kill event credited to killerID.
func NewKillEvent(tick int32, killerID uint32, kind components.Kind, victimID uint32, award int) Event {
	return Event{
		Type:     EventKill,
		Tick:     tick,
		EntityID: killerID,
		Kind:     kind,
		TargetID: victimID,
		Amount:   award,
	}
}

// NewEatEvent creates a food pickup event.
func NewEatEvent(tick int32, id uint32, kind components.Kind, value int) Event {
	return Event{Type: EventEat, Tick: tick, EntityID: id, Kind: kind, Amount: value}
}

// NewBossEvent creates a boss lifecycle event. For hits and defeats,
// attackerID names the agent responsible.
func NewBossEvent(t EventType, tick int32, bossID, attackerID uint32) Event {
	return Event{Type: t, Tick: tick, EntityID: bossID, Kind: components.KindBoss, TargetID: attackerID}
}

// NewPowerUpEvent creates a power-up pickup event.
func NewPowerUpEvent(tick int32, id uint32, kind components.Kind) Event {
	return Event{Type: EventPowerUp, Tick: tick, EntityID: id, Kind: kind}
}
