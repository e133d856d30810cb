package mission

import (
	"strings"

	"github.com/xtding233/alienpod-sim/internal/catalog"
)

// anyLeaderLevel and above marks an upgrade gated on research instead of a
// specific leader level.
const anyLeaderLevel = 15

// BuildRoster turns role counts into alien entries with upgraded stats.
// Upgrades are scanned in catalog order. An upgrade applies when it targets
// the alien's type and either its research gate is met (level >= 15) or the
// alien is the pod's main type, the pod has a leader and the levels match.
func (e *Engine) BuildRoster(s SpeciesGroup, roles RoleCounts, research, leaderLevel int) []AlienResult {
	slots := []struct {
		charType string
		count    int
	}{
		{s.MainAlien, roles.Main},
		{s.SupportAlien1, roles.Support1},
		{s.SupportAlien2, roles.Support2},
	}

	aliens := make([]AlienResult, 0, len(slots))
	for _, slot := range slots {
		if slot.count <= 0 || slot.charType == "" || slot.charType == charNone {
			continue
		}
		isMain := slot.charType == s.MainAlien
		aliens = append(aliens, e.buildAlien(slot.charType, slot.count, isMain, research, leaderLevel))
	}
	return aliens
}

func (e *Engine) buildAlien(charType string, count int, isMain bool, research, leaderLevel int) AlienResult {
	bs := e.catalog.Stats(charType)
	a := AlienResult{
		Name:   strings.ReplaceAll(charType, charPrefix, ""),
		Count:  count,
		IsMain: isMain,
		HP:     bs.HP,
		Aim:    bs.Offense,
		Will:   bs.Will,
		Perks:  []string{},
	}
	isLeader := isMain && leaderLevel > 0
	for _, up := range e.catalog.Upgrades() {
		if up.CharType != charType || !upgradeApplies(up, research, leaderLevel, isLeader) {
			continue
		}
		a.HP += up.HP
		a.Aim += up.Aim
		a.Will += up.Will
		a.DamageBonus += up.Damage
		if up.PerkID > 0 {
			a.Perks = append(a.Perks, e.perks.Name(up.PerkID))
		}
	}
	return a
}

func upgradeApplies(up catalog.Upgrade, research, leaderLevel int, isLeader bool) bool {
	level, threshold := catalog.DecodePacked(up.Packed)
	if level >= anyLeaderLevel && research >= threshold {
		return true
	}
	return isLeader && level == leaderLevel
}
