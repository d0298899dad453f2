package service

import (
	"math"
	"math/rand/v2"
)

// DamageCalculator 伤害结算
type DamageCalculator interface {
	Damage(mode Mode, attacker Role, round int) int
}

// RandomCalculator 基于均匀随机数的伤害结算
//   - 面试官：floor((5 + r*10) * 模式倍率 * (1 + round*0.1))，随回合递增
//   - 候选人：floor((8 + r*12) * 模式倍率)
type RandomCalculator struct {
	rnd func() float64
}

// NewRandomCalculator rnd 返回 [0,1) 的随机数，nil 时使用 math/rand/v2
func NewRandomCalculator(rnd func() float64) *RandomCalculator {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &RandomCalculator{rnd: rnd}
}

// Damage 实现 DamageCalculator
func (c *RandomCalculator) Damage(mode Mode, attacker Role, round int) int {
	return ComputeDamage(mode, attacker, round, c.rnd())
}

// ComputeDamage 给定随机数 r∈[0,1) 计算伤害
func ComputeDamage(mode Mode, attacker Role, round int, r float64) int {
	if r < 0 {
		r = 0
	}
	if r >= 1 {
		r = math.Nextafter(1, 0)
	}
	if round < 0 {
		round = 0
	}

	dmg := scaleDamage(mode, attacker, round, r)
	// r 接近 1 时浮点舍入可能恰好落在上界，伤害区间为左闭右开
	if sup := scaleDamage(mode, attacker, round, 1); dmg >= sup {
		dmg = math.Nextafter(sup, 0)
	}
	return int(math.Floor(dmg))
}

func scaleDamage(mode Mode, attacker Role, round int, r float64) float64 {
	if attacker == RoleInterviewer {
		return (5 + r*10) * mode.DamageMultiplier() * (1 + float64(round)*0.1)
	}
	return (8 + r*12) * mode.DamageMultiplier()
}

// Outcome 由最终血量计算胜率与评级
// winRate = clamp(50 + 0.5*(候选人HP - 面试官HP), 5, 95)，四舍五入取整
func Outcome(candidateHP, interviewerHP int) (int, Grade) {
	raw := 50 + 0.5*float64(candidateHP-interviewerHP)
	winRate := int(math.Round(math.Min(95, math.Max(5, raw))))
	return winRate, GradeFor(winRate)
}

// GradeFor 胜率到评级的映射，阈值为闭区间下界
func GradeFor(winRate int) Grade {
	switch {
	case winRate >= 90:
		return GradeS
	case winRate >= 80:
		return GradeA
	case winRate >= 70:
		return GradeB
	case winRate >= 60:
		return GradeC
	case winRate >= 50:
		return GradeD
	default:
		return GradeF
	}
}
