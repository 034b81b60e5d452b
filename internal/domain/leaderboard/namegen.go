// Package leaderboard содержит доменную модель лидерборда Kudos Hub.
package leaderboard

import (
	"fmt"
	"math/rand"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANONYMOUS NAME GENERATOR
// ══════════════════════════════════════════════════════════════════════════════

// NameGenerator генерирует отображаемое имя для анонимного сотрудника.
type NameGenerator interface {
	Generate() string
}

// Словари двухсловного генератора. Имя - чистая функция без персистентного
// состояния: повторные чтения для одного сотрудника дают разные имена.
var (
	anonAdjectives = []string{
		"Amber", "Brave", "Calm", "Daring", "Eager", "Fuzzy", "Gentle",
		"Hidden", "Icy", "Jolly", "Keen", "Lively", "Mellow", "Nimble",
		"Quiet", "Rapid", "Silent", "Swift", "Vivid", "Witty",
	}
	anonAnimals = []string{
		"Badger", "Condor", "Dolphin", "Falcon", "Gecko", "Heron",
		"Ibex", "Jaguar", "Koala", "Lynx", "Marmot", "Narwhal",
		"Otter", "Panther", "Raven", "Stoat", "Tapir", "Walrus",
	}
)

// RandomNameGenerator - стандартный двухсловный генератор.
type RandomNameGenerator struct {
	rng *rand.Rand
}

// NewRandomNameGenerator создаёт генератор с собственным источником
// случайности.
func NewRandomNameGenerator(seed int64) *RandomNameGenerator {
	return &RandomNameGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Generate возвращает имя вида "Swift Otter".
func (g *RandomNameGenerator) Generate() string {
	adj := anonAdjectives[g.rng.Intn(len(anonAdjectives))]
	animal := anonAnimals[g.rng.Intn(len(anonAnimals))]
	return fmt.Sprintf("%s %s", adj, animal)
}

var _ NameGenerator = (*RandomNameGenerator)(nil)
