// Package workflow содержит каталог моделей разработки и правила смены текущего этапа.
package workflow

import "strings"

// Kind вид модели разработки
type Kind int

const (
	Open Kind = iota
	Waterfall
	VModel
	Spiral
	Iterative
)

var aliases = map[string]Kind{
	"каскадная":    Waterfall,
	"waterfall":    Waterfall,
	"v-образная":   VModel,
	"v-shaped":     VModel,
	"v shaped":     VModel,
	"vmodel":       VModel,
	"спиральная":   Spiral,
	"spiral":       Spiral,
	"iterative":    Iterative,
	"итеративная":  Iterative,
	"итерационная": Iterative,
}

var defaultStages = map[Kind][]string{
	Waterfall: {"Требования", "Проектирование", "Реализация", "Тестирование", "Ввод в эксплуатацию"},
	VModel:    {"Требования", "Проектирование", "Дизайн", "Реализация", "Верификация", "Валидация"},
	Spiral:    {"Планирование", "Риски", "Разработка", "Тестирование"},
	Iterative: {"Итерация 1", "Итерация 2", "Итерация 3", "Итерация 4"},
	Open:      {"Этап 1", "Этап 2", "Этап 3"},
}

// Classify определяет вид модели по ее названию без учета регистра
func Classify(model string) Kind {
	if k, ok := aliases[strings.ToLower(strings.TrimSpace(model))]; ok {
		return k
	}
	return Open
}

// IsDiagram сообщает, зафиксирован ли набор этапов модели
func (k Kind) IsDiagram() bool {
	return k != Open
}

func (k Kind) String() string {
	switch k {
	case Waterfall:
		return "waterfall"
	case VModel:
		return "v-model"
	case Spiral:
		return "spiral"
	case Iterative:
		return "iterative"
	default:
		return "open"
	}
}

// IsDiagram сокращение для Classify(model).IsDiagram()
func IsDiagram(model string) bool {
	return Classify(model).IsDiagram()
}

// DefaultStages возвращает названия этапов, создаваемых вместе с проектом
func DefaultStages(model string) []string {
	src := defaultStages[Classify(model)]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Direction направление смены текущего этапа
type Direction int

const (
	Stay Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "stay"
	}
}

// Compare сравнивает позицию ранее выбранного этапа с новой.
// Отсутствие предыдущего выбора считается позицией -1.
func Compare(prev *int, next int) Direction {
	p := -1
	if prev != nil {
		p = *prev
	}
	switch {
	case next > p:
		return Forward
	case next < p:
		return Backward
	default:
		return Stay
	}
}
