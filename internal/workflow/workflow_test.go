package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"waterfall":        Waterfall,
		"Каскадная":        Waterfall,
		"V-Shaped":         VModel,
		"v shaped":         VModel,
		"vmodel":           VModel,
		"Спиральная":       Spiral,
		"ITERATIVE":        Iterative,
		"итерационная":     Iterative,
		"Пользовательская": Open,
		"":                 Open,
		"kanban":           Open,
	}
	for model, want := range cases {
		assert.Equal(t, want, Classify(model), model)
	}
}

func TestIsDiagram(t *testing.T) {
	assert.True(t, IsDiagram("waterfall"))
	assert.True(t, IsDiagram("spiral"))
	assert.False(t, IsDiagram("Пользовательская"))
}

func TestDefaultStages(t *testing.T) {
	assert.Equal(t, []string{"Этап 1", "Этап 2", "Этап 3"}, DefaultStages("Пользовательская"))
	assert.Len(t, DefaultStages("waterfall"), 5)
	assert.Len(t, DefaultStages("v-образная"), 6)
	assert.Len(t, DefaultStages("spiral"), 4)
	assert.Equal(t, "Итерация 4", DefaultStages("iterative")[3])

	stages := DefaultStages("spiral")
	stages[0] = "changed"
	assert.Equal(t, "Планирование", DefaultStages("spiral")[0])
}

func TestCompare(t *testing.T) {
	p := func(v int) *int { return &v }

	assert.Equal(t, Forward, Compare(nil, 0))
	assert.Equal(t, Forward, Compare(p(0), 2))
	assert.Equal(t, Backward, Compare(p(2), 0))
	assert.Equal(t, Stay, Compare(p(1), 1))
	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "backward", Backward.String())
	assert.Equal(t, "stay", Stay.String())
}
