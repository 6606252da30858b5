package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderVariantGroup(t *testing.T) {
	for i := 0; i < 50; i++ {
		out := Render("{A|B}", nil)
		assert.Contains(t, []string{"A", "B"}, out)
	}
}

func TestRenderVariantGroupInline(t *testing.T) {
	for i := 0; i < 50; i++ {
		out := Render("oi, {tudo bem|como vai}?", nil)
		assert.Contains(t, []string{"oi, tudo bem?", "oi, como vai?"}, out)
		assert.NotContains(t, out, "{")
	}
}

func TestRenderPlainTextIdempotent(t *testing.T) {
	content := "bom dia, sem tokens aqui"
	first := Render(content, nil)
	second := Render(content, nil)
	assert.Equal(t, content, first)
	assert.Equal(t, first, second)
}

func TestRenderVariables(t *testing.T) {
	out := Render("agora sao {hora} de {data}", nil)
	assert.NotContains(t, out, "{hora}")
	assert.NotContains(t, out, "{data}")
}

func TestRenderVariablesCaseInsensitive(t *testing.T) {
	out := Render("{HORA} {Dia}", nil)
	assert.NotContains(t, out, "{")
}

func TestRenderOverrides(t *testing.T) {
	out := Render("ola {nome}", map[string]string{"nome": "Maria"})
	assert.Equal(t, "ola Maria", out)
}

func TestRenderUnresolvedTokenPassesThrough(t *testing.T) {
	out := Render("valor {desconhecido} fica", nil)
	assert.Equal(t, "valor {desconhecido} fica", out)
}
