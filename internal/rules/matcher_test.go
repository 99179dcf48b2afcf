package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielmr/notaflow/internal/model"
)

func testSet() Set {
	return Set{
		{Category: "marketing_institucional", Kind: KindSimple, Keyword: "despesas de propaganda e esforços de marketing"},
		{Category: "seguro", Kind: KindSimple, Keyword: "Seguro"},
		{Category: "outras_despesas_administrativas", Kind: KindSimple, Keyword: "ECAD"},
		{Category: "telecom", Kind: KindSimple, Keyword: "Remuneração Esforços Tech"},
		{
			Category: "MKT-REG",
			Kind:     KindHierarchical,
			Trigger:  "Mídia Regional",
			Subcategories: []Subcategory{
				{Name: "MKT-REG_1", Keyword: "Gestão Franqueador"},
				{Name: "MKT-REG_5", Keyword: "Gestão Individual"},
				{Name: "MKT-REG_9", Keyword: "REEMB ESF BOTIEXPERT"},
			},
		},
	}
}

func TestMatcherClassify(t *testing.T) {
	m := NewMatcher(testSet())

	tests := []struct {
		name string
		text string
		want model.ClassificationResult
	}{
		{
			name: "simple keyword match",
			text: "Apólice de Seguro empresarial, vigência 2025",
			want: model.ClassificationResult{
				Category: "seguro",
				Segments: []string{"seguro"},
			},
		},
		{
			name: "character spaced keyword matches via compact form",
			text: "E C A D charges apply",
			want: model.ClassificationResult{
				Category: "outras_despesas_administrativas",
				Segments: []string{"outras_despesas_administrativas"},
			},
		},
		{
			name: "accent insensitive keyword",
			text: "REMUNERACAO ESFORCOS TECH - fatura 0042",
			want: model.ClassificationResult{
				Category: "telecom",
				Segments: []string{"telecom"},
			},
		},
		{
			name: "subcategory beats its own trigger",
			text: "Referente a Gestão Franqueador do período",
			want: model.ClassificationResult{
				Category:    "MKT-REG",
				Subcategory: "MKT-REG_1",
				Segments:    []string{"MKT-REG", "MKT-REG_1"},
			},
		},
		{
			name: "trigger matches when no subcategory does",
			text: "Rateio de Mídia Regional do trimestre",
			want: model.ClassificationResult{
				Category: "MKT-REG",
				Segments: []string{"MKT-REG"},
			},
		},
		{
			name: "no rule matches",
			text: "documento sem qualquer palavra-chave conhecida",
			want: model.ClassificationResult{},
		},
		{
			name: "empty document never matches",
			text: "",
			want: model.ClassificationResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Classify(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcherDeclarationOrderWins(t *testing.T) {
	// A document matching both an earlier simple rule and a later
	// hierarchical subcategory must take the earlier rule: declaration
	// order, not specificity, decides across rules.
	set := Set{
		{Category: "seguro", Kind: KindSimple, Keyword: "Seguro"},
		{
			Category: "MKT-REG",
			Kind:     KindHierarchical,
			Trigger:  "Mídia Regional",
			Subcategories: []Subcategory{
				{Name: "MKT-REG_1", Keyword: "Gestão Franqueador"},
			},
		},
	}
	m := NewMatcher(set)

	got := m.Classify("Seguro da campanha de Gestão Franqueador")
	assert.Equal(t, "seguro", got.Category)
	assert.Empty(t, got.Subcategory)
}

func TestMatcherSubcategoryOrder(t *testing.T) {
	set := Set{
		{
			Category: "MKT-REG",
			Kind:     KindHierarchical,
			Subcategories: []Subcategory{
				{Name: "first", Keyword: "alfa"},
				{Name: "second", Keyword: "beta"},
			},
		},
	}
	m := NewMatcher(set)

	got := m.Classify("texto com beta e alfa juntos")
	assert.Equal(t, "first", got.Subcategory)
}

func TestMatcherEmptyKeywordNeverMatches(t *testing.T) {
	set := Set{
		{Category: "vazio", Kind: KindSimple, Keyword: ""},
		{
			Category:      "sem_gatilho",
			Kind:          KindHierarchical,
			Trigger:       "",
			Subcategories: []Subcategory{{Name: "x", Keyword: "   "}},
		},
		{Category: "real", Kind: KindSimple, Keyword: "nota"},
	}
	m := NewMatcher(set)

	got := m.Classify("uma nota qualquer")
	assert.Equal(t, "real", got.Category)

	assert.False(t, m.Classify("texto sem correspondência").Matched())
}

func TestMatcherWhitespaceInjectionInvariance(t *testing.T) {
	m := NewMatcher(testSet())

	plain := m.Classify("cobrança ECAD mensal")
	spaced := m.Classify("cobrança E C A D mensal")

	assert.Equal(t, plain, spaced)
	assert.Equal(t, "outras_despesas_administrativas", spaced.Category)
}
