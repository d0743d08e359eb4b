package answers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezza-forms/backend/model"
)

func TestParsePlain(t *testing.T) {
	m := Parse(`{"12":"hello","13":["a","b"]}`)
	assert.Equal(t, "hello", m["12"])
	assert.Equal(t, []any{"a", "b"}, m["13"])
}

func TestParseDoubleEncoded(t *testing.T) {
	m := Parse(`"{\"12\":\"hello\"}"`)
	assert.Equal(t, "hello", m["12"])
}

func TestParseSingleQuotes(t *testing.T) {
	m := Parse(`{'12': 'hello'}`)
	assert.Equal(t, "hello", m["12"])
}

func TestParseUnrecoverable(t *testing.T) {
	assert.Empty(t, Parse(`{12: broken`))
	assert.Empty(t, Parse(``))
	assert.Empty(t, Parse(`[1,2,3]`))
}

func questionGroupForm() model.Form {
	return model.Form{
		Title: "Commande",
		Sections: []model.Section{{
			Title: "Produits",
			Fields: []model.Field{{
				ID:    7,
				Type:  model.FieldQuestionGroup,
				Label: "Choix du produit",
				ConditionalOptions: []model.ConditionalOption{
					{
						OptionText: "Produit A",
						Inputs: []model.ConditionalInput{
							{Label: "Quantité"},
							{Label: "Couleur"},
						},
					},
					{
						OptionText:    "Produit B",
						RadioQuestion: "Livraison express ?",
						RadioOptions:  []string{"Oui", "Non"},
					},
				},
			}},
		}},
	}
}

func TestFormatQuestionGroup(t *testing.T) {
	form := questionGroupForm()
	in := map[string]any{
		"7":         "Produit A",
		"7-0-0":     "3",
		"7-0-1":     "Rouge",
		"7-radio-1": "Oui",
	}

	out := Format(form, in)
	require.Contains(t, out, "7")

	v, ok := out["7"].(Value)
	require.True(t, ok)
	assert.Equal(t, "Produit A", v.Value)
	require.Len(t, v.Conditional, 2)

	assert.Equal(t, "Produit A", v.Conditional[0].OptionText)
	assert.Equal(t, []Input{
		{Label: "Quantité", Value: "3"},
		{Label: "Couleur", Value: "Rouge"},
	}, v.Conditional[0].Inputs)

	assert.Equal(t, "Produit B", v.Conditional[1].OptionText)
	assert.Equal(t, "Livraison express ?", v.Conditional[1].RadioQuestion)
	assert.Equal(t, "Oui", v.Conditional[1].Radio)
}

func TestFormatOptionWithInputAndRadio(t *testing.T) {
	form := model.Form{
		Title: "Commande",
		Sections: []model.Section{{
			Fields: []model.Field{{
				ID:    5,
				Type:  model.FieldQuestionGroup,
				Label: "Service",
				ConditionalOptions: []model.ConditionalOption{
					{
						OptionText:    "Installation",
						Inputs:        []model.ConditionalInput{{Label: "Détail"}},
						RadioQuestion: "Sur site ?",
						RadioOptions:  []string{"Yes", "No"},
					},
					{
						OptionText:    "Maintenance",
						Inputs:        []model.ConditionalInput{{Label: "Fréquence"}},
						RadioQuestion: "Contrat ?",
						RadioOptions:  []string{"Yes", "No"},
					},
				},
			}},
		}},
	}

	out := Format(form, map[string]any{
		"5":         "Installation",
		"5-0-0":     "foo",
		"5-radio-0": "Yes",
	})

	v, ok := out["5"].(Value)
	require.True(t, ok)
	require.Len(t, v.Conditional, 1)
	assert.Equal(t, "Installation", v.Conditional[0].OptionText)
	assert.Equal(t, []Input{{Label: "Détail", Value: "foo"}}, v.Conditional[0].Inputs)
	assert.Equal(t, "Sur site ?", v.Conditional[0].RadioQuestion)
	assert.Equal(t, "Yes", v.Conditional[0].Radio)
}

func TestFormatYesNoFallbackKeys(t *testing.T) {
	form := model.Form{
		Title: "Audit",
		Sections: []model.Section{{
			Fields: []model.Field{{
				ID:    4,
				Type:  model.FieldYesNo,
				Label: "Avez-vous un site web ?",
				ConditionalOptions: []model.ConditionalOption{{
					OptionText: "Oui",
					Inputs:     []model.ConditionalInput{{Label: "URL"}},
				}},
			}},
		}},
	}

	// inputs keyed without the option index
	out := Format(form, map[string]any{
		"4":   "Oui",
		"4-0": "https://example.com",
	})

	v, ok := out["4"].(Value)
	require.True(t, ok)
	require.Len(t, v.Conditional, 1)
	assert.Equal(t, []Input{{Label: "URL", Value: "https://example.com"}}, v.Conditional[0].Inputs)
}

func TestFormatCheckboxWithOther(t *testing.T) {
	form := model.Form{
		Title: "Sondage",
		Sections: []model.Section{{
			Fields: []model.Field{{
				ID:              9,
				Type:            model.FieldCheckbox,
				Label:           "Canaux",
				ShowOtherOption: true,
				Options:         []string{"Email", "Téléphone"},
			}},
		}},
	}

	out := Format(form, map[string]any{
		"9":       []any{"Email"},
		"9-other": map[string]any{"checked": true, "text": "Pigeon voyageur"},
	})
	assert.Equal(t, []any{"Email", "Pigeon voyageur"}, out["9"])

	// unchecked "other" is ignored
	out = Format(form, map[string]any{
		"9":       []any{"Email"},
		"9-other": map[string]any{"checked": false, "text": "Pigeon voyageur"},
	})
	assert.Equal(t, []any{"Email"}, out["9"])
}

func TestFormatSkipsUnansweredFields(t *testing.T) {
	form := questionGroupForm()
	out := Format(form, map[string]any{})
	assert.Empty(t, out)
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"Answer: Non renseigné"}, Lines(nil))
	assert.Equal(t, []string{"Answer: hello"}, Lines("hello"))
	assert.Equal(t, []string{"Answer: a", "Answer: b"}, Lines([]any{"a", "b"}))

	v := Value{
		Value: "Produit A",
		Conditional: []ConditionalDetail{{
			OptionText:    "Produit A",
			Inputs:        []Input{{Label: "Quantité", Value: "3"}},
			RadioQuestion: "Express ?",
			Radio:         "Oui",
		}},
	}
	assert.Equal(t, []string{
		"Answer: Produit A",
		"Option: Produit A",
		"Quantité: 3",
		"Express ?: Oui",
	}, Lines(v))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "No answers", Summary(map[string]any{}, 2))

	in := map[string]any{
		"10": "b",
		"2":  "a",
		"3":  []any{"x", "y"},
	}
	// numeric key order, capped at two entries
	assert.Equal(t, "2: a; 3: x, y", Summary(in, 2))
}
