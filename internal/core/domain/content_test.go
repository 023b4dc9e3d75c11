package domain

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionDecodesEveryKind(t *testing.T) {
	raw := `{
		"title": "Quiénes somos",
		"sections": [
			{"type": "text", "title": "Misión", "data": {"body": "Vacunar a todos los niños"}},
			{"type": "image", "title": "Sede", "data": {"image_url": "/about-us/a.png", "caption": "Hospital"}},
			{"type": "list", "title": "Servicios", "data": {"items": ["Vacunación", "Control"]}},
			{"type": "cards", "title": "Equipo", "data": {"cards": [{"title": "Dra. Pérez", "description": "Pediatra"}]}}
		]
	}`

	var doc PageDocument
	require.NoError(t, sonic.UnmarshalString(raw, &doc))
	require.NoError(t, doc.Validate())
	require.Len(t, doc.Sections, 4)

	assert.Equal(t, TextSection{Body: "Vacunar a todos los niños"}, doc.Sections[0].Body)
	assert.Equal(t, SectionImage, doc.Sections[1].Body.Kind())
	assert.Equal(t, ListSection{Items: []string{"Vacunación", "Control"}}, doc.Sections[2].Body)
	cards, ok := doc.Sections[3].Body.(CardsSection)
	require.True(t, ok)
	assert.Equal(t, "Dra. Pérez", cards.Cards[0].Title)
}

func TestSectionEncodesEnvelope(t *testing.T) {
	section := Section{Title: "Misión", Body: TextSection{Body: "hola"}}

	out, err := sonic.Marshal(section)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","title":"Misión","data":{"body":"hola"}}`, string(out))

	var back Section
	require.NoError(t, sonic.Unmarshal(out, &back))
	assert.Equal(t, section, back)
}

func TestSectionUnknownKind(t *testing.T) {
	var s Section
	err := s.UnmarshalJSON([]byte(`{"type":"video","title":"x","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestSectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		section Section
	}{
		{"missing title", Section{Body: TextSection{Body: "x"}}},
		{"missing body", Section{Title: "x"}},
		{"empty text", Section{Title: "x", Body: TextSection{}}},
		{"image without url", Section{Title: "x", Body: ImageSection{Caption: "c"}}},
		{"empty list", Section{Title: "x", Body: ListSection{}}},
		{"blank list item", Section{Title: "x", Body: ListSection{Items: []string{"a", " "}}}},
		{"no cards", Section{Title: "x", Body: CardsSection{}}},
		{"untitled card", Section{Title: "x", Body: CardsSection{Cards: []Card{{Description: "d"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.section.Validate(), ErrInvalidSection)
		})
	}
}

func TestPageDocumentRequiresTitle(t *testing.T) {
	doc := PageDocument{Sections: []Section{}}
	assert.ErrorIs(t, doc.Validate(), ErrInvalidSection)
}
