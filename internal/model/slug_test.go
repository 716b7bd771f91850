package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		owner    string
		expected string
	}{
		{name: "plain", title: "Entretien espaces verts", owner: "Acme", expected: "entretien-espaces-verts-acme"},
		{name: "diacritics folded", title: "Création de crèche", owner: "Société Gén", expected: "creation-de-creche-societe-gen"},
		{name: "punctuation collapsed", title: "Nettoyage -- bureaux !", owner: "", expected: "nettoyage-bureaux"},
		{name: "empty owner", title: "Titre", owner: "", expected: "titre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.title, tt.owner))
		})
	}
}

func TestSlugifyTruncatesTitle(t *testing.T) {
	long := strings.Repeat("abcde-", 20)
	slug := Slugify(long, "owner")
	parts := strings.Split(slug, "-owner")
	assert.LessOrEqual(t, len(parts[0]), 40)
	assert.False(t, strings.HasSuffix(parts[0], "-"))
}

func TestWithUniqueSuffix(t *testing.T) {
	s1 := WithUniqueSuffix("my-slug")
	s2 := WithUniqueSuffix("my-slug")
	assert.True(t, strings.HasPrefix(s1, "my-slug-"))
	assert.Len(t, s1, len("my-slug-")+4)
	assert.NotEqual(t, s1, s2)
}
