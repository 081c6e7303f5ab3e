package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := NewDefaultDetector()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty defaults to english", "", "en"},
		{"plain english", "This app works great", "en"},
		{"turkish", "çok güzel bir uygulama", "tr"},
		{"spanish", "muy bueno", "es"},
		{"french", "très bon, merci", "fr"},
		{"german", "sehr gut gemacht", "de"},
		{"russian", "очень хорошо", "ru"},
		{"indonesian", "sangat bagus", "id"},
		{"persian", "خیلی خوب", "fa"},
		{"uppercase is folded", "ÇOK GÜZEL", "tr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}

func TestDetectPriorityOrder(t *testing.T) {
	d := NewDefaultDetector()

	// Text containing both Turkish and Spanish markers: Turkish wins
	// because it sits earlier in the pattern table. No scoring happens.
	assert.Equal(t, "tr", d.Detect("çok güzel y muy bueno"))
	assert.Equal(t, "tr", d.Detect("muy bueno ama çok kötü"))
}

func TestDetectCustomTable(t *testing.T) {
	d := NewDetector([]Pattern{{Code: "es", Keywords: []string{"hola"}}})

	assert.Equal(t, "es", d.Detect("hola amigo"))
	assert.Equal(t, "en", d.Detect("çok güzel")) // not in the custom table
}
