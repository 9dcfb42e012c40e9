package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs and feeds", "a\t\tb\fc\vd", "a b c d"},
		{"nbsp", "Via\u00a0Roma", "Via Roma"},
		{"space runs", "a    b", "a b"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trim", "  \n a \n ", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  Descrizione:\r\n\r\n\r\n\tAppartamento   luminoso  \n\n\n\nfine ",
		"a \n \n \n b",
		"\v\f\t",
		"Foglio 12\r\n\r\n\r\nParticella 34",
		"    x  ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("  uno \n\n\n due\r\n   \ntre")
	assert.Equal(t, []string{"uno", "due", "tre"}, got)
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"1.234,56", f(1234.56)},
		{"€ 125.000,00", f(125000.00)},
		{"EUR 98.500", f(98500)},
		{"12,5", f(12.5)},
		{"abc", nil},
		{"", nil},
		{"€", nil},
	}
	for _, tt := range tests {
		got := Money(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "Money(%q)", tt.in)
			continue
		}
		require.NotNil(t, got, "Money(%q)", tt.in)
		assert.InDelta(t, *tt.want, *got, 0.0001, "Money(%q)", tt.in)
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"05/10/2024", "2024-10-05"},
		{"5.3.2023", "2023-03-05"},
		{"07-11-2022", "2022-11-07"},
		{"15 marzo 2023", "2023-03-15"},
		{"1 Giugno 2024", "2024-06-01"},
		{"3 dicembre 2021 ore 12", "2021-12-03"},
		{"31/04/2024", "2024-04-31"},
		{"2024-05-10", "2024-05-10"},
	}
	for _, tt := range tests {
		got := Date(tt.in)
		require.NotNil(t, got, "Date(%q)", tt.in)
		assert.Equal(t, tt.want, *got, "Date(%q)", tt.in)
	}

	assert.Nil(t, Date(""))
	assert.Nil(t, Date("15 foo 2023"))
	assert.Nil(t, Date("domani"))
}

func TestFindClock(t *testing.T) {
	got := FindClock("alle ore 9.30 presso")
	require.NotNil(t, got)
	assert.Equal(t, "09:30", *got)
	assert.Nil(t, FindClock("nessun orario"))
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "SI", *YesNo("Sì"))
	assert.Equal(t, "SI", *YesNo("si"))
	assert.Equal(t, "SI", *YesNo("YES"))
	assert.Equal(t, "NO", *YesNo("No"))
	assert.Nil(t, YesNo("forse"))
	assert.Nil(t, YesNo(""))
}

func TestPercent(t *testing.T) {
	text := "Deposito cauzionale pari al 10 % del prezzo offerto"
	got := Percent(text, []string{`deposito\s+cauzion[ae]le`}, 120)
	require.NotNil(t, got)
	assert.Equal(t, 10, *got)

	assert.Nil(t, Percent("cauzione pari al 100%", []string{`cauzion[ae]`}, 120))
	assert.Nil(t, Percent("nessuna etichetta 10%", []string{`caparra`}, 120))
}

func TestPickNear(t *testing.T) {
	text := "Offerta minima\n€ 75.000,00\nAltro € 1,00"
	got := PickNear(text, `Offerta\s*minima`, `(?:€|EUR)\s*[\d.,]+`, 80)
	require.NotNil(t, got)
	assert.Equal(t, "€ 75.000,00", *got)

	assert.Nil(t, PickNear("Offerta minima"+strings.Repeat(".", 100)+"€ 5", `Offerta\s*minima`, `€\s*\d+`, 10))
}

func TestPickLabelLine(t *testing.T) {
	lines := []string{"Piano", "3", "Ascensore", "Sì"}
	got := PickLabelLine(lines, `^Ascensore$`)
	require.NotNil(t, got)
	assert.Equal(t, "Sì", *got)
	assert.Nil(t, PickLabelLine(lines, `^Stato$`))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "proposta-citta-di-sant-angelo", Slug("  Proposta Città di Sant'Angelo!! "))
	assert.LessOrEqual(t, len(Slug(strings.Repeat("ab ", 100))), 140)
}

func f(v float64) *float64 { return &v }
