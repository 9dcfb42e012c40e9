package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/astadocs/internal/entity"
)

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		street   string
		number   string
		locality string
		strategy string
	}{
		{
			name:     "postal code removed and not taken as number",
			raw:      "Via Roma 12, 20100 Milano",
			street:   "Via Roma 12",
			number:   "12",
			locality: "Milano",
			strategy: "canonical",
		},
		{
			name:     "comma separated number",
			raw:      "corso Buenos Aires, 18, 20124 Milano",
			street:   "Corso Buenos Aires 18",
			number:   "18",
			locality: "Milano",
			strategy: "canonical",
		},
		{
			name:     "postal code in number position is rejected",
			raw:      "Via Roma, 20100 Milano",
			street:   "Via Roma",
			number:   "<nil>",
			locality: "Milano",
			strategy: "canonical",
		},
		{
			name:     "country and auction title stripped",
			raw:      "Appartamento all'asta Viale Monza 7, 20127 Milano, Italia",
			street:   "Viale Monza 7",
			number:   "7",
			locality: "Milano",
			strategy: "canonical",
		},
		{
			name:     "number after locality",
			raw:      "Corso Garibaldi, 20121 Milano 16,",
			street:   "Corso Garibaldi 16",
			number:   "16",
			locality: "Milano",
			strategy: "number-after-locality",
		},
		{
			name:     "street and number without locality",
			raw:      "Via Roma 12",
			street:   "Via Roma 12",
			number:   "12",
			locality: "<nil>",
			strategy: "street-only",
		},
		{
			name:     "auction title before street and number",
			raw:      "Appartamento all'asta via dei Mille, 4B",
			street:   "Via dei Mille 4B",
			number:   "4B",
			locality: "<nil>",
			strategy: "street-only",
		},
		{
			name:     "reversed locality first",
			raw:      "Monza, via Libertà 3",
			street:   "Via Libertà 3",
			number:   "3",
			locality: "Monza",
			strategy: "reversed",
		},
		{
			name:     "reversed with descriptor",
			raw:      "Villa in vendita a Bergamo, Piazza Pontida 4, 24122",
			street:   "Piazza Pontida 4",
			number:   "4",
			locality: "Bergamo",
			strategy: "reversed",
		},
		{
			name:     "comma fallback without number",
			raw:      "Via Giuseppe Verdi, Torino",
			street:   "Via Giuseppe Verdi",
			number:   "<nil>",
			locality: "Torino",
			strategy: "comma-fallback",
		},
		{
			name:     "comma fallback without keyword",
			raw:      "Località Boschetto, 10100 Torino",
			street:   "Località Boschetto",
			number:   "<nil>",
			locality: "Torino",
			strategy: "comma-fallback",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, strategy := ParseWith(tt.raw)
			assert.Equal(t, tt.strategy, strategy)
			assert.Equal(t, tt.street, deref(got.Street))
			assert.Equal(t, tt.number, deref(got.HouseNumber))
			assert.Equal(t, tt.locality, deref(got.Locality))
		})
	}
}

func TestParseUnstructuredReturnsRaw(t *testing.T) {
	got := Parse("Cascina senza indirizzo")
	require.NotNil(t, got.Street)
	assert.Equal(t, "Cascina senza indirizzo", *got.Street)
	assert.Nil(t, got.HouseNumber)
	assert.Nil(t, got.Locality)
}

func TestParseEmpty(t *testing.T) {
	assert.Equal(t, entity.AddressParts{}, Parse("   "))
}

func TestFormat(t *testing.T) {
	parts := Parse("Via Roma 12, 20100 Milano")
	require.NotNil(t, Format(parts))
	assert.Equal(t, "Via Roma, 12, Milano", *Format(parts))
	assert.Nil(t, Format(entity.AddressParts{}))

	// Formatting then parsing is stable.
	again := Parse(*Format(parts))
	assert.Equal(t, parts, again)
}

func TestSelectLine(t *testing.T) {
	text := "20/10/25, 12:37 Via Portale 1, stampa\n" +
		"Appartamento all'asta\n" +
		"Trilocale in via Lunga 3\n" +
		"Appartamento all'asta Via Roma 12, 20100 Milano\n"
	got := SelectLine(text)
	require.NotNil(t, got)
	assert.Equal(t, "Appartamento all'asta Via Roma 12, 20100 Milano", *got)

	got = SelectLine("Titolo\nTrilocale in via Lunga 3\nBilocale in corso Como 10, Milano")
	require.NotNil(t, got)
	assert.Equal(t, "Bilocale in corso Como 10, Milano", *got)

	got = SelectLine("Appartamento all'asta\nnessun indirizzo")
	require.NotNil(t, got)
	assert.Equal(t, "Appartamento all'asta", *got)

	assert.Nil(t, SelectLine("niente"))
}

func TestFindInProposal(t *testing.T) {
	got := FindInProposal("per l'immobile sito in Via Verdi 8, Milano, al prezzo")
	require.NotNil(t, got)
	assert.Equal(t, "Via Verdi 8", *got)

	got = FindInProposal("avente ad oggetto Piazza Duomo 1\nsecondo rigo")
	require.NotNil(t, got)
	assert.Equal(t, "Piazza Duomo 1", *got)

	got = FindInProposal("Indirizzo: corso Italia 22, Milano")
	require.NotNil(t, got)
	assert.Equal(t, "corso Italia 22", *got)

	assert.Nil(t, FindInProposal("nessun riferimento"))
}
