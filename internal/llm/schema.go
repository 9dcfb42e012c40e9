package llm

import (
	"maps"
	"slices"

	"github.com/joseph-ayodele/astadocs/constants"
)

// Schema is a named strict JSON schema for structured output.
type Schema struct {
	Name   string
	Schema map[string]any
}

var (
	listingSchema  = buildListingSchema()
	proposalSchema = buildProposalSchema()
)

// ListingSchema describes the listing record the model must return.
func ListingSchema() Schema { return listingSchema }

// ProposalSchema describes the proposal record the model must return.
func ProposalSchema() Schema { return proposalSchema }

// SchemaFor returns the schema of a document kind.
func SchemaFor(kind constants.DocKind) Schema {
	if kind == constants.DocKindProposal {
		return proposalSchema
	}
	return listingSchema
}

func buildListingSchema() Schema {
	props := map[string]any{
		"file_pdf":                      nullable("string"),
		"indirizzo":                     nullable("string"),
		"tipo_vendita":                  nullable("string"),
		"data_vendita":                  nullable("string"),
		"ora_vendita":                   nullable("string"),
		"offerta_minima":                nullable("number"),
		"superficie_mq":                 nullable("number"),
		"piano_numero":                  nullable("integer"),
		"ascensore":                     nullable("string"),
		"stato":                         nullable("string"),
		"categoria_macro":               nullable("string"),
		"aggiornato_il":                 nullable("string"),
		"ora_gara_inizio":               nullable("string"),
		"ora_gara_fine":                 nullable("string"),
		"termine_richieste_visite_data": nullable("string"),
		"termine_richieste_visite_ora":  nullable("string"),
		"data_termine_deposito":         nullable("string"),
		"ora_termine_deposito":          nullable("string"),
		"descrizione":                   nullable("string"),
		"raw_length":                    nullable("integer"),
	}
	return Schema{Name: "AnnuncioSchema", Schema: object(props)}
}

func buildProposalSchema() Schema {
	proposer := object(map[string]any{
		"nominativo": nullable("string"),
		"telefono":   nullable("string"),
		"cellulare":  nullable("string"),
		"documento":  nullable("string"),
	})
	props := map[string]any{
		"file_pdf":              nullable("string"),
		"proponente":            proposer,
		"indirizzo_immobile":    nullable("string"),
		"prezzo_offerto":        nullable("number"),
		"deposito_cauzionale":   nullable("number"),
		"cauzione_percentuale":  nullable("integer"),
		"iban_beneficiario":     nullable("string"),
		"beneficiario_cauzione": nullable("string"),
		"bic_cauzione":          nullable("string"),
		"irrevocabile_giorni":   nullable("integer"),
		"rogito_entro_giorni":   nullable("integer"),
		"catasto":               cadastralUnit(),
		"catasto_voci": map[string]any{
			"type":  []string{"array", "null"},
			"items": cadastralUnit(),
		},
		"luogo_redazione":       nullable("string"),
		"data_redazione":        nullable("string"),
		"anno_redazione":        nullable("integer"),
		"data_termine_deposito": nullable("string"),
		"ora_termine_deposito":  nullable("string"),
		"raw_length":            nullable("integer"),
	}
	return Schema{Name: "PropostaSchema", Schema: object(props)}
}

func cadastralUnit() map[string]any {
	return object(map[string]any{
		"foglio":     nullable("string"),
		"particella": nullable("string"),
		"mappale":    nullable("string"),
		"subalterno": nullable("string"),
		"categoria":  nullable("string"),
		"sezione":    nullable("string"),
	})
}

// object marks every property required, as strict structured output
// demands; optionality is expressed through null.
func object(props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             slices.Sorted(maps.Keys(props)),
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

// Properties lists the top-level keys of a schema.
func (s Schema) Properties() map[string]any {
	props, _ := s.Schema["properties"].(map[string]any)
	return props
}
