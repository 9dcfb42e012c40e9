package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/astadocs/constants"
)

// DefaultMaxChars bounds the document text sent to the model.
const DefaultMaxChars = 120000

// SystemPrompt is the fixed system message of every drafting call.
const SystemPrompt = "Restituisci solo JSON valido che rispetta lo schema."

// ListingPrompt instructs the model on listing pages.
const ListingPrompt = `Leggi il testo di una scheda ANNUNCIO di un portale di aste immobiliari.
Compila i campi dello schema e rispondi solo con JSON. Non inventare: un dato assente vale null.
Formati:
- importi come numeri (125000.00), date come YYYY-MM-DD, orari come HH:MM;
- ascensore vale "SI" oppure "NO";
- ora_vendita solo se compare vicino a "Data vendita" o "Data gara";
- ora_gara_inizio e ora_gara_fine da frasi come "gara dalle HH:MM alle HH:MM";
- data_termine_deposito e ora_termine_deposito da frasi come "le offerte devono pervenire entro il GG/MM/AAAA ore HH:MM";
- termine_richieste_visite_data e termine_richieste_visite_ora da "Termine richieste visite";
- senza una data di gara esplicita lascia data_vendita a null.
indirizzo va scritto come "Via Nome, Civico, Città" senza CAP e senza "Appartamento all'asta".
descrizione è il blocco sotto l'intestazione "Descrizione", senza link, contatti o pubblicità; null se manca.`

// ProposalPrompt instructs the model on purchase proposals.
const ProposalPrompt = `Leggi il testo di una PROPOSTA di acquisto compilata dall'agente.
Compila i campi dello schema e rispondi solo con JSON. Non inventare: un dato assente vale null.
Formati: importi come numeri, date come YYYY-MM-DD, orari come HH:MM.
In fondo al documento "Luogo:" e "Data:" danno luogo_redazione, data_redazione e anno_redazione.
iban_beneficiario solo per IBAN italiani (IT...); beneficiario_cauzione è l'intestatario del conto, anche una società; bic_cauzione se è indicato un BIC o SWIFT.
cauzione_percentuale solo se la cauzione è espressa in percentuale e non in euro.
Catasto: ogni unità immobiliare va in catasto_voci; catasto riporta la prima unità completa.`

// PromptFor returns the instruction of a document kind.
func PromptFor(kind constants.DocKind) string {
	if kind == constants.DocKindProposal {
		return ProposalPrompt
	}
	return ListingPrompt
}

// ClampText truncates text to maxChars runes.
func ClampText(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars])
}

// BuildUserPrompt lays out instruction, file marker and document text.
func BuildUserPrompt(prompt, fileID, text string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n[file_pdf=")
	b.WriteString(fileID)
	b.WriteString("]\n\n")
	b.WriteString(text)
	return b.String()
}
