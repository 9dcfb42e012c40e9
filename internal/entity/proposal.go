package entity

// Proposer identifies whoever signed the purchase proposal.
type Proposer struct {
	Name     *string `json:"nominativo"`
	Phone    *string `json:"telefono"`
	Mobile   *string `json:"cellulare"`
	Document *string `json:"documento"`
}

// Proposal is the record extracted from a purchase proposal ("proposta").
// DepositPercent is only set when DepositAmount is absent.
type Proposal struct {
	FileID              string          `json:"file_pdf"`
	Proposer            Proposer        `json:"proponente"`
	PropertyAddress     *string         `json:"indirizzo_immobile"`
	OfferedPrice        *float64        `json:"prezzo_offerto"`
	DepositAmount       *float64        `json:"deposito_cauzionale"`
	DepositPercent      *int            `json:"cauzione_percentuale"`
	IBAN                *string         `json:"iban_beneficiario"`
	Beneficiary         *string         `json:"beneficiario_cauzione"`
	BIC                 *string         `json:"bic_cauzione"`
	BankName            *string         `json:"banca_cauzione"`
	IrrevocableDays     *int            `json:"irrevocabile_giorni"`
	DeedWithinDays      *int            `json:"rogito_entro_giorni"`
	Cadastral           CadastralUnit   `json:"catasto"`
	CadastralUnits      []CadastralUnit `json:"catasto_voci"`
	DraftingPlace       *string         `json:"luogo_redazione"`
	DraftingDate        *string         `json:"data_redazione"`
	DraftingYear        *int            `json:"anno_redazione"`
	DepositDeadlineDate *string         `json:"data_termine_deposito"`
	DepositDeadlineTime *string         `json:"ora_termine_deposito"`
	RawLength           int             `json:"raw_length"`
}
