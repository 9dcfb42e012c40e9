package entity

// Merged is the canonical record built from one listing and one proposal.
type Merged struct {
	Description     *string                `json:"descrizione"`
	Source          MergedSource           `json:"fonte"`
	Property        MergedProperty         `json:"immobile"`
	Auction         MergedAuction          `json:"gara"`
	Visits          MergedVisits           `json:"visite"`
	Characteristics *MergedCharacteristics `json:"caratteristiche,omitempty"`
	Cadastral       CadastralUnit          `json:"catasto"`
	Payments        MergedPayments         `json:"pagamenti"`
	Terms           MergedTerms            `json:"termini"`
	Drafting        MergedDrafting         `json:"redazione"`
	PublicationDate string                 `json:"data_pubblicazione"`
}

// MergedSource keeps both contributing file identifiers.
type MergedSource struct {
	ListingFile  string `json:"annuncio_file"`
	ProposalFile string `json:"proposta_file"`
}

type MergedProperty struct {
	Address     *string `json:"indirizzo"`
	Street      *string `json:"via"`
	HouseNumber *string `json:"civico"`
	Locality    *string `json:"localita"`
}

type MergedAuction struct {
	SaleType    *string  `json:"tipo_vendita"`
	Date        *string  `json:"data"`
	DateDerived bool     `json:"data_derivata"`
	Time        *string  `json:"ora"`
	StartTime   *string  `json:"ora_inizio"`
	EndTime     *string  `json:"ora_fine"`
	MinimumBid  *float64 `json:"offerta_minima"`
	MaximumBid  *float64 `json:"offerta_massima"`
}

type MergedVisits struct {
	DeadlineDate *string `json:"termine_data"`
	DeadlineTime *string `json:"termine_ora"`
}

type MergedCharacteristics struct {
	SurfaceSqm    *float64 `json:"superficie_mq"`
	Floor         *int     `json:"piano"`
	Elevator      *string  `json:"ascensore"`
	Status        *string  `json:"stato"`
	MacroCategory *string  `json:"categoria_macro"`
	UpdatedOn     *string  `json:"aggiornato_il"`
}

type MergedPayments struct {
	DepositAmount       *float64 `json:"deposito_cauzionale"`
	DepositPercent      *int     `json:"cauzione_percentuale"`
	IBAN                *string  `json:"iban_beneficiario"`
	Beneficiary         *string  `json:"beneficiario_cauzione"`
	BIC                 *string  `json:"bic_cauzione"`
	BankName            *string  `json:"banca_cauzione"`
	DepositDeadlineDate *string  `json:"termine_deposito_data"`
	DepositDeadlineTime *string  `json:"termine_deposito_ora"`
	OfferedPrice        *float64 `json:"prezzo_offerto"`
}

type MergedTerms struct {
	IrrevocableDays *int `json:"irrevocabile_giorni"`
	DeedWithinDays  *int `json:"rogito_entro_giorni"`
}

type MergedDrafting struct {
	Place *string `json:"luogo"`
	Date  *string `json:"data"`
	Year  *int    `json:"anno"`
}
