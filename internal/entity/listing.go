package entity

// AddressParts is a raw address split into a street part and a locality
// part. Street includes the house number when one was found ("Via Roma 12");
// HouseNumber repeats it on its own.
type AddressParts struct {
	Street      *string `json:"via"`
	HouseNumber *string `json:"civico"`
	Locality    *string `json:"localita"`
}

// Listing is the record extracted from an auction listing ("annuncio").
// All fields are nullable except RawLength.
type Listing struct {
	FileID              string        `json:"file_pdf"`
	AddressRaw          *string       `json:"indirizzo_raw"`
	Address             *string       `json:"indirizzo"`
	AddressParts        *AddressParts `json:"indirizzo_parsed"`
	SaleType            *string       `json:"tipo_vendita"`
	SaleDate            *string       `json:"data_vendita"`
	SaleTime            *string       `json:"ora_vendita"`
	MinimumBid          *float64      `json:"offerta_minima"`
	SurfaceSqm          *float64      `json:"superficie_mq"`
	Floor               *int          `json:"piano_numero"`
	Elevator            *string       `json:"ascensore"`
	Status              *string       `json:"stato"`
	MacroCategory       *string       `json:"categoria_macro"`
	UpdatedOn           *string       `json:"aggiornato_il"`
	SessionStart        *string       `json:"ora_gara_inizio"`
	SessionEnd          *string       `json:"ora_gara_fine"`
	VisitDeadlineDate   *string       `json:"termine_richieste_visite_data"`
	VisitDeadlineTime   *string       `json:"termine_richieste_visite_ora"`
	DepositDeadlineDate *string       `json:"data_termine_deposito"`
	DepositDeadlineTime *string       `json:"ora_termine_deposito"`
	Description         *string       `json:"descrizione"`
	RawLength           int           `json:"raw_length"`
}
