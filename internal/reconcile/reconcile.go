// Package reconcile combines a machine-drafted record with the record
// produced by the pattern extractors. A value present in the draft is kept;
// every draft null falls back to the extracted value.
package reconcile

import (
	"encoding/json"
	"math"

	"github.com/joseph-ayodele/astadocs/internal/address"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/llm"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

// DraftStatus tells how much of a model answer could be read.
type DraftStatus int

const (
	// DraftOK means the answer was a JSON object.
	DraftOK DraftStatus = iota
	// DraftSalvaged means an object was recovered from surrounding text.
	DraftSalvaged
	// DraftEmpty means nothing usable was found; every field falls back.
	DraftEmpty
)

func (s DraftStatus) String() string {
	switch s {
	case DraftOK:
		return "ok"
	case DraftSalvaged:
		return "salvaged"
	default:
		return "empty"
	}
}

// ParseDraft decodes a model answer. A failed parse is retried on the
// outermost {...} substring before giving up with an empty map.
func ParseDraft(raw []byte) (map[string]any, DraftStatus) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil && m != nil {
		return m, DraftOK
	}
	if obj, ok := llm.SalvageObject(raw); ok {
		m = nil
		if err := json.Unmarshal(obj, &m); err == nil && m != nil {
			return m, DraftSalvaged
		}
	}
	return map[string]any{}, DraftEmpty
}

// Listing reconciles a listing draft with the extracted record. The draft
// map is normalized in place.
func Listing(draft map[string]any, det entity.Listing) entity.Listing {
	if draft == nil {
		draft = map[string]any{}
	}
	llm.NormalizeDraft(llm.ListingSchema(), draft)

	out := det
	if fileID := str(draft, "file_pdf"); fileID != nil && det.FileID == "" {
		out.FileID = *fileID
	}

	if addr := str(draft, "indirizzo"); addr != nil {
		parts := address.Parse(*addr)
		out.Address = utils.Coalesce(address.Format(parts), addr)
		out.AddressParts = &parts
		if out.AddressRaw == nil {
			out.AddressRaw = addr
		}
	}

	out.SaleType = utils.Coalesce(str(draft, "tipo_vendita"), det.SaleType)
	out.SaleDate = utils.Coalesce(str(draft, "data_vendita"), det.SaleDate)
	out.SaleTime = utils.Coalesce(str(draft, "ora_vendita"), det.SaleTime)
	out.MinimumBid = utils.Coalesce(num(draft, "offerta_minima"), det.MinimumBid)
	out.SurfaceSqm = utils.Coalesce(num(draft, "superficie_mq"), det.SurfaceSqm)
	out.Floor = utils.Coalesce(integer(draft, "piano_numero"), det.Floor)
	out.Elevator = utils.Coalesce(str(draft, "ascensore"), det.Elevator)
	out.Status = utils.Coalesce(str(draft, "stato"), det.Status)
	out.MacroCategory = utils.Coalesce(str(draft, "categoria_macro"), det.MacroCategory)
	out.UpdatedOn = utils.Coalesce(str(draft, "aggiornato_il"), det.UpdatedOn)
	out.SessionStart = utils.Coalesce(str(draft, "ora_gara_inizio"), det.SessionStart)
	out.SessionEnd = utils.Coalesce(str(draft, "ora_gara_fine"), det.SessionEnd)
	out.VisitDeadlineDate = utils.Coalesce(str(draft, "termine_richieste_visite_data"), det.VisitDeadlineDate)
	out.VisitDeadlineTime = utils.Coalesce(str(draft, "termine_richieste_visite_ora"), det.VisitDeadlineTime)
	out.DepositDeadlineDate = utils.Coalesce(str(draft, "data_termine_deposito"), det.DepositDeadlineDate)
	out.DepositDeadlineTime = utils.Coalesce(str(draft, "ora_termine_deposito"), det.DepositDeadlineTime)
	out.Description = utils.Coalesce(str(draft, "descrizione"), det.Description)
	if out.RawLength == 0 {
		if n := integer(draft, "raw_length"); n != nil {
			out.RawLength = *n
		}
	}
	return out
}

// Proposal reconciles a proposal draft with the extracted record. Proposer
// and primary cadastral unit are filled field by field; the unit list is
// taken from the draft only when it has at least one unit.
func Proposal(draft map[string]any, det entity.Proposal) entity.Proposal {
	if draft == nil {
		draft = map[string]any{}
	}
	llm.NormalizeDraft(llm.ProposalSchema(), draft)

	out := det
	if fileID := str(draft, "file_pdf"); fileID != nil && det.FileID == "" {
		out.FileID = *fileID
	}

	out.Proposer = entity.Proposer{
		Name:     utils.Coalesce(str(draft, "proponente.nominativo"), det.Proposer.Name),
		Phone:    utils.Coalesce(str(draft, "proponente.telefono"), det.Proposer.Phone),
		Mobile:   utils.Coalesce(str(draft, "proponente.cellulare"), det.Proposer.Mobile),
		Document: utils.Coalesce(str(draft, "proponente.documento"), det.Proposer.Document),
	}
	out.PropertyAddress = utils.Coalesce(str(draft, "indirizzo_immobile"), det.PropertyAddress)
	out.OfferedPrice = utils.Coalesce(num(draft, "prezzo_offerto"), det.OfferedPrice)
	out.DepositAmount = utils.Coalesce(num(draft, "deposito_cauzionale"), det.DepositAmount)
	out.DepositPercent = utils.Coalesce(integer(draft, "cauzione_percentuale"), det.DepositPercent)
	if out.DepositAmount != nil {
		out.DepositPercent = nil
	}
	out.IBAN = utils.Coalesce(str(draft, "iban_beneficiario"), det.IBAN)
	out.Beneficiary = utils.Coalesce(str(draft, "beneficiario_cauzione"), det.Beneficiary)
	out.BIC = utils.Coalesce(str(draft, "bic_cauzione"), det.BIC)
	out.IrrevocableDays = utils.Coalesce(integer(draft, "irrevocabile_giorni"), det.IrrevocableDays)
	out.DeedWithinDays = utils.Coalesce(integer(draft, "rogito_entro_giorni"), det.DeedWithinDays)

	out.Cadastral = unit(draft, "catasto.", det.Cadastral)
	if units := unitList(draft); len(units) > 0 {
		out.CadastralUnits = units
	}

	out.DraftingPlace = utils.Coalesce(str(draft, "luogo_redazione"), det.DraftingPlace)
	out.DraftingDate = utils.Coalesce(str(draft, "data_redazione"), det.DraftingDate)
	out.DraftingYear = utils.Coalesce(integer(draft, "anno_redazione"), det.DraftingYear)
	out.DepositDeadlineDate = utils.Coalesce(str(draft, "data_termine_deposito"), det.DepositDeadlineDate)
	out.DepositDeadlineTime = utils.Coalesce(str(draft, "ora_termine_deposito"), det.DepositDeadlineTime)
	if out.RawLength == 0 {
		if n := integer(draft, "raw_length"); n != nil {
			out.RawLength = *n
		}
	}
	return out
}

func unit(m map[string]any, prefix string, det entity.CadastralUnit) entity.CadastralUnit {
	u := entity.CadastralUnit{
		Sheet:    utils.Coalesce(str(m, prefix+"foglio"), det.Sheet),
		Parcel:   utils.Coalesce(str(m, prefix+"particella"), det.Parcel),
		Mappale:  utils.Coalesce(str(m, prefix+"mappale"), det.Mappale),
		Subunit:  utils.Coalesce(str(m, prefix+"subalterno"), det.Subunit),
		Category: utils.Coalesce(str(m, prefix+"categoria"), det.Category),
		Section:  utils.Coalesce(str(m, prefix+"sezione"), det.Section),
	}
	return u.WithMappaleDefault()
}

func unitList(m map[string]any) []entity.CadastralUnit {
	items, _ := utils.Lookup(m, "catasto_voci", nil).([]any)
	var out []entity.CadastralUnit
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if u := unit(obj, "", entity.CadastralUnit{}); u.Present() {
			out = append(out, u)
		}
	}
	return out
}

func str(m map[string]any, path string) *string {
	return utils.StrPtr(utils.LookupString(m, path, ""))
}

func num(m map[string]any, path string) *float64 {
	v := utils.LookupFloat(m, path, math.NaN())
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func integer(m map[string]any, path string) *int {
	f := num(m, path)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
