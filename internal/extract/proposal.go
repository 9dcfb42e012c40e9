package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/astadocs/internal/address"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/textnorm"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

var (
	proposerLabels = []string{
		`il/la\s+sottoscritt[oa]`,
		`il\s+sottoscritto`,
		`la\s+sottoscritta`,
		`proponente`,
		`\bsig(?:nor[ae]?|\.?ra|\.)?\.?(?:\s|:)`,
		`societ[aà]\s+|ditta\s+|azienda\s+`,
	}
	priceLabels = []string{
		`prezzo\s+offert[oa]`,
		`offre\s+il\s+prezzo\s+di`,
		`offerta\s+di`,
		`importo\s+pari\s+ad`,
	}
	depositAmountLabels = []string{
		`deposito\s+cauzion[ae]le`,
		`cauzion[ae]`,
		`assegno\s+circolare`,
		`caparra`,
	}
	depositPercentLabels = []string{
		`deposito\s+cauzion[ae]le`,
		`cauzion[ae]`,
		`caparra`,
	}
	irrevocableLabels = []string{
		`irrevocabil[ei]\s+dell['’]?\s*offerta`,
		`l['’]offerta\s+rimarr[aà]\s+irrevocabile`,
		`validit[aà]\s+dell['’]?\s*offerta`,
	}
	deedLabels = []string{
		`rogito\s+(?:entro|da\s+stipularsi\s+entro)`,
		`stipula\s+entro`,
	}
	beneficiaryLabels = []string{
		`intestat[oa]\s+a`,
		`a\s+favore\s+di`,
		`beneficiari[oa]`,
	}

	reProposerLine  = regexp.MustCompile(`(?i)\b(?:sig\.?(?:ra)?|societ[aà]|ditta|azienda)(?:[^\p{L}]|$)`)
	reProposerHead  = regexp.MustCompile(`(?i)^.*?\b(?:sig\.?(?:ra)?|societ[aà]|ditta|azienda)(?:[^\p{L}]|$)[\s:,\-]*`)
	reBirthClause   = regexp.MustCompile(`(?i)\s*(?:,|;|\bnat[oa]\b|\bn\.\s*a\b|\bdomiciliat[oa]\b|\bresident[ea]\b).*$`)
	reIDClause      = regexp.MustCompile(`(?i)\b(?:c\.i\.|c\.f\.|p\.\s?iva|ci|cf|piva|pive|carta\s+d['’]identit[aà]|passaporto|codice\s+fiscale)(?:[^\p{L}]|$).*$`)
	reGenderSuffix  = regexp.MustCompile(`(?i)^\s*/?\s*a\s+`)
	rePhone         = regexp.MustCompile(`(?i)\b(?:telefono|tel\.?)\s*[:\-]?\s*(\+?\d[\d /\-]{5,})`)
	reMobile        = regexp.MustCompile(`(?i)\b(?:cellulare|cell\.?|mobile)\s*[:\-]?\s*(\+?\d[\d /\-]{5,})`)
	reIDDocument    = regexp.MustCompile(`(?i)\b(?:c\.?i\.?|carta\s+d['’]identit[aà]|passaporto)\b.*?n[°o.]\s*[:\-]?\s*([A-Z0-9]{5,15})`)
	reIBAN          = regexp.MustCompile(`(?i)\bIT[0-9A-Z]{2}\s?(?:[0-9A-Z]{4}\s?){5}[0-9A-Z]{3}\b`)
	reBIC           = regexp.MustCompile(`(?i)\b(?:BIC|SWIFT)(?:\s*/\s*SWIFT)?(?:\s+code|\s+codice)?\s*[:\-]?\s*([A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?)\b`)
	reBeneficiaryIn = regexp.MustCompile(`(?i)^(?:della\s+cauzione|del\s+deposito|del\s+bonifico|del\s+conto)\s*:?\s*`)
	reWhitespace    = regexp.MustCompile(`\s+`)

	reDraftingPlace = regexp.MustCompile(`(?i)(?:^|\n)[ \t]*Luogo(?:\s+e\s+data)?[ \t]*[:\-–]?[ \t]*([^\n]+)`)
	reDraftingDate  = regexp.MustCompile(`(?i)(?:^|\n)[ \t]*Data[ \t]*[:\-–][ \t]*(` + datePattern + `)`)
)

// Proposal extracts a purchase proposal record from its text.
func Proposal(text, fileID string, opts Options) entity.Proposal {
	t := textnorm.Normalize(text)
	lines := textnorm.SplitLines(t)

	rec := entity.Proposal{
		FileID:          fileID,
		Proposer:        proposer(t, lines, opts),
		PropertyAddress: address.FindInProposal(t),
		OfferedPrice:    amountStrict(t, priceLabels, opts.window(WindowAmount)),
		DepositAmount:   amountStrict(t, depositAmountLabels, opts.window(WindowAmount)),
		IBAN:            iban(t),
		Beneficiary:     beneficiary(t, opts),
		BIC:             bic(t),
		IrrevocableDays: days(t, irrevocableLabels, opts.window(WindowDays)),
		DeedWithinDays:  days(t, deedLabels, opts.window(WindowDays)),
		RawLength:       utf8.RuneCountInString(t),
	}
	if rec.DepositAmount == nil {
		rec.DepositPercent = textnorm.Percent(t, depositPercentLabels, opts.window(WindowPercent))
	}

	cad := opts.Cadastral.Parse(t)
	rec.CadastralUnits = cad.Units
	if cad.Primary != nil {
		rec.Cadastral = *cad.Primary
	}

	rec.DraftingPlace, rec.DraftingDate, rec.DraftingYear = drafting(t, opts.window(WindowDraftingTail))
	rec.DepositDeadlineDate, rec.DepositDeadlineTime = depositDeadline(t, opts.window(WindowDepositDeadline))
	return rec
}

func proposer(t string, lines []string, opts Options) entity.Proposer {
	name, _, _ := utils.FirstOf(t, []utils.Strategy[string]{
		{
			Name: "label",
			Match: func(s string) ([]string, bool) {
				v := afterLabel(s, proposerLabels, opts.window(WindowProposer))
				if v == nil {
					return nil, false
				}
				return []string{*v}, true
			},
			Extract: cleanProposerName,
		},
		{
			Name: "line",
			Match: func(string) ([]string, bool) {
				for _, l := range lines {
					if reProposerLine.MatchString(l) {
						return []string{reProposerHead.ReplaceAllString(l, "")}, true
					}
				}
				return nil, false
			},
			Extract: cleanProposerName,
		},
	})

	p := entity.Proposer{Name: utils.StrPtr(name)}
	if m := rePhone.FindStringSubmatch(t); m != nil {
		p.Phone = utils.StrPtr(m[1])
	}
	if m := reMobile.FindStringSubmatch(t); m != nil {
		p.Mobile = utils.StrPtr(m[1])
	}
	if m := reIDDocument.FindStringSubmatch(t); m != nil {
		p.Document = utils.StrPtr(strings.ToUpper(m[1]))
	}
	return p
}

// cleanProposerName drops birth/residence clauses, identity document
// references and a leading gender suffix ("/a ").
func cleanProposerName(caps []string) (string, bool) {
	s := reBirthClause.ReplaceAllString(caps[0], "")
	s = reIDClause.ReplaceAllString(s, "")
	s = reGenderSuffix.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return s, s != ""
}

func iban(t string) *string {
	m := reIBAN.FindString(t)
	if m == "" {
		return nil
	}
	s := strings.ToUpper(reWhitespace.ReplaceAllString(m, ""))
	return &s
}

func bic(t string) *string {
	m := reBIC.FindStringSubmatch(t)
	if m == nil {
		return nil
	}
	s := strings.ToUpper(m[1])
	return &s
}

func beneficiary(t string, opts Options) *string {
	v := afterLabel(t, beneficiaryLabels, opts.window(WindowBeneficiary))
	if v == nil {
		return nil
	}
	s := reBeneficiaryIn.ReplaceAllString(*v, "")
	if reIBAN.MatchString(s) {
		return nil
	}
	return utils.StrPtr(s)
}

// drafting reads "Luogo:" and "Data:" from the tail of the document, where
// the signature block sits. A "Luogo e data: Milano, 12/03/2024" line
// provides both.
func drafting(t string, tail int) (place, date *string, year *int) {
	if r := []rune(t); len(r) > tail {
		t = string(r[len(r)-tail:])
	}
	if m := reDraftingPlace.FindStringSubmatch(t); m != nil {
		v := m[1]
		if loc := reDateToken.FindStringIndex(v); loc != nil {
			date = textnorm.Date(v[loc[0]:loc[1]])
			v = v[:loc[0]]
		}
		place = utils.StrPtr(strings.Trim(strings.TrimSpace(v), ",;-–"))
	}
	if m := reDraftingDate.FindStringSubmatch(t); m != nil {
		date = textnorm.Date(m[1])
	}
	if date != nil {
		if y, err := strconv.Atoi((*date)[:4]); err == nil {
			year = &y
		}
	}
	return place, date, year
}
