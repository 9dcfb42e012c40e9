package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/address"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/textnorm"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

const labelSaleDate = `Data\s+(?:vendita|gara)`

var (
	reSurfaceValue  = regexp.MustCompile(`(?i)([\d.,]+)\s*m[²2]`)
	reLeadingNumber = regexp.MustCompile(`[\d.,]+`)
	reStatusCut     = regexp.MustCompile(`[,;].*`)
	reSpaces        = regexp.MustCompile(`\s+`)

	reSessionHours = regexp.MustCompile(`(?i)gar[ao][\s\p{L}\d]{0,50}?dalle\s*` + hourPattern + `\s*(?:alle|fino\s+alle)\s*` + hourPattern)
	reVisitRequest = regexp.MustCompile(`(?i)termine\s+richiest[ea]?\s+visite[\s\p{L}\d,:]*?(?:il|entro\s+il)?\s*(` + datePattern + `)[\s\p{L}\d,:]*?(?:ore|h)\s*` + hourPattern)
)

// Listing extracts a listing record from page text. Every field is
// independent; a miss leaves it nil.
func Listing(text, fileID string, opts Options) entity.Listing {
	t := textnorm.Normalize(text)
	lines := textnorm.SplitLines(t)

	rec := entity.Listing{
		FileID:        fileID,
		SaleType:      saleType(t, lines, opts),
		MinimumBid:    minimumBid(t, opts),
		SurfaceSqm:    surface(t, lines, opts),
		Floor:         floor(t, lines, opts),
		Elevator:      elevator(t, lines, opts),
		Status:        status(t, lines, opts),
		MacroCategory: macroCategory(t, lines, opts),
		UpdatedOn:     textnorm.Date(utils.StrOrEmpty(textnorm.PickNear(t, `Aggiornato\s+il`, anyDatePattern, opts.window(WindowUpdatedOn)))),
		Description:   opts.description(t),
		RawLength:     utf8.RuneCountInString(t),
	}

	if raw := address.SelectLine(t); raw != nil {
		parts := address.Parse(*raw)
		rec.AddressRaw = raw
		rec.Address = address.Format(parts)
		rec.AddressParts = &parts
	}

	rec.SaleDate, rec.SaleTime = saleDateTime(t, opts)
	rec.SessionStart, rec.SessionEnd = sessionHours(t)
	rec.VisitDeadlineDate, rec.VisitDeadlineTime = visitDeadline(t)
	rec.DepositDeadlineDate, rec.DepositDeadlineTime = depositDeadline(t, opts.window(WindowDepositDeadline))
	return rec
}

func saleType(t string, lines []string, opts Options) *string {
	v := labelValue(lines, `Tipo\s+vendita`)
	if v == nil {
		v = textnorm.PickNear(t, `Tipo\s+vendita`, `[\p{L} ]+`, opts.window(WindowSaleType))
	}
	if v == nil {
		return nil
	}
	kind, _ := constants.CanonicalSaleType(*v)
	s := strings.TrimSpace(string(kind))
	if s == "" {
		return nil
	}
	return &s
}

// saleDateTime reads the sale date near its label and a time only inside
// the same label context, so page print timestamps are never picked up.
func saleDateTime(t string, opts Options) (date, clock *string) {
	date = textnorm.Date(utils.StrOrEmpty(textnorm.PickNear(t, labelSaleDate, anyDatePattern, opts.window(WindowSaleDate))))
	if ctx := textnorm.WindowAfter(t, labelSaleDate, opts.window(WindowSaleTime)); ctx != "" {
		clock = clockOutsideDates(ctx)
	}
	return date, clock
}

func minimumBid(t string, opts Options) *float64 {
	v := textnorm.PickNear(t, `Offerta\s*minima`, `(?:€|EUR)\s*[\d.,]+`, opts.window(WindowMinimumBid))
	if v == nil {
		return nil
	}
	return textnorm.Money(*v)
}

func surface(t string, lines []string, opts Options) *float64 {
	v := textnorm.PickNear(t, `Superficie`, `[\d.,]+\s*m[²2]`, opts.window(WindowSurface))
	if v == nil {
		v = textnorm.PickLabelLine(lines, `Superficie`)
	}
	if v == nil {
		return nil
	}
	if m := reSurfaceValue.FindStringSubmatch(*v); m != nil {
		return textnorm.Money(m[1])
	}
	return textnorm.Money(reLeadingNumber.FindString(*v))
}

func floor(t string, lines []string, opts Options) *int {
	v := textnorm.PickLabelLine(lines, `^Piano$`)
	if v == nil {
		v = textnorm.PickNear(t, `Piano`, `[0-9]+`, opts.window(WindowFloor))
	}
	if v == nil {
		return nil
	}
	return textnorm.Int(*v)
}

func elevator(t string, lines []string, opts Options) *string {
	v := textnorm.PickLabelLine(lines, `^Ascensore$`)
	if v == nil {
		v = textnorm.PickNear(t, `Ascensore`, `(?:S[iì]|No)(?:[^\p{L}]|$)`, opts.window(WindowElevator))
	}
	if v == nil {
		return nil
	}
	return textnorm.YesNo(*v)
}

func status(t string, lines []string, opts Options) *string {
	v := textnorm.PickLabelLine(lines, `^Stato$`)
	if v == nil {
		v = textnorm.PickNear(t, `Stato`, `\p{L}+`, opts.window(WindowStatus))
	}
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(reStatusCut.ReplaceAllString(*v, ""))
	if s == "" {
		return nil
	}
	return &s
}

func macroCategory(t string, lines []string, opts Options) *string {
	v := textnorm.PickLabelLine(lines, `^Categoria$`)
	if v == nil {
		v = textnorm.PickNear(t, `Categoria`, `[\p{L} ]*\p{L}`, opts.window(WindowCategory))
	}
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(reSpaces.ReplaceAllString(strings.ToUpper(*v), " "))
	if s == "" {
		return nil
	}
	return &s
}

// sessionHours reads "gara ... dalle HH:MM alle HH:MM".
func sessionHours(t string) (start, end *string) {
	m := reSessionHours.FindStringSubmatch(t)
	if m == nil {
		return nil, nil
	}
	s, e := textnorm.Clock(m[1], m[2]), textnorm.Clock(m[3], m[4])
	return &s, &e
}

// visitDeadline reads "termine richieste visite ... dd/mm/yyyy ... ore HH:MM".
func visitDeadline(t string) (date, clock *string) {
	m := reVisitRequest.FindStringSubmatch(t)
	if m == nil {
		return nil, nil
	}
	c := textnorm.Clock(m[2], m[3])
	return textnorm.Date(m[1]), &c
}
