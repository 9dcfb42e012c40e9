package extract

import (
	"github.com/joseph-ayodele/astadocs/internal/cadastral"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/description"
)

// Window names usable as keys in the tuning file's "windows" map.
const (
	WindowSurface         = "superficie"
	WindowFloor           = "piano"
	WindowElevator        = "ascensore"
	WindowStatus          = "stato"
	WindowCategory        = "categoria"
	WindowUpdatedOn       = "aggiornato_il"
	WindowSaleType        = "tipo_vendita"
	WindowMinimumBid      = "offerta_minima"
	WindowSaleDate        = "data_vendita"
	WindowSaleTime        = "ora_vendita"
	WindowDepositDeadline = "termine_deposito"
	WindowProposer        = "proponente"
	WindowAmount          = "importo"
	WindowPercent         = "percentuale"
	WindowDays            = "giorni"
	WindowBeneficiary     = "beneficiario"
	WindowDraftingTail    = "redazione"
)

var defaultWindows = map[string]int{
	WindowSurface:         80,
	WindowFloor:           30,
	WindowElevator:        20,
	WindowStatus:          40,
	WindowCategory:        80,
	WindowUpdatedOn:       40,
	WindowSaleType:        60,
	WindowMinimumBid:      80,
	WindowSaleDate:        120,
	WindowSaleTime:        160,
	WindowDepositDeadline: 120,
	WindowProposer:        200,
	WindowAmount:          200,
	WindowPercent:         120,
	WindowDays:            120,
	WindowBeneficiary:     120,
	WindowDraftingTail:    1500,
}

// Options carries the tunable constants of the extractors. The zero value
// is usable and equals DefaultOptions.
type Options struct {
	Windows     map[string]int
	Cadastral   cadastral.Parser
	Description *description.Extractor
}

// DefaultOptions returns the built-in windows and markers.
func DefaultOptions() Options {
	return Options{Cadastral: cadastral.Parser{Window: cadastral.DefaultWindow}}
}

// NewOptions applies a tuning document over the defaults.
func NewOptions(t *common.Tuning) (Options, error) {
	opts := DefaultOptions()
	if t == nil {
		return opts, nil
	}
	opts.Windows = make(map[string]int, len(defaultWindows))
	for name, def := range defaultWindows {
		opts.Windows[name] = t.Window(name, def)
	}
	if t.Cadastral.Window > 0 {
		opts.Cadastral.Window = t.Cadastral.Window
	}
	d, err := description.New(description.Options{
		MaxChars:    t.Description.MaxChars,
		StopPhrases: t.Description.StopPhrases,
	})
	if err != nil {
		return Options{}, common.NewAppError("CONFIG_ERROR", "compile description stop phrases", err)
	}
	opts.Description = d
	return opts, nil
}

func (o Options) window(name string) int {
	if w, ok := o.Windows[name]; ok && w > 0 {
		return w
	}
	return defaultWindows[name]
}

func (o Options) description(text string) *string {
	if o.Description == nil {
		return description.Extract(text)
	}
	return o.Description.Extract(text)
}
