// Package merge joins one listing and one proposal into the canonical
// merged record.
package merge

import (
	"time"

	"github.com/joseph-ayodele/astadocs/internal/address"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/textnorm"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

const (
	// DefaultBidIncrement is added to the minimum bid to obtain the maximum bid.
	DefaultBidIncrement = 1000.0
	// DefaultCutoff is the time of day after which publication moves to the
	// next day.
	DefaultCutoff = "15:30"
	// AuctionDateOffsetDays separates the deposit deadline from a derived
	// auction date.
	AuctionDateOffsetDays = 2
)

// Options tune the derived fields.
type Options struct {
	BidIncrement           float64
	Cutoff                 string // HH:MM
	Location               *time.Location
	IncludeCharacteristics bool
}

// DefaultOptions uses Europe/Rome, falling back to UTC when the zone
// database is missing.
func DefaultOptions() Options {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		loc = time.UTC
	}
	return Options{
		BidIncrement:           DefaultBidIncrement,
		Cutoff:                 DefaultCutoff,
		Location:               loc,
		IncludeCharacteristics: true,
	}
}

// OptionsFrom maps the merge configuration section onto Options.
func OptionsFrom(cfg common.MergeConfig) (Options, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return Options{}, common.NewAppError("CONFIG_ERROR", "unknown time zone "+cfg.TimeZone, err)
	}
	if _, err := time.Parse("15:04", cfg.PublicationCutoff); err != nil {
		return Options{}, common.NewAppError("CONFIG_ERROR", "publication cutoff must be HH:MM", err)
	}
	return Options{
		BidIncrement:           cfg.BidIncrement,
		Cutoff:                 cfg.PublicationCutoff,
		Location:               loc,
		IncludeCharacteristics: cfg.IncludeCharacteristics,
	}, nil
}

// Merger builds merged records. Now is the clock used for the publication
// date; it defaults to time.Now.
type Merger struct {
	Options Options
	Now     func() time.Time
}

// New returns a Merger with opts and the wall clock.
func New(opts Options) *Merger {
	return &Merger{Options: opts, Now: time.Now}
}

// Merge joins l and p. The listing wins wherever both documents carry the
// same fact; the proposal supplies cadastral, payment, term and drafting
// data.
func (m *Merger) Merge(l entity.Listing, p entity.Proposal) entity.Merged {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}

	out := entity.Merged{
		Description: l.Description,
		Source: entity.MergedSource{
			ListingFile:  l.FileID,
			ProposalFile: p.FileID,
		},
		Property:        property(l, p),
		Visits:          entity.MergedVisits{DeadlineDate: l.VisitDeadlineDate, DeadlineTime: l.VisitDeadlineTime},
		Cadastral:       p.Cadastral.WithMappaleDefault(),
		Terms:           entity.MergedTerms{IrrevocableDays: p.IrrevocableDays, DeedWithinDays: p.DeedWithinDays},
		Drafting:        entity.MergedDrafting{Place: p.DraftingPlace, Date: p.DraftingDate, Year: p.DraftingYear},
		PublicationDate: PublicationDate(now(), m.Options.Cutoff, m.Options.Location),
	}

	deadlineDate := utils.Coalesce(l.DepositDeadlineDate, p.DepositDeadlineDate)
	deadlineTime := utils.Coalesce(l.DepositDeadlineTime, p.DepositDeadlineTime)

	out.Auction = entity.MergedAuction{
		SaleType:   l.SaleType,
		Date:       l.SaleDate,
		Time:       l.SaleTime,
		StartTime:  utils.Coalesce(l.SessionStart, l.SaleTime),
		EndTime:    l.SessionEnd,
		MinimumBid: l.MinimumBid,
		MaximumBid: MaxBid(l.MinimumBid, m.Options.BidIncrement),
	}
	if out.Auction.Date == nil {
		if derived := DeriveAuctionDate(deadlineDate); derived != nil {
			out.Auction.Date = derived
			out.Auction.DateDerived = true
		}
	}

	out.Payments = entity.MergedPayments{
		OfferedPrice:        p.OfferedPrice,
		DepositAmount:       p.DepositAmount,
		DepositPercent:      p.DepositPercent,
		IBAN:                p.IBAN,
		Beneficiary:         p.Beneficiary,
		BIC:                 p.BIC,
		BankName:            p.BankName,
		DepositDeadlineDate: deadlineDate,
		DepositDeadlineTime: deadlineTime,
	}
	if p.DepositAmount != nil {
		out.Payments.DepositPercent = nil
	}

	if m.Options.IncludeCharacteristics {
		out.Characteristics = &entity.MergedCharacteristics{
			SurfaceSqm:    l.SurfaceSqm,
			Floor:         l.Floor,
			Elevator:      l.Elevator,
			Status:        l.Status,
			MacroCategory: l.MacroCategory,
			UpdatedOn:     l.UpdatedOn,
		}
	}
	return out
}

func property(l entity.Listing, p entity.Proposal) entity.MergedProperty {
	addr := utils.Coalesce(l.Address, l.AddressRaw, p.PropertyAddress)
	if addr == nil {
		return entity.MergedProperty{}
	}
	parts := address.Parse(*addr)
	return entity.MergedProperty{
		Address:     addr,
		Street:      parts.Street,
		HouseNumber: parts.HouseNumber,
		Locality:    parts.Locality,
	}
}

// DeriveAuctionDate returns the deposit deadline plus two calendar days, or
// nil when the deadline is missing or not yyyy-mm-dd.
func DeriveAuctionDate(deadline *string) *string {
	if deadline == nil {
		return nil
	}
	t, err := utils.ParseYMD(*deadline)
	if err != nil {
		return nil
	}
	s := t.AddDate(0, 0, AuctionDateOffsetDays).Format("2006-01-02")
	return &s
}

// MaxBid returns minimum bid plus increment rounded to two decimals.
func MaxBid(minimum *float64, increment float64) *float64 {
	if minimum == nil {
		return nil
	}
	v := textnorm.Round2(*minimum + increment)
	return &v
}

// PublicationDate returns now's date in loc, moved to the next day when the
// local time is at or after cutoff. An unparsable cutoff never moves it.
func PublicationDate(now time.Time, cutoff string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	if c, err := time.Parse("15:04", cutoff); err == nil {
		minutes := local.Hour()*60 + local.Minute()
		if minutes >= c.Hour()*60+c.Minute() {
			local = local.AddDate(0, 0, 1)
		}
	}
	return local.Format("2006-01-02")
}
