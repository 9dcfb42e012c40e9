package merge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

func fixedMerger(now time.Time) *Merger {
	return &Merger{
		Options: Options{
			BidIncrement:           DefaultBidIncrement,
			Cutoff:                 DefaultCutoff,
			Location:               time.UTC,
			IncludeCharacteristics: true,
		},
		Now: func() time.Time { return now },
	}
}

func TestDeriveAuctionDate(t *testing.T) {
	assert.Equal(t, "2024-05-12", *DeriveAuctionDate(utils.Ptr("2024-05-10")))
	assert.Equal(t, "2024-03-01", *DeriveAuctionDate(utils.Ptr("2024-02-28")))
	assert.Equal(t, "2025-01-01", *DeriveAuctionDate(utils.Ptr("2024-12-30")))
	assert.Nil(t, DeriveAuctionDate(nil))
	assert.Nil(t, DeriveAuctionDate(utils.Ptr("10/05/2024")))
}

func TestMaxBid(t *testing.T) {
	assert.Equal(t, 126000.0, *MaxBid(utils.Ptr(125000.0), 1000))
	assert.Equal(t, 1099.5, *MaxBid(utils.Ptr(99.5), 1000))
	assert.Nil(t, MaxBid(nil, 1000))
}

func TestPublicationDate(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	cases := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want string
	}{
		{"before cutoff", time.Date(2024, 5, 10, 15, 29, 0, 0, time.UTC), time.UTC, "2024-05-10"},
		{"at cutoff", time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC), time.UTC, "2024-05-11"},
		{"end of month", time.Date(2024, 5, 31, 18, 0, 0, 0, time.UTC), time.UTC, "2024-06-01"},
		{"local zone shifts", time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC), rome, "2024-05-11"},
		{"nil zone is utc", time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), nil, "2024-05-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PublicationDate(tc.now, DefaultCutoff, tc.loc))
		})
	}
}

func TestMerge(t *testing.T) {
	l := entity.Listing{
		FileID:            "annuncio.pdf",
		Address:           utils.Ptr("Via Roma, 12, Milano"),
		SaleType:          utils.Ptr("Senza incanto"),
		SaleTime:          utils.Ptr("10:30"),
		MinimumBid:        utils.Ptr(125000.0),
		SurfaceSqm:        utils.Ptr(85.0),
		Floor:             utils.Ptr(2),
		SessionEnd:        utils.Ptr("12:00"),
		Description:       utils.Ptr("Bilocale luminoso."),
		VisitDeadlineDate: utils.Ptr("2024-05-05"),
	}
	p := entity.Proposal{
		FileID:              "proposta.pdf",
		PropertyAddress:     utils.Ptr("Corso Garibaldi 5, Torino"),
		DepositAmount:       utils.Ptr(12500.0),
		DepositPercent:      utils.Ptr(10),
		IBAN:                utils.Ptr("IT60X0542811101000000123456"),
		DepositDeadlineDate: utils.Ptr("2024-05-10"),
		DepositDeadlineTime: utils.Ptr("12:00"),
		IrrevocableDays:     utils.Ptr(120),
		Cadastral:           entity.CadastralUnit{Sheet: utils.Ptr("12"), Parcel: utils.Ptr("34")},
		DraftingPlace:       utils.Ptr("Milano"),
	}

	m := fixedMerger(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)).Merge(l, p)

	assert.Equal(t, entity.MergedSource{ListingFile: "annuncio.pdf", ProposalFile: "proposta.pdf"}, m.Source)

	assert.Equal(t, "Via Roma, 12, Milano", *m.Property.Address, "listing address wins")
	assert.Equal(t, "Via Roma 12", *m.Property.Street)
	assert.Equal(t, "12", *m.Property.HouseNumber)
	assert.Equal(t, "Milano", *m.Property.Locality)

	assert.Equal(t, "2024-05-12", *m.Auction.Date)
	assert.True(t, m.Auction.DateDerived)
	assert.Equal(t, "10:30", *m.Auction.StartTime, "sale time stands in for session start")
	assert.Equal(t, "12:00", *m.Auction.EndTime)
	assert.Equal(t, 126000.0, *m.Auction.MaximumBid)

	assert.Equal(t, "2024-05-10", *m.Payments.DepositDeadlineDate)
	assert.Equal(t, 12500.0, *m.Payments.DepositAmount)
	assert.Nil(t, m.Payments.DepositPercent)

	assert.Equal(t, "34", *m.Cadastral.Mappale)
	assert.Equal(t, 120, *m.Terms.IrrevocableDays)
	assert.Equal(t, "Milano", *m.Drafting.Place)
	assert.Equal(t, "2024-05-05", *m.Visits.DeadlineDate)

	require.NotNil(t, m.Characteristics)
	assert.Equal(t, 2, *m.Characteristics.Floor)
	assert.Equal(t, "2024-05-02", m.PublicationDate)
}

func TestMergeExplicitDateAndProposalAddress(t *testing.T) {
	l := entity.Listing{
		SaleDate:            utils.Ptr("2024-06-01"),
		SessionStart:        utils.Ptr("09:00"),
		SaleTime:            utils.Ptr("10:30"),
		DepositDeadlineDate: utils.Ptr("2024-05-20"),
	}
	p := entity.Proposal{
		PropertyAddress:     utils.Ptr("Corso Garibaldi 5, Torino"),
		DepositDeadlineDate: utils.Ptr("2024-05-10"),
		DepositDeadlineTime: utils.Ptr("12:00"),
	}

	m := fixedMerger(time.Date(2024, 5, 2, 16, 0, 0, 0, time.UTC)).Merge(l, p)

	assert.Equal(t, "2024-06-01", *m.Auction.Date)
	assert.False(t, m.Auction.DateDerived)
	assert.Equal(t, "09:00", *m.Auction.StartTime)
	assert.Equal(t, "2024-05-20", *m.Payments.DepositDeadlineDate, "listing deadline first")
	assert.Equal(t, "12:00", *m.Payments.DepositDeadlineTime, "proposal fills the gap")
	assert.Equal(t, "Corso Garibaldi 5, Torino", *m.Property.Address)
	assert.Equal(t, "Torino", *m.Property.Locality)
	assert.Nil(t, m.Auction.MaximumBid)
	assert.Equal(t, "2024-05-03", m.PublicationDate)
}

func TestMergeWithoutCharacteristics(t *testing.T) {
	mg := fixedMerger(time.Now())
	mg.Options.IncludeCharacteristics = false

	m := mg.Merge(entity.Listing{Floor: utils.Ptr(3)}, entity.Proposal{})
	assert.Nil(t, m.Characteristics)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "caratteristiche")
	assert.Contains(t, string(b), `"offerta_massima":null`)
}

func TestOptionsFrom(t *testing.T) {
	opts, err := OptionsFrom(common.MergeConfig{
		BidIncrement:      500,
		PublicationCutoff: "14:00",
		TimeZone:          "UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, opts.BidIncrement)
	assert.Equal(t, time.UTC, opts.Location)

	_, err = OptionsFrom(common.MergeConfig{PublicationCutoff: "late", TimeZone: "UTC"})
	assert.Error(t, err)
	_, err = OptionsFrom(common.MergeConfig{PublicationCutoff: "15:30", TimeZone: "Mars/Base"})
	assert.Error(t, err)
}
