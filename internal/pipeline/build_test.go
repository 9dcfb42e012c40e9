package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/astadocs/internal/cache"
	"github.com/joseph-ayodele/astadocs/internal/common"
)

func testConfig() *common.Config {
	cfg := common.LoadConfig()
	cfg.LLM.Enabled = false
	cfg.Bank.Enabled = false
	cfg.Extraction.TuningFile = ""
	cfg.Merge.IncludeCharacteristics = true
	return cfg
}

func TestBuildDeterministicOnly(t *testing.T) {
	p, err := Build(testConfig(), nil, quietLogger())
	require.NoError(t, err)
	assert.False(t, p.CanDraft())
	assert.Nil(t, p.Enrich.Lookup)

	out, err := p.ProcessPair(context.Background(),
		payload("annuncio.txt", listingText),
		payload("proposta.txt", proposalText),
		Mode{Draft: true})
	require.NoError(t, err)
	assert.NotNil(t, out.Merged.Characteristics)
	assert.False(t, out.Listing.Draft.Attempted)
}

func TestBuildWiresCapabilities(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Enabled = true
	cfg.LLM.APIKey = "sk-test"
	cfg.Bank.Enabled = true

	p, err := Build(cfg, cache.NewMemoryClient(0), quietLogger())
	require.NoError(t, err)
	assert.True(t, p.CanDraft())
	assert.NotNil(t, p.Enrich.Lookup)
}

func TestBuildAppliesTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  characteristics: false\nwindows:\n  offerta_minima: 200\n"), 0o644))
	cfg := testConfig()
	cfg.Extraction.TuningFile = path

	p, err := Build(cfg, nil, quietLogger())
	require.NoError(t, err)
	assert.False(t, p.Merger.Options.IncludeCharacteristics)
	assert.Equal(t, 200, p.Extract.Options.Windows["offerta_minima"])

	out, err := p.ProcessPair(context.Background(),
		payload("annuncio.txt", listingText),
		payload("proposta.txt", proposalText),
		Mode{})
	require.NoError(t, err)
	assert.Nil(t, out.Merged.Characteristics)
}

func TestBuildRejectsBadTuning(t *testing.T) {
	cfg := testConfig()
	cfg.Extraction.TuningFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Build(cfg, nil, quietLogger())
	assert.Error(t, err)
}
