package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "branches": [
    {"id": "b1", "company_id": "c1", "name": "Centro"},
    {"id": "b2", "company_id": "c1", "name": "Norte", "inactive": true}
  ],
  "invoices": [
    {"id": "inv-1", "company_id": "c1", "branch_id": "b1", "invoice_number": "F-001",
     "items": [{"id": "ii-1", "item_id": "it-1", "quantity": "2", "unit_price": "50"}]}
  ]
}`

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o600))

	s := New()
	seed, err := s.LoadSeedFile(path)
	require.NoError(t, err)
	assert.Len(t, seed.Branches, 2)

	ctx := context.Background()
	repos := s.Repos()
	b1, err := repos.Branches.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, b1.IsActive)
	b2, err := repos.Branches.GetByID(ctx, "b2")
	require.NoError(t, err)
	assert.False(t, b2.IsActive)

	inv, err := repos.Invoices.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "100", inv.Items[0].Total.String())
	assert.Equal(t, "100", inv.GrandTotal.String())
}

func TestApplySeed_RejectsIncompleteRows(t *testing.T) {
	assert.Error(t, New().ApplySeed(Seed{Branches: []SeedBranch{{ID: "b1"}}}))
	assert.Error(t, New().ApplySeed(Seed{Invoices: []SeedInvoice{{ID: "i", CompanyID: "c"}}}))
}

func TestLoadSeedFile_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := New().LoadSeedFile(path)
	assert.Error(t, err)
}
