package pool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePairsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pairs.json")
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
	return path
}

const validPairsJSON = `[
  {"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": 100000, "quote_reserve": 200000},
  {"id": "SOL-USDC", "base": "SOL", "quote": "USDC", "base_reserve": 500000, "quote_reserve": 750000}
]`

func TestNewRegistry(t *testing.T) {
	path := writePairsFile(t, validPairsJSON)

	registry, err := NewRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Count())

	pair, err := registry.FindByID("ETH-USDC")
	require.NoError(t, err)
	assert.Equal(t, "ETH", pair.Base)
	assert.Equal(t, "USDC", pair.Quote)
	assert.Equal(t, uint64(100000), pair.BaseReserve)
	assert.Equal(t, uint64(200000), pair.QuoteReserve)

	_, err = registry.FindByID("BTC-USDC")
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestNewRegistry_MissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidatePairsJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name:    "valid config",
			json:    validPairsJSON,
			wantErr: false,
		},
		{
			name:    "empty array",
			json:    `[]`,
			wantErr: false,
		},
		{
			name:    "not an array",
			json:    `{"id": "ETH-USDC"}`,
			wantErr: true,
		},
		{
			name:    "missing reserve field",
			json:    `[{"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": 1}]`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			json:    `[{"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": 1, "quote_reserve": 1, "fee": 30}]`,
			wantErr: true,
		},
		{
			name:    "lowercase symbol",
			json:    `[{"id": "eth-USDC", "base": "eth", "quote": "USDC", "base_reserve": 1, "quote_reserve": 1}]`,
			wantErr: true,
		},
		{
			name:    "id without separator",
			json:    `[{"id": "ETHUSDC", "base": "ETH", "quote": "USDC", "base_reserve": 1, "quote_reserve": 1}]`,
			wantErr: true,
		},
		{
			name:    "negative reserve",
			json:    `[{"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": -5, "quote_reserve": 1}]`,
			wantErr: true,
		},
		{
			name:    "fractional reserve",
			json:    `[{"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": 1.5, "quote_reserve": 1}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePairsJSON([]byte(tt.json))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadPairsFromJSON_CrossFieldValidation(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{
			name: "id does not match base and quote",
			json: `[{"id": "ETH-USDT", "base": "ETH", "quote": "USDC", "base_reserve": 1, "quote_reserve": 1}]`,
		},
		{
			name: "base equals quote",
			json: `[{"id": "ETH-ETH", "base": "ETH", "quote": "ETH", "base_reserve": 1, "quote_reserve": 1}]`,
		},
		{
			name: "duplicate id",
			json: `[
				{"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": 1, "quote_reserve": 1},
				{"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": 2, "quote_reserve": 2}
			]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePairsFile(t, tt.json)
			_, err := LoadPairsFromJSON(path)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	path := writePairsFile(t, validPairsJSON)
	registry, err := NewRegistry(path)
	require.NoError(t, err)

	t.Run("forward direction", func(t *testing.T) {
		pair, baseIn, err := registry.Resolve("ETH-USDC")
		require.NoError(t, err)
		assert.Equal(t, "ETH-USDC", pair.ID)
		assert.True(t, baseIn)
	})

	t.Run("reverse direction", func(t *testing.T) {
		pair, baseIn, err := registry.Resolve("USDC-ETH")
		require.NoError(t, err)
		assert.Equal(t, "ETH-USDC", pair.ID)
		assert.False(t, baseIn)
	})

	t.Run("unknown pair", func(t *testing.T) {
		_, _, err := registry.Resolve("BTC-USDC")
		assert.ErrorIs(t, err, ErrPairNotFound)
	})

	t.Run("malformed reference", func(t *testing.T) {
		for _, ref := range []string{"ETHUSDC", "ETH-", "-USDC", "ETH-ETH", "ETH-USDC-SOL", ""} {
			_, _, err := registry.Resolve(ref)
			assert.Error(t, err, "ref %q", ref)
		}
	})
}

func TestSplitRef(t *testing.T) {
	tokenIn, tokenOut, err := SplitRef("ETH-USDC")
	require.NoError(t, err)
	assert.Equal(t, "ETH", tokenIn)
	assert.Equal(t, "USDC", tokenOut)

	_, _, err = SplitRef("ETHUSDC")
	assert.Error(t, err)

	_, _, err = SplitRef("ETH-ETH")
	assert.Error(t, err)
}
