package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.All()
	require.NotEmpty(t, all)
	assert.Equal(t, "1", all[0].ID)

	p, ok := c.Get("3")
	require.True(t, ok)
	assert.Equal(t, "Running Shoes", p.Name)
	assert.Equal(t, 89.5, p.Price)
}

func TestCatalog_ByCategoryIsCaseInsensitive(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	upper := c.ByCategory("ELECTRONICS")
	lower := c.ByCategory("electronics")
	assert.Len(t, upper, 2)
	assert.Equal(t, upper, lower)

	none := c.ByCategory("garden")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCatalog_GetMissing(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, ok := c.Get("999")
	assert.False(t, ok)
}

func TestCatalog_AllReturnsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.All()
	all[0].Name = "changed"

	p, _ := c.Get(all[0].ID)
	assert.NotEqual(t, "changed", p.Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed", "products: [", "decode catalog"},
		{"missing id", "products:\n  - name: x\n", "has no id"},
		{"duplicate id", "products:\n  - id: a\n  - id: a\n", "duplicated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - id: x1\n    name: Kettle\n    category: Home\n    price: 20\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	p, ok := c.Get("x1")
	require.True(t, ok)
	assert.Equal(t, "Kettle", p.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
