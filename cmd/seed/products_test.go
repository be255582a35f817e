package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestProductsCommand_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "category", "price", "stock", "image_url", "sizes"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Chelsea Boot", "footwear", "150", 3, "https://cdn/boot.jpg", "41,42"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Hoodie", "clothing", "55", 2, "https://cdn/hoodie.jpg", "XXXL"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"products", path, "--dry-run", "--show-skipped"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		dryRun, showSkipped = false, false
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "1 products, 1 rows skipped")
	assert.Contains(t, out.String(), "row 3: sizes XXXL are not valid for clothing")
}

func TestProductsCommand_RequiresFile(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"products"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
