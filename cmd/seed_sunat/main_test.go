package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog_UTF8(t *testing.T) {
	raw := []byte("# catálogo 01\n01|Factura\n03|Boleta de venta\n\n07|Nota de crédito\n")
	got, err := parseCatalog(raw)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, catalogEntry{Code: "07", Name: "Nota de crédito"}, got[2])
}

func TestParseCatalog_Latin1(t *testing.T) {
	// "Nota de débito" en ISO-8859-1: é = 0xE9
	raw := []byte("08|Nota de d\xe9bito\n")
	got, err := parseCatalog(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nota de débito", got[0].Name)
}

func TestParseCatalog_Errores(t *testing.T) {
	_, err := parseCatalog([]byte("01 Factura\n"))
	assert.Error(t, err)

	_, err = parseCatalog([]byte("001|Factura\n"))
	assert.Error(t, err)

	_, err = parseCatalog([]byte("01|Factura\n01|Otra\n"))
	assert.Error(t, err)
}
