package sunat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisfac/sisfac-api/pkg/sunat"
)

func TestBuildFileName(t *testing.T) {
	assert.Equal(t, "20131312955-01-F001-45", sunat.BuildFileName("20131312955", "01", "F001", 45))
}

func TestParseFileName_SerieNumero(t *testing.T) {
	p, ok := sunat.ParseFileName("B001-00000045.xml")
	require.True(t, ok)
	assert.Equal(t, "B001", p.Series)
	assert.Equal(t, "00000045", p.Number)
	assert.Empty(t, p.RUC)
}

func TestParseFileName_ZipYPrimerGuion(t *testing.T) {
	p, ok := sunat.ParseFileName("F001-123-A.ZIP")
	require.True(t, ok)
	assert.Equal(t, "F001", p.Series)
	assert.Equal(t, "123-A", p.Number, "solo se separa por el primer guion")
}

func TestParseFileName_FormatoCompleto(t *testing.T) {
	p, ok := sunat.ParseFileName("20131312955-01-F001-00000007.xml")
	require.True(t, ok)
	assert.Equal(t, "20131312955", p.RUC)
	assert.Equal(t, "01", p.DocType)
	assert.Equal(t, "F001", p.Series)
	assert.Equal(t, "00000007", p.Number)
}

func TestParseFileName_Invalido(t *testing.T) {
	for _, name := range []string{"", "sin-", "-123", "archivo.xml"} {
		_, ok := sunat.ParseFileName(name)
		assert.False(t, ok, name)
	}
}
