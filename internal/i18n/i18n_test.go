package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Authentication required", T("en", KeyAuthRequired))
	assert.Equal(t, "Unknown collection widgets", T("en", KeyCollectionNotFound, "widgets"))
	// unknown language falls back to en
	assert.Equal(t, "Record not found", T("fr", KeyRecordNotFound))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
	assert.Contains(t, GetSupportedLanguages(), "en")
}
