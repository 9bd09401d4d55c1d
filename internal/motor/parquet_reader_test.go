package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderParquetValue(t *testing.T) {
	assert.Equal(t, "42", renderParquetValue(int64(42)))
	assert.Equal(t, "", renderParquetValue(nil))
	assert.Equal(t, "hello", renderParquetValue("hello"))
}

func TestCountParquetRows_MissingFile(t *testing.T) {
	_, err := CountParquetRows("/nonexistent/does-not-exist.parquet")
	require.Error(t, err)
}

func TestReadParquetPage_MissingFile(t *testing.T) {
	_, err := ReadParquetPage("/nonexistent/does-not-exist.parquet", 0, 10)
	require.Error(t, err)
}
