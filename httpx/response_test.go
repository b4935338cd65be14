package httpx

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBuffer_Flush(t *testing.T) {
	buf := NewResponseBuffer()
	buf.Header().Set("content-type", "application/json")
	buf.WriteHeader(201)
	_, err := buf.Write([]byte(`{"id":1}`))
	require.NoError(t, err)

	assert.Equal(t, 201, buf.Status())
	assert.Equal(t, []byte(`{"id":1}`), buf.Body())

	rec := httptest.NewRecorder()
	require.NoError(t, buf.Flush(rec))
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("content-type"))
	assert.Equal(t, `{"id":1}`, rec.Body.String())
}

func TestResponseBuffer_Empty(t *testing.T) {
	buf := NewResponseBuffer()
	assert.Zero(t, buf.Status())
	assert.Nil(t, buf.Body())

	rec := httptest.NewRecorder()
	require.NoError(t, buf.Flush(rec))
	assert.Equal(t, 200, rec.Code)
}
