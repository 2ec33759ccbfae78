package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStatus_StableOrdinals(t *testing.T) {
	assert.EqualValues(t, 1, Uploading)
	assert.EqualValues(t, 2, Uploaded)
	assert.EqualValues(t, 3, Processing)
	assert.EqualValues(t, 4, Processed)
	assert.EqualValues(t, 5, Error)
}

func TestUploadStatus_String(t *testing.T) {
	assert.Equal(t, "Uploading", Uploading.String())
	assert.Equal(t, "Error", Error.String())
	assert.Equal(t, "UploadStatus(9)", UploadStatus(9).String())
	assert.False(t, UploadStatus(0).Valid())
	assert.True(t, Processed.Valid())
}

func TestUploadStatus_JSON(t *testing.T) {
	b, err := json.Marshal(Uploaded)
	require.NoError(t, err)
	assert.JSONEq(t, `"Uploaded"`, string(b))

	var s UploadStatus
	require.NoError(t, json.Unmarshal([]byte(`"Error"`), &s))
	assert.Equal(t, Error, s)

	assert.Error(t, json.Unmarshal([]byte(`"Lost"`), &s))
}
