package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRoot(&out)
	root.SetArgs([]string{"classify", "Deutsche", "Bahn", "is", "always", "late"})
	require.NoError(t, root.Execute())

	var got struct {
		Topics []struct {
			Topic struct {
				ID string `json:"id"`
			} `json:"topic"`
		} `json:"topics"`
		InferredLevel string `json:"inferred_level"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.NotEmpty(t, got.Topics)
	assert.Equal(t, "transport", got.Topics[0].Topic.ID)
	assert.Equal(t, "federal", got.InferredLevel)
}

func TestLocateRejectsBadCoordinates(t *testing.T) {
	var out bytes.Buffer
	root := newRoot(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"locate", "north", "13.4"})
	assert.Error(t, root.Execute())

	root = newRoot(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"locate", "52.5"})
	assert.Error(t, root.Execute())
}
