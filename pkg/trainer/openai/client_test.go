package openai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaiTrainer "github.com/embedlab/hidim-go/pkg/trainer/openai"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := openaiTrainer.NewClient(&openaiTrainer.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestNewClientDefaults(t *testing.T) {
	client, err := openaiTrainer.NewClient(&openaiTrainer.Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 1536, client.Dimensions())
	assert.NoError(t, client.Close())
}

func TestNewClientCustomDimensions(t *testing.T) {
	client, err := openaiTrainer.NewClient(&openaiTrainer.Config{
		APIKey:     "sk-test",
		Dimensions: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, 256, client.Dimensions())
}

func TestEmbedBatchRejectsEmptyBatch(t *testing.T) {
	client, err := openaiTrainer.NewClient(&openaiTrainer.Config{APIKey: "sk-test"})
	require.NoError(t, err)

	// Rejected before any request is made.
	_, err = client.EmbedBatch(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty batch")
}
