package importance

import (
	"context"
	"testing"

	"TipsEngine/internal/domain/models"
	"TipsEngine/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedReturnsConfiguredDefault(t *testing.T) {
	cfg := config.DefaultModelConfig("v1")
	cfg.DefaultImportance = 0.7

	got, err := NewFixed().Score(context.Background(), models.Match{ID: 1}, cfg)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.7, *got)
}
