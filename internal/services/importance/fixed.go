package importance

import (
	"context"

	"TipsEngine/internal/domain/models"
	"TipsEngine/internal/domain/service"
	"TipsEngine/pkg/config"
)

// Fixed scores every match with the configured default importance.
// TODO: derive importance from league standings once table data is ingested.
type Fixed struct{}

var _ service.ImportanceScorer = Fixed{}

func NewFixed() Fixed { return Fixed{} }

func (Fixed) Score(_ context.Context, _ models.Match, cfg config.ModelConfig) (*float64, error) {
	v := cfg.DefaultImportance
	return &v, nil
}
