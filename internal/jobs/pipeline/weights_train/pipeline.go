package weights_train

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	jobrt "github.com/clipcasthq/clipcast-backend/internal/jobs/runtime"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// Run retrains one platform's scoring weights from recent ledger
// feedback. Training reads and writes through the store, so failures
// are requeued rather than dropped.
func (p *Pipeline) Run(ctx context.Context, tx *gorm.DB, job *types.Job) (map[string]any, error) {
	payload := jobrt.DecodePayload(job)
	platform, ok := jobrt.PayloadString(payload, "platform")
	if !ok {
		return nil, fmt.Errorf("weights_train payload missing platform")
	}
	if !types.KnownPlatform(platform) {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	row, err := p.engine.Train(ctx, tx, platform)
	if err != nil {
		return nil, apperr.E(apperr.ErrRetryable, "train weights for %s: %v", platform, err)
	}

	p.log.Info("Trained weights", "platform", platform)
	return map[string]any{
		"platform":   platform,
		"weights":    row.WeightMap(),
		"trained_at": row.UpdatedAt,
	}, nil
}
