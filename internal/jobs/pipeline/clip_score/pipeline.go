package clip_score

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	jobrt "github.com/clipcasthq/clipcast-backend/internal/jobs/runtime"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// Run scores one clip for every requested platform. Platforms are
// scored concurrently; the dispatcher invokes handlers with tx == nil,
// so each evaluation runs against the pooled connection.
func (p *Pipeline) Run(ctx context.Context, tx *gorm.DB, job *types.Job) (map[string]any, error) {
	payload := jobrt.DecodePayload(job)
	clipID, ok := jobrt.PayloadUUID(payload, "clip_id")
	if !ok {
		return nil, fmt.Errorf("clip_score payload missing clip_id")
	}
	platforms := jobrt.PayloadStrings(payload, "platforms")
	if len(platforms) == 0 {
		platforms = types.Platforms()
	}
	for _, platform := range platforms {
		if !types.KnownPlatform(platform) {
			return nil, fmt.Errorf("unknown platform %q", platform)
		}
	}

	clip, err := p.clips.GetByID(ctx, tx, clipID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.E(apperr.ErrRetryable, "load clip %s: %v", clipID, err)
	}

	var mu sync.Mutex
	scores := make(map[string]float64, len(platforms))
	g, gctx := errgroup.WithContext(ctx)
	for _, platform := range platforms {
		g.Go(func() error {
			score, sErr := p.engine.Evaluate(gctx, tx, clip, platform)
			if sErr != nil {
				return fmt.Errorf("score clip %s for %s: %w", clipID, platform, sErr)
			}
			mu.Lock()
			scores[platform] = score
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.log.Info("Scored clip", "clip_id", clipID, "platforms", len(scores))
	return map[string]any{"scores": scores}, nil
}
