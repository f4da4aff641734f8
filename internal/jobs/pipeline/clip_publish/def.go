package clip_publish

import (
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/scheduling"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type Pipeline struct {
	log       *logger.Logger
	clips     repos.ClipRepo
	scheduler scheduling.Scheduler
}

func New(
	baseLog *logger.Logger,
	clips repos.ClipRepo,
	scheduler scheduling.Scheduler,
) *Pipeline {
	return &Pipeline{
		log:       baseLog.With("job", types.JobTypeClipPublish),
		clips:     clips,
		scheduler: scheduler,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeClipPublish }
