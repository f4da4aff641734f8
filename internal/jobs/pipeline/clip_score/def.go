package clip_score

import (
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/scoring"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type Pipeline struct {
	log    *logger.Logger
	clips  repos.ClipRepo
	engine scoring.Engine
}

func New(
	baseLog *logger.Logger,
	clips repos.ClipRepo,
	engine scoring.Engine,
) *Pipeline {
	return &Pipeline{
		log:    baseLog.With("job", types.JobTypeClipScore),
		clips:  clips,
		engine: engine,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeClipScore }
