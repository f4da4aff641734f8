package weights_train

import (
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/scoring"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type Pipeline struct {
	log    *logger.Logger
	engine scoring.Engine
}

func New(baseLog *logger.Logger, engine scoring.Engine) *Pipeline {
	return &Pipeline{
		log:    baseLog.With("job", types.JobTypeWeightsTrain),
		engine: engine,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeWeightsTrain }
