package reader

import (
	"github.com/skytin1004/empire-db/infrastructure/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.RDER)
