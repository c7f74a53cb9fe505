package rollback

import (
	"github.com/skytin1004/empire-db/infrastructure/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.RLBK)
