package job

import (
	"time"

	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/service"
)

const defaultPurgeAfterDays = 30

// PurgeDeletedJob hard-deletes rows that were soft-deleted long ago.
type PurgeDeletedJob struct {
	purgeService service.PurgeService
	afterDays    int
	now          func() time.Time
}

func NewPurgeDeletedJob(afterDays int) *PurgeDeletedJob {
	return &PurgeDeletedJob{afterDays: afterDays, now: time.Now}
}

// cutoff is the deletion time before which rows are purged.
func (j *PurgeDeletedJob) cutoff() time.Time {
	days := j.afterDays
	if days <= 0 {
		days = defaultPurgeAfterDays
	}
	return j.now().AddDate(0, 0, -days)
}

func (j *PurgeDeletedJob) Run() {
	cutoff := j.cutoff()
	logger.Debug("Purge job started, cutoff ", cutoff.Format(time.RFC3339))

	res, err := j.purgeService.PurgeDeleted(cutoff)
	if err != nil {
		logger.Warning("Failed to purge deleted rows:", err)
		return
	}
	if res.Total() > 0 {
		logger.Infof("Purged %d cards, %d sets, %d card types, %d series, %d users",
			res.Cards, res.Sets, res.CardTypes, res.Series, res.Users)
	}
}
