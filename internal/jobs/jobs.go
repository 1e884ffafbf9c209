// Background maintenance: periodic cache sweeps, terminal job pruning and
// audit history cleanup, all on one gocron scheduler.

package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/athulyan/docforge-go/internal/cache"
	"github.com/athulyan/docforge-go/internal/config"
	"github.com/athulyan/docforge-go/internal/jobqueue"
	"github.com/athulyan/docforge-go/internal/store"
)

// StartMaintenance starts the background maintenance scheduler and returns
// it so the caller can stop it on shutdown.
func StartMaintenance(cfg *config.Config, c *cache.Cache, q *jobqueue.Queue, st *store.Store) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleCacheSweep(s, cfg, c)
	scheduleJobPruning(s, cfg, q, st)

	log.Println("Starting background maintenance scheduler...")
	s.StartAsync()
	return s
}

func scheduleCacheSweep(s *gocron.Scheduler, cfg *config.Config, c *cache.Cache) {
	interval := cfg.Cache.SweepIntervalMinutes
	if interval == 0 {
		log.Println("Cache sweep interval is 0, scheduled sweeps are disabled.")
		return
	}

	log.Printf("Scheduling job: 'cache-sweep' to run every %d minutes.", interval)
	_, err := s.Every(interval).Minutes().Do(func() {
		RunCacheSweep(c)
	})
	if err != nil {
		log.Printf("Error scheduling 'cache-sweep' job: %v", err)
	}
}

// RunCacheSweep drops expired cache entries and returns how many were
// removed.
func RunCacheSweep(c *cache.Cache) int {
	removed := c.Sweep()
	if removed > 0 {
		log.Printf("Cache sweep removed %d expired entries", removed)
	}
	return removed
}

func scheduleJobPruning(s *gocron.Scheduler, cfg *config.Config, q *jobqueue.Queue, st *store.Store) {
	interval := cfg.Maintenance.IntervalMinutes
	if interval == 0 {
		log.Println("Maintenance interval is 0, job pruning is disabled.")
		return
	}

	retention := time.Duration(cfg.Maintenance.JobRetentionHours) * time.Hour

	log.Printf("Scheduling job: 'job-pruning' to run every %d minutes.", interval)
	_, err := s.Every(interval).Minutes().Do(func() {
		RunJobPruning(q, st, retention)
	})
	if err != nil {
		log.Printf("Error scheduling 'job-pruning' job: %v", err)
	}
}

// RunJobPruning removes terminal jobs and audit rows older than the
// retention window.
func RunJobPruning(q *jobqueue.Queue, st *store.Store, retention time.Duration) {
	removed := q.PruneTerminal(retention)
	if removed > 0 {
		log.Printf("Pruned %d finished jobs", removed)
	}
	if st != nil {
		deleted, err := st.DeleteOlderThan(time.Now().Add(-retention))
		if err != nil {
			log.Printf("Failed to prune document history: %v", err)
		} else if deleted > 0 {
			log.Printf("Pruned %d document history rows", deleted)
		}
	}
}
