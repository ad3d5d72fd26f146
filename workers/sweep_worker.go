// workers/sweep_worker.go
package workers

import (
	"context"
	"log"

	"quest-progression-system/services"

	"github.com/go-co-op/gocron/v2"
)

// SweepWorker drives the daily sweep once per cycle at midnight. The sweep
// itself is idempotent per UTC day, so a duplicate trigger is harmless.
type SweepWorker struct {
	Sweep *services.SweepService
}

func NewSweepWorker(sweep *services.SweepService) *SweepWorker {
	return &SweepWorker{Sweep: sweep}
}

// Start runs the scheduler until ctx is cancelled.
func (w *SweepWorker) Start(ctx context.Context) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[SweepWorker] failed to create scheduler: %v", err)
		return
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			log.Println("[SweepWorker] running daily quest sweep")
			w.Sweep.RunDailySweep()
		}),
	)
	if err != nil {
		log.Printf("[SweepWorker] failed to schedule sweep job: %v", err)
		return
	}

	sched.Start()
	log.Println("✅ Daily sweep scheduled for midnight")

	<-ctx.Done()
	if err := sched.Shutdown(); err != nil {
		log.Printf("[SweepWorker] scheduler shutdown: %v", err)
	}
}
