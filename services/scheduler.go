package services

import (
	"log"
	"math"
	"time"

	"github.com/go-co-op/gocron/v2"

	"edu-fund-system/models"
)

// StartPoolAuditScheduler periodically cross-checks each active pool's
// remaining balance against its claim history and logs any drift. The
// job never mutates state; balance changes only happen inside claim
// confirmation.
func (s *CompanyService) StartPoolAuditScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			var pools []models.FundingPool
			if err := s.DB.Where("active = ?", true).Find(&pools).Error; err != nil {
				log.Printf("[PoolAudit] DB error: %v", err)
				return
			}

			for _, p := range pools {
				var claims int64
				if err := s.DB.Model(&models.Reward{}).Where("pool_id = ?", p.ID).Count(&claims).Error; err != nil {
					log.Printf("[PoolAudit] Failed to count claims for pool %s: %v", p.ID, err)
					continue
				}
				expected := p.TotalFund - p.RewardPerStudent*float64(claims)
				if math.Abs(expected-p.RemainingBalance) > 1e-9 {
					log.Printf("⚠️ [PoolAudit] Pool %s balance drift: have %.6f, expected %.6f (%d claims)",
						p.ID, p.RemainingBalance, expected, claims)
				}
			}
		}),
	)
}
