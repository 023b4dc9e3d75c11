package services

import (
	"context"
	"log"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// ============================================================
// Cron Service - housekeeping jobs
// ============================================================

const cronJobTimeout = 2 * time.Minute

// Cron specs (minute hour dom month dow)
const (
	specPurgeTokens   = "0 3 * * *"
	specPurgeCodes    = "*/5 * * * *"
	specLowStockCheck = "0 7 * * *"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron              *cron.Cron
	refreshTokenRepo  repositories.RefreshTokenRepository
	vaccineRepo       repositories.VaccineRepository
	memoryCodes       *MemoryCodeStore
	lowStockThreshold int
}

// NewCronService creates the scheduler. memoryCodes may be nil when recovery
// codes live in Redis, which expires them on its own.
func NewCronService(
	refreshTokenRepo repositories.RefreshTokenRepository,
	vaccineRepo repositories.VaccineRepository,
	memoryCodes *MemoryCodeStore,
	lowStockThreshold int,
) *CronService {
	return &CronService{
		cron:              cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		refreshTokenRepo:  refreshTokenRepo,
		vaccineRepo:       vaccineRepo,
		memoryCodes:       memoryCodes,
		lowStockThreshold: lowStockThreshold,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(specPurgeTokens, s.PurgeRefreshTokens); err != nil {
		return err
	}
	if s.memoryCodes != nil {
		if _, err := s.cron.AddFunc(specPurgeCodes, s.PurgeRecoveryCodes); err != nil {
			return err
		}
	}
	if _, err := s.cron.AddFunc(specLowStockCheck, s.ReportLowStock); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("⏰ CronService started (%d jobs)", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// PurgeRefreshTokens deletes expired or revoked refresh tokens
func (s *CronService) PurgeRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobTimeout)
	defer cancel()

	deleted, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("❌ Cron: purge refresh tokens failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("⏰ Cron: purged %d refresh tokens", deleted)
	}
}

// PurgeRecoveryCodes drops expired in-memory recovery codes
func (s *CronService) PurgeRecoveryCodes() {
	if s.memoryCodes == nil {
		return
	}
	if n := s.memoryCodes.PurgeExpired(); n > 0 {
		log.Printf("⏰ Cron: purged %d recovery codes", n)
	}
}

// ReportLowStock logs active vaccines at or below the stock threshold
func (s *CronService) ReportLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobTimeout)
	defer cancel()

	vaccines, err := s.vaccineRepo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		log.Printf("❌ Cron: low stock check failed: %v", err)
		return
	}
	for _, v := range vaccines {
		log.Printf("⚠️ Low stock: %s (lot %s) has %d doses left", v.Name, v.Lot, v.StockAvailable)
	}
}
