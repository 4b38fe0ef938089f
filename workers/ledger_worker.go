package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"gorm.io/gorm"

	"edu-fund-system/models"
)

// LedgerWatchClient resolves claim transaction receipts against the
// ledger RPC endpoint. Observability only: it reads claim records and
// logs whether the ledger saw their transactions, never mutating the
// store.
type LedgerWatchClient struct {
	DB  *gorm.DB
	RPC *ethclient.Client
}

func NewLedgerWatchClient(db *gorm.DB) (*LedgerWatchClient, error) {
	rpcURL := os.Getenv("LEDGER_RPC_URL")
	if rpcURL == "" {
		return nil, fmt.Errorf("LEDGER_RPC_URL environment variable not set")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger RPC: %w", err)
	}

	return &LedgerWatchClient{DB: db, RPC: client}, nil
}

func (c *LedgerWatchClient) checkRecent(ctx context.Context, since time.Time) {
	var rewards []models.Reward
	err := c.DB.Where("tx_hash IS NOT NULL AND claimed_at > ?", since).
		Order("claimed_at ASC").
		Find(&rewards).Error
	if err != nil {
		log.Printf("❌ [LedgerWatch] DB error: %v", err)
		return
	}

	for _, r := range rewards {
		receipt, err := c.RPC.TransactionReceipt(ctx, common.HexToHash(*r.TxHash))
		switch {
		case errors.Is(err, ethereum.NotFound):
			log.Printf("⏳ [LedgerWatch] Claim %s tx %s not mined yet", r.ID, *r.TxHash)
		case err != nil:
			log.Printf("❌ [LedgerWatch] Receipt lookup failed for claim %s: %v", r.ID, err)
		case receipt.Status == 0:
			log.Printf("⚠️ [LedgerWatch] Claim %s tx %s reverted on-chain", r.ID, *r.TxHash)
		default:
			log.Printf("✅ [LedgerWatch] Claim %s confirmed in block %d", r.ID, receipt.BlockNumber.Uint64())
		}
	}
}

// PollReceipts watches recently confirmed claims until ctx is done.
func PollReceipts(ctx context.Context, client *LedgerWatchClient, pollInterval time.Duration) {
	log.Println("Starting ledger receipt watcher...")
	lastChecked := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger receipt watcher stopped.")
			return
		case <-ticker.C:
			checkTime := time.Now().UTC()
			client.checkRecent(ctx, lastChecked)
			lastChecked = checkTime
		}
	}
}
