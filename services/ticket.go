package services

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"edu-fund-system/models"
)

// ClaimTicket is the signed authorization a learner submits to the
// ledger. UsesPool selects which contract it targets: the pool
// distribution contract or the platform treasury contract.
type ClaimTicket struct {
	Signature    string  `json:"signature"`
	QuestIDBytes string  `json:"quest_id_bytes"`
	PoolIDBytes  *string `json:"pool_id_bytes,omitempty"`
	UsesPool     bool    `json:"uses_pool"`
}

// TicketService mints claim tickets. Pure compute-and-sign: it never
// touches the store, and identical inputs always produce the same
// pre-signature digest.
type TicketService struct {
	Signer *SignerService
}

func NewTicketService(signer *SignerService) *TicketService {
	return &TicketService{Signer: signer}
}

var weiPerToken = new(big.Rat).SetInt64(1_000_000_000_000_000_000)

// tokenToWei scales a token amount to the ledger's 18-decimal integer
// representation. The amount is rendered as its shortest decimal string
// before scaling: clients build the same wei value from the decimal
// amount (ethers parseEther), so scaling the raw binary float would put
// a different integer under the signature than the contract verifies.
func tokenToWei(amount float64) *big.Int {
	wei, ok := new(big.Rat).SetString(strconv.FormatFloat(amount, 'f', -1, 64))
	if !ok {
		return new(big.Int)
	}
	wei.Mul(wei, weiPerToken)
	return new(big.Int).Quo(wei.Num(), wei.Denom())
}

// TreasuryDigest packs keccak256(questId) || address || uint256(amount)
// and hashes it once more, matching the treasury contract's
// abi.encodePacked verification.
func TreasuryDigest(questID, walletAddress string, amount float64) []byte {
	questHash := crypto.Keccak256([]byte(questID))
	addr := common.HexToAddress(walletAddress)
	amountWei := common.LeftPadBytes(tokenToWei(amount).Bytes(), 32)

	buf := make([]byte, 0, 84)
	buf = append(buf, questHash...)
	buf = append(buf, addr.Bytes()...)
	buf = append(buf, amountWei...)
	return crypto.Keccak256(buf)
}

// PoolDigest packs keccak256(poolId) || address || keccak256(questId),
// the shape the company pool contract verifies.
func PoolDigest(poolID, walletAddress, questID string) []byte {
	poolHash := crypto.Keccak256([]byte(poolID))
	addr := common.HexToAddress(walletAddress)
	questHash := crypto.Keccak256([]byte(questID))

	buf := make([]byte, 0, 84)
	buf = append(buf, poolHash...)
	buf = append(buf, addr.Bytes()...)
	buf = append(buf, questHash...)
	return crypto.Keccak256(buf)
}

// IssueTicket builds the digest for the payout path selected by pool
// (nil = treasury) and signs it. Duplicate tickets for the same inputs
// are harmless: the digest is deterministic and the contract's
// hasClaimed check rejects a second on-chain redemption.
func (s *TicketService) IssueTicket(walletAddress, questID string, pool *models.FundingPool, rewardAmount float64) (*ClaimTicket, error) {
	questHashHex := hexutil.Encode(crypto.Keccak256([]byte(questID)))

	if pool != nil {
		sig, err := s.Signer.SignPersonal(PoolDigest(pool.ID, walletAddress, questID))
		if err != nil {
			return nil, fmt.Errorf("pool ticket: %w", err)
		}
		poolHashHex := hexutil.Encode(crypto.Keccak256([]byte(pool.ID)))
		return &ClaimTicket{
			Signature:    hexutil.Encode(sig),
			QuestIDBytes: questHashHex,
			PoolIDBytes:  &poolHashHex,
			UsesPool:     true,
		}, nil
	}

	sig, err := s.Signer.SignPersonal(TreasuryDigest(questID, walletAddress, rewardAmount))
	if err != nil {
		return nil, fmt.Errorf("treasury ticket: %w", err)
	}
	return &ClaimTicket{
		Signature:    hexutil.Encode(sig),
		QuestIDBytes: questHashHex,
		UsesPool:     false,
	}, nil
}
