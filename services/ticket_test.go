package services

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"edu-fund-system/models"
)

func TestTokenToWei(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{1, "1000000000000000000"},
		{7, "7000000000000000000"},
		{0.5, "500000000000000000"},
		{1.5, "1500000000000000000"},
		{0, "0"},
		// rewards with no exact binary representation must still scale
		// by their decimal value, matching what clients pass to
		// parseEther on the way to the contract
		{0.1, "100000000000000000"},
		{0.2, "200000000000000000"},
		{0.3, "300000000000000000"},
		{1.1, "1100000000000000000"},
		{7.7, "7700000000000000000"},
	}
	for _, tc := range cases {
		want, _ := new(big.Int).SetString(tc.want, 10)
		got := tokenToWei(tc.amount)
		if got.Cmp(want) != 0 {
			t.Fatalf("tokenToWei(%v) = %s, want %s", tc.amount, got, want)
		}
	}
}

func TestDigestsAreDeterministic(t *testing.T) {
	questID := uuid.NewString()
	poolID := uuid.NewString()
	wallet := testWallet(1)

	if !bytes.Equal(TreasuryDigest(questID, wallet, 7), TreasuryDigest(questID, wallet, 7)) {
		t.Fatal("treasury digest not deterministic")
	}
	if !bytes.Equal(PoolDigest(poolID, wallet, questID), PoolDigest(poolID, wallet, questID)) {
		t.Fatal("pool digest not deterministic")
	}
	if bytes.Equal(TreasuryDigest(questID, wallet, 7), PoolDigest(poolID, wallet, questID)) {
		t.Fatal("treasury and pool digests must differ")
	}
	if bytes.Equal(TreasuryDigest(questID, wallet, 7), TreasuryDigest(questID, wallet, 8)) {
		t.Fatal("amount must change the treasury digest")
	}
}

func TestIssueTreasuryTicketRecoversSigner(t *testing.T) {
	signer := newTestSigner(t)
	svc := NewTicketService(signer)

	questID := uuid.NewString()
	wallet := testWallet(2)

	ticket, err := svc.IssueTicket(wallet, questID, nil, 7)
	if err != nil {
		t.Fatalf("issue ticket: %v", err)
	}
	if ticket.UsesPool {
		t.Fatal("expected treasury ticket")
	}
	if ticket.PoolIDBytes != nil {
		t.Fatal("treasury ticket must not carry a pool hash")
	}
	wantQuestHash := hexutil.Encode(ethcrypto.Keccak256([]byte(questID)))
	if ticket.QuestIDBytes != wantQuestHash {
		t.Fatalf("quest hash mismatch: got %s want %s", ticket.QuestIDBytes, wantQuestHash)
	}

	sig, err := hexutil.Decode(ticket.Signature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("expected 65-byte signature, got %d", len(sig))
	}
	if sig[64] != 27 && sig[64] != 28 {
		t.Fatalf("expected V of 27/28, got %d", sig[64])
	}

	sig[64] -= 27
	pub, err := ethcrypto.SigToPub(accounts.TextHash(TreasuryDigest(questID, wallet, 7)), sig)
	if err != nil {
		t.Fatalf("recover pubkey: %v", err)
	}
	if got := ethcrypto.PubkeyToAddress(*pub); got != signer.Address() {
		t.Fatalf("recovered %s, want signer %s", got.Hex(), signer.Address().Hex())
	}
}

func TestIssuePoolTicketRecoversSigner(t *testing.T) {
	signer := newTestSigner(t)
	svc := NewTicketService(signer)

	questID := uuid.NewString()
	wallet := testWallet(3)
	pool := &models.FundingPool{ID: uuid.NewString(), RewardPerStudent: 10}

	ticket, err := svc.IssueTicket(wallet, questID, pool, 10)
	if err != nil {
		t.Fatalf("issue ticket: %v", err)
	}
	if !ticket.UsesPool {
		t.Fatal("expected pool ticket")
	}
	if ticket.PoolIDBytes == nil {
		t.Fatal("pool ticket must carry the pool hash")
	}
	wantPoolHash := hexutil.Encode(ethcrypto.Keccak256([]byte(pool.ID)))
	if *ticket.PoolIDBytes != wantPoolHash {
		t.Fatalf("pool hash mismatch: got %s want %s", *ticket.PoolIDBytes, wantPoolHash)
	}

	sig, err := hexutil.Decode(ticket.Signature)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sig[64] -= 27
	pub, err := ethcrypto.SigToPub(accounts.TextHash(PoolDigest(pool.ID, wallet, questID)), sig)
	if err != nil {
		t.Fatalf("recover pubkey: %v", err)
	}
	if got := ethcrypto.PubkeyToAddress(*pub); got != signer.Address() {
		t.Fatalf("recovered %s, want signer %s", got.Hex(), signer.Address().Hex())
	}
}

func TestIssueTicketWithoutKey(t *testing.T) {
	signer, err := NewSignerService("")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if signer.HasKey() {
		t.Fatal("expected keyless signer")
	}

	svc := NewTicketService(signer)
	if _, err := svc.IssueTicket(testWallet(4), uuid.NewString(), nil, 5); !errors.Is(err, ErrNoSigningKey) {
		t.Fatalf("expected ErrNoSigningKey, got %v", err)
	}
}
