package core

import (
	"errors"
	"testing"
	"time"
)

func testLimits() BlockLimits {
	return BlockLimits{
		MaxDeployCount:   2,
		MaxTransferCount: 2,
		GasBudget:        1000,
		TimestampWindow:  time.Hour,
	}
}

func hashAt(b byte, kind TxKind) TransactionHash {
	digest := make([]byte, 32)
	digest[0] = b
	return NewTransactionHash(digest, kind)
}

func TestAppendableBlockAdmitsWithinLimits(t *testing.T) {
	blockTime := time.Now()
	ab := NewAppendableBlock(blockTime, testLimits())

	h := hashAt(1, KindDeploy)
	fp := DeployFootprint{GasCost: 100, Timestamp: blockTime.Add(-time.Minute).UnixNano()}
	if err := ab.Add(h, fp, Approvals{"a"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !ab.Contains(h) {
		t.Fatal("expected hash to be admitted")
	}
	if got := ab.GasUsed(); got != 100 {
		t.Fatalf("GasUsed: got %d want 100", got)
	}
	if deploys := ab.Deploys(); len(deploys) != 1 || deploys[0] != h {
		t.Fatalf("Deploys: got %v", deploys)
	}
}

func TestAppendableBlockRejectsDuplicate(t *testing.T) {
	blockTime := time.Now()
	ab := NewAppendableBlock(blockTime, testLimits())
	h := hashAt(1, KindDeploy)
	fp := DeployFootprint{GasCost: 1, Timestamp: blockTime.UnixNano()}
	if err := ab.Add(h, fp, nil); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := ab.Add(h, fp, nil); !errors.Is(err, ErrDuplicateInBlock) {
		t.Fatalf("second Add: got %v want ErrDuplicateInBlock", err)
	}
}

func TestAppendableBlockRejectsGasOverflow(t *testing.T) {
	blockTime := time.Now()
	limits := testLimits()
	limits.GasBudget = 50
	ab := NewAppendableBlock(blockTime, limits)
	h := hashAt(1, KindDeploy)
	fp := DeployFootprint{GasCost: 100, Timestamp: blockTime.UnixNano()}
	if err := ab.Add(h, fp, nil); !errors.Is(err, ErrGasBudgetExceeded) {
		t.Fatalf("got %v want ErrGasBudgetExceeded", err)
	}
	if ab.Contains(h) {
		t.Fatal("rejected transaction must not be admitted")
	}
	if ab.GasUsed() != 0 {
		t.Fatalf("gas must not be committed on rejection, got %d", ab.GasUsed())
	}
}

func TestAppendableBlockRejectsTimestampOutOfWindow(t *testing.T) {
	blockTime := time.Now()
	ab := NewAppendableBlock(blockTime, testLimits())

	future := hashAt(1, KindDeploy)
	fp := DeployFootprint{GasCost: 1, Timestamp: blockTime.Add(time.Minute).UnixNano()}
	if err := ab.Add(future, fp, nil); !errors.Is(err, ErrTimestampOutOfRange) {
		t.Fatalf("future tx: got %v want ErrTimestampOutOfRange", err)
	}

	stale := hashAt(2, KindDeploy)
	fp2 := DeployFootprint{GasCost: 1, Timestamp: blockTime.Add(-2 * time.Hour).UnixNano()}
	if err := ab.Add(stale, fp2, nil); !errors.Is(err, ErrTimestampOutOfRange) {
		t.Fatalf("stale tx: got %v want ErrTimestampOutOfRange", err)
	}
}

func TestAppendableBlockRejectsOverCount(t *testing.T) {
	blockTime := time.Now()
	limits := testLimits()
	limits.MaxDeployCount = 1
	ab := NewAppendableBlock(blockTime, limits)
	fp := DeployFootprint{GasCost: 1, Timestamp: blockTime.UnixNano()}

	if err := ab.Add(hashAt(1, KindDeploy), fp, nil); err != nil {
		t.Fatalf("first deploy: %v", err)
	}
	if err := ab.Add(hashAt(2, KindDeploy), fp, nil); !errors.Is(err, ErrDeployCountLimit) {
		t.Fatalf("second deploy: got %v want ErrDeployCountLimit", err)
	}
}

func TestAppendableBlockDeploysAndTransfersAreIndependent(t *testing.T) {
	blockTime := time.Now()
	ab := NewAppendableBlock(blockTime, testLimits())
	fp := DeployFootprint{GasCost: 1, Timestamp: blockTime.UnixNano()}

	if err := ab.Add(hashAt(1, KindDeploy), fp, nil); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if err := ab.Add(hashAt(1, KindTransfer), fp, nil); err != nil {
		t.Fatalf("transfer with same raw bytes but different kind: %v", err)
	}
	if len(ab.Deploys()) != 1 || len(ab.Transfers()) != 1 {
		t.Fatalf("expected one of each, got deploys=%v transfers=%v", ab.Deploys(), ab.Transfers())
	}
}
