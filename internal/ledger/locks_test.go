package ledger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAccountLocks_Exclusive(t *testing.T) {
	locks := NewAccountLocks(50 * time.Millisecond)
	ctx := context.Background()

	release, err := locks.Acquire(ctx, 1)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := locks.Acquire(ctx, 1); !errors.Is(err, ErrContentionTimeout) {
		t.Fatalf("second acquire err=%v want ErrContentionTimeout", err)
	}

	release()
	release2, err := locks.Acquire(ctx, 1)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestAccountLocks_IndependentKeys(t *testing.T) {
	locks := NewAccountLocks(50 * time.Millisecond)
	ctx := context.Background()

	r1, err := locks.Acquire(ctx, 1)
	if err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	defer r1()

	r2, err := locks.Acquire(ctx, 2)
	if err != nil {
		t.Fatalf("acquire 2 blocked by 1: %v", err)
	}
	r2()
}

func TestAccountLocks_ContextCancel(t *testing.T) {
	locks := NewAccountLocks(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	release, err := locks.Acquire(ctx, 7)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := locks.Acquire(ctx, 7); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
