package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

func stockRow(id, item, branch string) *entity.BranchInventory {
	return &entity.BranchInventory{ID: id, CompanyID: "c1", ItemID: item, BranchID: branch, StockQuantity: decimal.Zero, IsActive: true}
}

func TestRun_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.Run(ctx, func(repos repository.TxRepos) error {
		require.NoError(t, repos.Stock.Create(ctx, stockRow("r1", "i1", "b1")))
		_, err := repos.Stock.GetByID(ctx, "r1")
		require.NoError(t, err, "la tx ve sus propias escrituras")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Repos().Stock.GetByID(ctx, "r1")
	assert.True(t, domain.IsNotFound(err))
}

func TestRun_UncommittedWritesAreInvisible(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Repos().Stock.Create(ctx, stockRow("r1", "i1", "b1")))

	inside := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, func(repos repository.TxRepos) error {
			if err := repos.Stock.UpdateQuantity(ctx, "r1", decimal.NewFromInt(7), time.Now()); err != nil {
				return err
			}
			close(inside)
			time.Sleep(50 * time.Millisecond)
			return nil
		})
	}()
	<-inside
	row, err := s.Repos().Stock.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, row.StockQuantity.IsZero())

	<-done
	row, err = s.Repos().Stock.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, row.StockQuantity.Equal(decimal.NewFromInt(7)))
}

func TestUniqueItemAndBranch(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Repos().Stock.Create(ctx, stockRow("r1", "i1", "b1")))

	err := s.Repos().Stock.Create(ctx, stockRow("r2", "i1", "b1"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	err = s.Run(ctx, func(repos repository.TxRepos) error {
		return repos.Stock.Create(ctx, stockRow("r3", "i1", "b1"))
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, s.Repos().Stock.Create(ctx, stockRow("r4", "i1", "b2")))
}

func TestGetForUpdate_WaitsForOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Repos().Stock.Create(ctx, stockRow("r1", "i1", "b1")))

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.Run(ctx, func(repos repository.TxRepos) error {
			if _, err := repos.Stock.GetForUpdate(ctx, "r1"); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	short, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	err := s.Run(short, func(repos repository.TxRepos) error {
		_, err := repos.Stock.GetForUpdate(short, "r1")
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	err = s.Run(ctx, func(repos repository.TxRepos) error {
		_, err := repos.Stock.GetForUpdate(ctx, "r1")
		return err
	})
	assert.NoError(t, err)
}

func TestGetForUpdate_Reentrant(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Repos().Stock.Create(ctx, stockRow("r1", "i1", "b1")))

	err := s.Run(ctx, func(repos repository.TxRepos) error {
		for i := 0; i < 2; i++ {
			if _, err := repos.Stock.GetForUpdate(ctx, "r1"); err != nil {
				return err
			}
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestMovements_AppendOnlyOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	repos := s.Repos()
	for i, q := range []int64{5, -2, 3} {
		require.NoError(t, repos.Movements.Create(ctx, &entity.StockMovement{
			ID: string(rune('a' + i)), BranchInventoryID: "r1", Quantity: decimal.NewFromInt(q), CreatedAt: time.Now(),
		}))
	}
	movs, err := repos.Movements.ListByBranchInventory(ctx, "r1", repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, "a", movs[0].ID)
	assert.Equal(t, "c", movs[2].ID)

	sum, err := repos.Movements.SumByBranchInventory(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(6)))
}
