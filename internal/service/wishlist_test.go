package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ai-Eli-ML/veliano-sub003/internal/storage/memory"
	apperrors "github.com/Ai-Eli-ML/veliano-sub003/pkg/errors"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/pagination"
)

func validWishlistInput(productID string) AddWishlistItemInput {
	return AddWishlistItemInput{
		ProductID: productID,
		Name:      "Émeraude Pendant",
		Price:     89000,
		Category:  "pendants",
	}
}

func TestWishlistAddItem_GeneratesSlug(t *testing.T) {
	svc, events := newTestWishlistService()
	events.On("PublishWishlistUpdated", mock.Anything, "v-1", mock.Anything).Return(nil).Once()

	item, added, err := svc.AddItem(context.Background(), "v-1", validWishlistInput("p1"))

	require.NoError(t, err)
	assert.True(t, added)
	require.NotNil(t, item)
	assert.Equal(t, "emeraude-pendant", item.Slug)
	assert.NotEmpty(t, item.ID)
	events.AssertExpectations(t)
}

func TestWishlistAddItem_DuplicateIsNoop(t *testing.T) {
	svc, events := newTestWishlistService()
	ctx := context.Background()
	events.On("PublishWishlistUpdated", mock.Anything, "v-1", mock.Anything).Return(nil).Once()

	first, _, err := svc.AddItem(ctx, "v-1", validWishlistInput("p1"))
	require.NoError(t, err)

	dup := validWishlistInput("p1")
	dup.Name = "Different"
	second, added, err := svc.AddItem(ctx, "v-1", dup)

	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, first, second)
	events.AssertExpectations(t)
}

func TestWishlistAddItem_InvalidSlug(t *testing.T) {
	svc, _ := newTestWishlistService()
	in := validWishlistInput("p1")
	in.Slug = "Not A Slug"

	_, _, err := svc.AddItem(context.Background(), "v-1", in)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "field 'slug' must be a lowercase slug")
}

func TestWishlistAddItem_PriceCap(t *testing.T) {
	svc, events := newTestWishlistService()
	events.On("PublishWishlistUpdated", mock.Anything, "v-1", mock.Anything).Return(nil)
	ctx := context.Background()

	atCap := validWishlistInput("p1")
	atCap.Price = MaxPriceCents
	_, added, err := svc.AddItem(ctx, "v-1", atCap)
	require.NoError(t, err)
	assert.True(t, added)

	overCap := validWishlistInput("p2")
	overCap.Price = MaxPriceCents + 1
	_, _, err = svc.AddItem(ctx, "v-1", overCap)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestWishlistNoopsPublishNothing(t *testing.T) {
	svc, events := newTestWishlistService()
	ctx := context.Background()

	require.NoError(t, svc.RemoveItem(ctx, "v-1", "p-absent"))
	require.NoError(t, svc.ClearWishlist(ctx, "v-1"))

	events.AssertNotCalled(t, "PublishWishlistUpdated", mock.Anything, mock.Anything, mock.Anything)
}

func TestWishlistService_StorageUnavailable(t *testing.T) {
	svc, events := newWishlistServiceOver(downStorage{Storage: memory.New()})
	ctx := context.Background()

	_, added, err := svc.AddItem(ctx, "v-1", validWishlistInput("p1"))
	require.Error(t, err)
	assert.False(t, added)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)

	assert.ErrorIs(t, svc.RemoveItem(ctx, "v-1", "p1"), apperrors.ErrServiceUnavail)
	assert.ErrorIs(t, svc.ClearWishlist(ctx, "v-1"), apperrors.ErrServiceUnavail)
	_, err = svc.ListItems(ctx, "v-1", pagination.DefaultParams())
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	_, err = svc.IsInWishlist(ctx, "v-1", "p1")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)

	events.AssertNotCalled(t, "PublishWishlistUpdated", mock.Anything, mock.Anything, mock.Anything)
}

func TestWishlistService_ConflictReportsNotAdded(t *testing.T) {
	svc, events := newWishlistServiceOver(conflictingStorage{Storage: memory.New()})

	item, added, err := svc.AddItem(context.Background(), "v-1", validWishlistInput("p1"))

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Nil(t, item)
	assert.False(t, added)
	events.AssertNotCalled(t, "PublishWishlistUpdated", mock.Anything, mock.Anything, mock.Anything)
}

func TestWishlistAddItem_PublishFailureDoesNotFail(t *testing.T) {
	svc, events := newTestWishlistService()
	events.On("PublishWishlistUpdated", mock.Anything, "v-1", mock.Anything).Return(errBrokerDown)

	_, added, err := svc.AddItem(context.Background(), "v-1", validWishlistInput("p1"))

	require.NoError(t, err)
	assert.True(t, added)
}

func TestWishlistMembership(t *testing.T) {
	svc, events := newTestWishlistService()
	ctx := context.Background()
	events.On("PublishWishlistUpdated", mock.Anything, "v-1", mock.Anything).Return(nil)

	_, _, err := svc.AddItem(ctx, "v-1", validWishlistInput("p1"))
	require.NoError(t, err)

	in, err := svc.IsInWishlist(ctx, "v-1", "p1")
	require.NoError(t, err)
	assert.True(t, in)

	require.NoError(t, svc.RemoveItem(ctx, "v-1", "p1"))

	in, err = svc.IsInWishlist(ctx, "v-1", "p1")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestWishlistListItems_Paginates(t *testing.T) {
	svc, events := newTestWishlistService()
	ctx := context.Background()
	events.On("PublishWishlistUpdated", mock.Anything, "v-1", mock.Anything).Return(nil)

	for i := 1; i <= 5; i++ {
		_, _, err := svc.AddItem(ctx, "v-1", validWishlistInput(fmt.Sprintf("p%d", i)))
		require.NoError(t, err)
	}

	res, err := svc.ListItems(ctx, "v-1", pagination.Params{Page: 2, PerPage: 2, Offset: 2})

	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "p3", res.Items[0].ProductID)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrev)
}

func TestWishlistClear(t *testing.T) {
	svc, events := newTestWishlistService()
	ctx := context.Background()
	events.On("PublishWishlistUpdated", mock.Anything, "v-1", mock.Anything).Return(nil)

	_, _, err := svc.AddItem(ctx, "v-1", validWishlistInput("p1"))
	require.NoError(t, err)
	require.NoError(t, svc.ClearWishlist(ctx, "v-1"))

	res, err := svc.ListItems(ctx, "v-1", pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCount)
}

func TestWishlist_MissingVisitor(t *testing.T) {
	svc, _ := newTestWishlistService()
	ctx := context.Background()

	_, err := svc.ListItems(ctx, "", pagination.DefaultParams())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.ClearWishlist(ctx, ""), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.RemoveItem(ctx, "", "p1"), apperrors.ErrInvalidInput)
	_, err = svc.IsInWishlist(ctx, "v-1", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
