package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastfood/internal/dbtest"
	"fastfood/internal/models"
)

func TestListPendingAndSearch(t *testing.T) {
	f := newFixture(t, Hooks{})
	ctx := context.Background()
	branch := dbtest.Branch(t, f.db)
	other := dbtest.Branch(t, f.db)
	burger := dbtest.MenuItem(t, f.db, "Burger", "250.00")

	place := func(branchID uint, name, phone string) *Response {
		req := takeaway(branchID, itemLine(burger.ID, 1))
		req.CustomerName = name
		req.CustomerPhone = phone
		resp, err := f.svc.PlaceOrder(ctx, req)
		require.NoError(t, err)
		f.clock.Advance(time.Hour)
		return resp
	}

	first := place(branch.ID, "Ayesha Khan", "0300-1234567")
	second := place(branch.ID, "Bilal Ahmed", "0321-7654321")
	third := place(other.ID, "Ayesha Siddiqui", "0333-0000000")

	_, err := f.svc.UpdateStatus(ctx, second.ID, models.OrderStatusPreparing)
	require.NoError(t, err)

	pending, err := f.svc.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, third.ID, pending[0].ID)
	assert.Equal(t, first.ID, pending[1].ID)
	assert.Len(t, pending[0].Items, 1)

	page, err := f.svc.Search(SearchFilter{CustomerName: "ayesha"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, third.ID, page.Orders[0].ID)

	page, err = f.svc.Search(SearchFilter{CustomerName: "ayesha", BranchID: branch.ID})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, first.ID, page.Orders[0].ID)

	page, err = f.svc.Search(SearchFilter{CustomerPhone: "7654"})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, second.ID, page.Orders[0].ID)

	page, err = f.svc.Search(SearchFilter{OrderNumber: first.OrderNumber[:12]})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	from := dbtest.Epoch.Add(30 * time.Minute)
	to := dbtest.Epoch.Add(90 * time.Minute)
	page, err = f.svc.Search(SearchFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, second.ID, page.Orders[0].ID)

	page, err = f.svc.Search(SearchFilter{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, first.ID, page.Orders[0].ID)
}
