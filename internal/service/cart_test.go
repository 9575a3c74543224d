package service

import (
	"testing"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart(t *testing.T) {
	f := newFixture(t)
	baju := f.product("BAJU", "50.00", 10, true)
	kurung := f.product("KURUNG", "120.00", 10, true)
	red := f.variant(kurung.ID, "KURUNG-RED", nil, 3)

	cart, err := f.carts.Get(f.ctx(), customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	f.addToCart(customer, baju.ID, nil, 1)
	f.addToCart(customer, baju.ID, nil, 2)
	cart, err = f.carts.AddItem(f.ctx(), customer.UserID, kurung.ID, &red.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2, "same product and variant share one line")

	var bajuLine model.CartItem
	for _, item := range cart.Items {
		if item.ProductID == baju.ID {
			bajuLine = item
		}
	}
	assert.Equal(t, 3, bajuLine.Quantity)

	t.Run("update quantity", func(t *testing.T) {
		cart, err := f.carts.UpdateItem(f.ctx(), customer.UserID, bajuLine.ID, 5)
		require.NoError(t, err)
		for _, item := range cart.Items {
			if item.ID == bajuLine.ID {
				assert.Equal(t, 5, item.Quantity)
			}
		}

		_, err = f.carts.UpdateItem(f.ctx(), customer.UserID, bajuLine.ID, 0)
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	})

	t.Run("other carts are out of reach", func(t *testing.T) {
		_, err := f.carts.RemoveItem(f.ctx(), "user-2", bajuLine.ID)
		assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
	})

	cart, err = f.carts.RemoveItem(f.ctx(), customer.UserID, bajuLine.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	require.NoError(t, f.carts.Clear(f.ctx(), customer.UserID))
	cart, err = f.carts.Get(f.ctx(), customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCart_RejectsUnknownItems(t *testing.T) {
	f := newFixture(t)
	baju := f.product("BAJU", "50.00", 10, true)
	kurung := f.product("KURUNG", "120.00", 10, true)
	red := f.variant(kurung.ID, "KURUNG-RED", nil, 3)

	_, err := f.carts.AddItem(f.ctx(), customer.UserID, 9999, nil, 1)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	_, err = f.carts.AddItem(f.ctx(), customer.UserID, baju.ID, &red.ID, 1)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	_, err = f.carts.AddItem(f.ctx(), customer.UserID, baju.ID, nil, 0)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", baju.ID).Update("active", false).Error)
	_, err = f.carts.AddItem(f.ctx(), customer.UserID, baju.ID, nil, 1)
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestAddresses(t *testing.T) {
	f := newFixture(t)

	home, err := f.addresses.Create(f.ctx(), customer.UserID, *f.address("Selangor"))
	require.NoError(t, err)
	assert.Equal(t, "MY", home.Country)

	list, err := f.addresses.List(f.ctx(), customer.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = f.addresses.Delete(f.ctx(), "user-2", home.ID)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	require.NoError(t, f.addresses.Delete(f.ctx(), customer.UserID, home.ID))
	list, err = f.addresses.List(f.ctx(), customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
