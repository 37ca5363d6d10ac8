package stores_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shopfront/app/stores"
)

func TestCartKeyDerivation(t *testing.T) {
	assert.Equal(t, "cart_guest", stores.CartKey(""))
	assert.Equal(t, "cart_guest", stores.CartKey("   "))
	assert.Equal(t, "cart_7", stores.CartKey("7"))
	assert.Equal(t, "cart_user-a", stores.CartKey("user-a"))
}
