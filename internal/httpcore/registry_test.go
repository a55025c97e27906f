package httpcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddLookupRemove(t *testing.T) {
	reg := NewRegistry()
	ctx := &Context{ClientFD: 5, SelectFD: 5, Role: RoleReadRequest}
	reg.Add(ctx)

	require.Equal(t, ctx, reg.Lookup(5))
	assert.Equal(t, 1, reg.Len())

	reg.Remove(5)
	assert.Nil(t, reg.Lookup(5))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryRetargetMovesKey(t *testing.T) {
	reg := NewRegistry()
	ctx := &Context{ClientFD: 5, SelectFD: 5, Role: RoleReadRequest}
	reg.Add(ctx)

	reg.Retarget(ctx, 9)

	assert.Nil(t, reg.Lookup(5))
	assert.Equal(t, ctx, reg.Lookup(9))
	assert.Equal(t, 9, ctx.SelectFD)
}

// TestRegistryRemoveSharingDropsAuxiliaryContexts covers spec section 8's
// teardown invariant: no Context sharing the terminated session's
// client_fd remains registered.
func TestRegistryRemoveSharingDropsAuxiliaryContexts(t *testing.T) {
	reg := NewRegistry()
	main := &Context{ClientFD: 5, SelectFD: 7, Role: RoleReadCGIOutput}
	cgiInput := &Context{ClientFD: 5, SelectFD: 8, Role: RoleWriteCGIInput}
	unrelated := &Context{ClientFD: 99, SelectFD: 99, Role: RoleReadRequest}
	reg.Add(main)
	reg.Add(cgiInput)
	reg.Add(unrelated)

	reg.RemoveSharing(5)

	assert.Nil(t, reg.Lookup(7))
	assert.Nil(t, reg.Lookup(8))
	assert.Equal(t, unrelated, reg.Lookup(99))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryRoleHistogram(t *testing.T) {
	reg := NewRegistry()
	reg.Add(&Context{SelectFD: 1, Role: RoleReadRequest})
	reg.Add(&Context{SelectFD: 2, Role: RoleReadRequest})
	reg.Add(&Context{SelectFD: 3, Role: RoleWriteResponse})

	hist := reg.RoleHistogram()
	assert.Equal(t, 2, hist["read_req"])
	assert.Equal(t, 1, hist["write_resp"])
}
