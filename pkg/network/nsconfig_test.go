package network

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corenet/netd/pkg/config"
	"github.com/corenet/netd/pkg/types"
)

func TestValidateExclusive(t *testing.T) {
	t.Run("bare alone is fine", func(t *testing.T) {
		err := validateExclusive([]types.NetTuple{{Kind: types.RecipeHost}})
		assert.NoError(t, err)
	})

	t.Run("concrete alone is fine", func(t *testing.T) {
		err := validateExclusive([]types.NetTuple{{Kind: types.RecipeVeth}})
		assert.NoError(t, err)
	})

	t.Run("bare cannot combine with concrete", func(t *testing.T) {
		err := validateExclusive([]types.NetTuple{{Kind: types.RecipeHost}, {Kind: types.RecipeVeth}})
		assert.Error(t, err)
	})

	t.Run("modifiers do not count as concrete", func(t *testing.T) {
		err := validateExclusive([]types.NetTuple{{Kind: types.RecipeHost}, {Kind: types.RecipeMTU}})
		assert.NoError(t, err)
	})
}

func TestContainerPeerName(t *testing.T) {
	assert.Equal(t, "portove-mycontai", containerPeerName("mycontainerlongname", "veth"))
	assert.Equal(t, "L3-short", containerPeerName("short", "L3"))
}

func TestNatAddress(t *testing.T) {
	addr, err := natAddress("10.0.1.0", 5)
	require.NoError(t, err)
	assert.Equal(t, net.IPv4(10, 0, 1, 5).To4(), addr.To4())

	_, err = natAddress("not-an-ip", 5)
	assert.Error(t, err)
}

func TestApplyRecipeEmptyTuples(t *testing.T) {
	result, handle, err := ApplyRecipe(nil, "c1", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, handle)
	assert.Equal(t, &SetupResult{}, result)
}

func TestApplyRecipeHostReturnsHostHandle(t *testing.T) {
	host := newTestHandleWithNAT(t, true, nil)
	defer host.Close()
	host.cfg = &config.NetworkConfig{}

	result, handle, err := ApplyRecipe(host, "c1", []types.NetTuple{{Kind: types.RecipeHost}}, nil)
	require.NoError(t, err)
	assert.Same(t, host, handle)
	assert.NotNil(t, result)
}

func TestApplyRecipeNoneIsNoop(t *testing.T) {
	host := newTestHandleWithNAT(t, true, nil)
	defer host.Close()

	result, handle, err := ApplyRecipe(host, "c1", []types.NetTuple{{Kind: types.RecipeNone}}, nil)
	require.NoError(t, err)
	assert.Nil(t, handle)
	assert.NotNil(t, result)
}

func TestApplyRecipeContainerKindUnsupportedHere(t *testing.T) {
	host := newTestHandleWithNAT(t, true, nil)
	defer host.Close()

	_, _, err := ApplyRecipe(host, "c1", []types.NetTuple{{Kind: types.RecipeContainer, Args: []string{"other"}}}, nil)
	assert.Error(t, err)
}

func TestTryL3ReuseAlwaysMisses(t *testing.T) {
	host := newTestHandleWithNAT(t, true, nil)
	defer host.Close()

	_, ipnet, _ := net.ParseCIDR("10.0.0.1/24")
	assert.Nil(t, tryL3Reuse(host, []*net.IPNet{ipnet}))
	assert.Nil(t, tryL3Reuse(host, nil))
}
