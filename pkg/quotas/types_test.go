package quotas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceType_Valid(t *testing.T) {
	for _, r := range Resources() {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, ResourceType("keys").Valid())
	assert.False(t, ResourceType("").Valid())
}

func TestResources_ReturnsCopy(t *testing.T) {
	rs := Resources()
	require.Len(t, rs, 5)
	rs[0] = "mutated"
	assert.Equal(t, ResourceSecrets, Resources()[0])
}

func TestParseResourceType(t *testing.T) {
	r, err := ParseResourceType("transport_keys")
	require.NoError(t, err)
	assert.Equal(t, ResourceTransportKeys, r)

	_, err = ParseResourceType("cas")
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestIsUnlimited(t *testing.T) {
	assert.True(t, IsUnlimited(-1))
	assert.True(t, IsUnlimited(-7))
	assert.False(t, IsUnlimited(0))
	assert.False(t, IsUnlimited(3))
}

func TestProjectQuotas_GetSet(t *testing.T) {
	var q ProjectQuotas

	for _, r := range Resources() {
		assert.Nil(t, q.Get(r))
	}

	v := 4
	require.NoError(t, q.Set(ResourceOrders, &v))
	v = 9
	assert.Equal(t, 4, *q.Orders, "Set must copy the value")
	assert.Equal(t, 4, *q.Get(ResourceOrders))

	require.NoError(t, q.Set(ResourceOrders, nil))
	assert.Nil(t, q.Orders)

	assert.ErrorIs(t, q.Set("bogus", IntPtr(1)), ErrUnknownResource)
	assert.Nil(t, q.Get("bogus"))

	var nilQuotas *ProjectQuotas
	assert.Nil(t, nilQuotas.Get(ResourceSecrets))
}

func TestProjectQuotas_Clone(t *testing.T) {
	q := &ProjectQuotas{Secrets: IntPtr(1), Consumers: IntPtr(-1)}
	c := q.Clone()

	assert.Equal(t, q, c)
	*c.Secrets = 100
	assert.Equal(t, 1, *q.Secrets)

	var nilQuotas *ProjectQuotas
	assert.Nil(t, nilQuotas.Clone())
}

func TestProjectQuotas_JSON(t *testing.T) {
	q := ProjectQuotas{Orders: IntPtr(2)}
	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"secrets":null,"orders":2,"containers":null,"transport_keys":null,"consumers":null}`, string(b))
}

func TestMerge(t *testing.T) {
	defaults := Defaults{Secrets: -1, Orders: 5, Containers: 10, TransportKeys: -1, Consumers: 0}

	t.Run("nil configured returns defaults", func(t *testing.T) {
		assert.Equal(t, defaults.Effective(), Merge(nil, defaults))
	})

	t.Run("configured values win where set", func(t *testing.T) {
		configured := &ProjectQuotas{Orders: IntPtr(2), Consumers: IntPtr(-5)}
		eq := Merge(configured, defaults)

		assert.Equal(t, EffectiveQuotas{
			ResourceSecrets:       -1,
			ResourceOrders:        2,
			ResourceContainers:    10,
			ResourceTransportKeys: -1,
			ResourceConsumers:     -5,
		}, eq)
		assert.True(t, IsUnlimited(eq[ResourceConsumers]))
	})

	t.Run("every resource is defined", func(t *testing.T) {
		eq := Merge(&ProjectQuotas{}, defaults)
		assert.Len(t, eq, len(Resources()))
	})
}

func TestUnlimitedDefaults(t *testing.T) {
	for r, v := range UnlimitedDefaults().Effective() {
		assert.Equal(t, UnlimitedValue, v, r)
	}
	assert.Equal(t, UnlimitedValue, Defaults{}.Get("bogus"))
}
