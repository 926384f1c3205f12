package orders_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		st, err := orders.ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, orders.Status(s), st)
	}

	for _, s := range []string{"", "Pending", "canceled", "done"} {
		_, err := orders.ParseStatus(s)
		var inv *orders.InvalidStatusError
		require.ErrorAs(t, err, &inv, "input %q", s)
		assert.Equal(t, s, inv.Value)
	}
}

func TestRestoresStock(t *testing.T) {
	all := []orders.Status{
		orders.StatusPending, orders.StatusProcessing, orders.StatusShipped,
		orders.StatusDelivered, orders.StatusCancelled,
	}
	for _, from := range all {
		for _, to := range all {
			want := from == orders.StatusPending && to == orders.StatusCancelled
			assert.Equal(t, want, orders.RestoresStock(from, to), "%s -> %s", from, to)
		}
	}
}
