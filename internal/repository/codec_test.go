package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/docdesk/internal/domain/order"
)

func TestFinesCodec(t *testing.T) {
	fines := []order.Fine{
		{Name: "late renewal", Amount: 500},
		{Name: "lost document report", Amount: 3000, LostReport: true},
	}

	decoded, err := decodeFines(encodeFines(fines))
	require.NoError(t, err)
	assert.Equal(t, fines, decoded)
}

func TestFinesCodecEmpty(t *testing.T) {
	decoded, err := decodeFines(encodeFines(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded)

	// Rows written before the fines column existed default to [].
	decoded, err = decodeFines([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestFinesCodecIgnoresUnknownKeys(t *testing.T) {
	decoded, err := decodeFines([]byte(`[{"name":"late","amount":500,"lost_report":false,"legacy_field":"x"}]`))
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "late", decoded[0].Name)
}

func TestCustomerCodec(t *testing.T) {
	c := order.CustomerInfo{Name: "Sara", Phone: "0100", Address: "12 Nile St"}

	decoded, err := decodeCustomer(encodeCustomer(c))
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestCustomerCodecOmitsEmptyAddress(t *testing.T) {
	c := order.CustomerInfo{Name: "Sara", Phone: "0100"}

	raw := encodeCustomer(c)
	assert.NotContains(t, string(raw), "address")

	decoded, err := decodeCustomer(raw)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}
