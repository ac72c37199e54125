package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLineItems_Shape(t *testing.T) {
	got := EncodeLineItems([]LineItem{
		{FoodItemID: 1, Quantity: 2, Price: decimal.RequireFromString("5.0")},
		{FoodItemID: 9007199254740993, Quantity: 1, Price: decimal.RequireFromString("10.25")},
	})
	assert.Equal(t, `[{"id":1,"quantity":2,"price":5.0},{"id":9007199254740993,"quantity":1,"price":10.25}]`, string(got))
}

func TestEncodeLineItems_Prices(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{price: "5", want: "5.0"},
		{price: "5.00", want: "5.0"},
		{price: "0", want: "0.0"},
		{price: "650", want: "650.0"},
		{price: "10.1", want: "10.1"},
		{price: "4.50", want: "4.5"},
		{price: "0.99", want: "0.99"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got := EncodeLineItems([]LineItem{{FoodItemID: 1, Quantity: 1, Price: decimal.RequireFromString(tt.price)}})
			assert.Equal(t, `[{"id":1,"quantity":1,"price":`+tt.want+`}]`, string(got))

			back, err := DecodeLineItems(got)
			require.NoError(t, err)
			require.Len(t, back, 1)
			assert.True(t, decimal.RequireFromString(tt.price).Equal(back[0].Price))
		})
	}
}

func TestEncodeLineItems_Empty(t *testing.T) {
	assert.Equal(t, `[]`, string(EncodeLineItems(nil)))
}

func TestDecodeLineItems(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []LineItem
		wantErr bool
	}{
		{
			name:  "fractional prices and extra fields",
			input: `[{"id":3,"quantity":4,"price":2.5,"name":"tofu"},{"price":10.0,"quantity":1,"id":7}]`,
			want: []LineItem{
				{FoodItemID: 3, Quantity: 4, Price: decimal.RequireFromString("2.5")},
				{FoodItemID: 7, Quantity: 1, Price: decimal.NewFromInt(10)},
			},
		},
		{name: "empty array", input: `[]`, want: []LineItem{}},
		{name: "missing price", input: `[{"id":1,"quantity":1}]`, wantErr: true},
		{name: "not an array", input: `{"id":1}`, wantErr: true},
		{name: "string quantity", input: `[{"id":1,"quantity":"2","price":1}]`, wantErr: true},
		{name: "empty input", input: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLineItems([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].FoodItemID, got[i].FoodItemID)
				assert.Equal(t, tt.want[i].Quantity, got[i].Quantity)
				assert.True(t, tt.want[i].Price.Equal(got[i].Price), "price %d", i)
			}
		})
	}
}
