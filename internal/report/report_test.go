package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbanmart-dashboard/internal/dataset"
	"urbanmart-dashboard/internal/generator"
)

const sample = `transaction_id,date,store_id,store_location,transaction_type,customer_id,customer_segment,product_category,product_name,unit_price,quantity,discount_pct,sales_amount,payment_method
T0000002,2024-03-01,S002,Uptown,In-store,C00002,Budget,Groceries,Rice 5kg,18.5,1,0,18.5,Cash
T0000001,2024-01-05,S001,Downtown,Online,C00001,Premium,Electronics,Power Bank,25.5,1,0,25.5,Card
T0000003,garbage,S001,Downtown,in store,C00003,Regular,Clothing,Jeans,35,1,0,35,Card
T0000004,2024-02-01,,,,C00004,Regular,Clothing,Jeans,35,1,0,35,Card
`

func TestCheck(t *testing.T) {
	frame, err := dataset.ReadFrame(strings.NewReader(sample))
	require.NoError(t, err)

	s := Check(frame)
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, []string{"S001", "S002"}, s.StoreIDs)
	assert.Equal(t, []string{"Clothing", "Electronics", "Groceries"}, s.Categories)
	assert.Equal(t, map[string]string{"S001": "Downtown", "S002": "Uptown"}, s.Locations)
	assert.Equal(t, "2024-01-05", s.MinDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", s.MaxDate.Format("2006-01-02"))
	assert.Equal(t, 1, s.Channels.Online)
	assert.Equal(t, 2, s.Channels.InStore)
}

func TestWrite(t *testing.T) {
	frame, err := dataset.ReadFrame(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "UrbanMart", frame))
	out := buf.String()

	for _, want := range []string{
		"Welcome to UrbanMart Sales Analysis",
		"--- Sanity Checks ---",
		"Total number of rows: 4",
		"Unique store IDs: ['S001', 'S002']",
		"Date range (min to max): 2024-01-05 00:00:00 to 2024-03-01 00:00:00",
		"['Clothing', 'Electronics', 'Groceries']",
		"S001 -> Downtown\nS002 -> Uptown\n",
		"Online: 1\nIn-store: 2\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWrite_GroupsThousands(t *testing.T) {
	gen, err := generator.New(generator.DefaultTables(), nil)
	require.NoError(t, err)
	p := generator.DefaultParams()
	p.Count = 1500
	txs, _, err := gen.Generate(p)
	require.NoError(t, err)

	var csv bytes.Buffer
	require.NoError(t, dataset.Write(&csv, txs))
	frame, err := dataset.ReadFrame(&csv)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "UrbanMart", frame))
	out := buf.String()

	assert.Contains(t, out, "Total number of rows: 1,500")
	assert.Contains(t, out, "S006 -> Old Town")

	s := Check(frame)
	assert.Equal(t, 1500, s.Channels.Online+s.Channels.InStore)
}

func TestWrite_NoDates(t *testing.T) {
	frame, err := dataset.ReadFrame(strings.NewReader("transaction_id,date\nT1,\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "UrbanMart", frame))
	assert.Contains(t, buf.String(), "Date range (min to max): NaT to NaT")
}
