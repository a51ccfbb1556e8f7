package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/agrolens/engine"
)

const faostatCSV = `Domain,Area,Element,Item,Year,Unit,Value,Flag
QCL,India,Production,Wheat,2018,t,"99,870,000",A
QCL,India,Production,Wheat,2019,t,103596230,A
QCL,India,Production,Wheat,not-a-year,t,1,A
QCL,India,Production,Wheat,2020,t,,A

QCL,India,Production,Wheat,2021,t,109590000,E
`

func TestReadCSVFaostatHeaders(t *testing.T) {
	batch, err := ReadCSV(strings.NewReader(faostatCSV))
	require.NoError(t, err)

	require.Len(t, batch.Observations, 3)
	assert.Equal(t, 2, batch.Skipped)

	first := batch.Observations[0]
	assert.Equal(t, 2018, first.Year)
	assert.Equal(t, 99870000.0, first.Value)
	assert.Equal(t, "t", first.Unit)
	assert.Equal(t, "India", first.Tag(engine.TagCountry))
	assert.Equal(t, "Wheat", first.Tag(engine.TagCommodity))
	assert.Equal(t, "Production", first.Tag(engine.TagMetric))
	assert.Equal(t, "QCL", first.Tag(engine.TagDomain))
	assert.Empty(t, first.Tag("flag"))
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Country,Value\nIndia,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadCSV(strings.NewReader("Year,Country\n2000,India\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	batch, err := ReadCSV(strings.NewReader(faostatCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, engine.Series(batch.Observations)))
	assert.True(t, strings.HasPrefix(buf.String(), "Year,Value,Unit,Country,Item,Domain,Metric\n"))
	assert.Contains(t, buf.String(), "2018,99870000,t,India,Wheat,QCL,Production\n")

	again, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, batch.Observations, again.Observations)
}

func workbook(t *testing.T, sheet string, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" {
		require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	} else {
		sheet = f.GetSheetName(0)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadXLSX(t *testing.T) {
	buf := workbook(t, "Data", [][]interface{}{
		{"Year", "Value", "Unit", "Country", "Commodity"},
		{2019, 12.5, "t/ha", "Kenya", "Maize"},
		{2020, 13, "t/ha", "Kenya", "Maize"},
		{"", "", "", "", ""},
	})

	batch, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "Data")
	require.NoError(t, err)
	require.Len(t, batch.Observations, 2)
	assert.Equal(t, 2019, batch.Observations[0].Year)
	assert.Equal(t, 12.5, batch.Observations[0].Value)
	assert.Equal(t, "Kenya", batch.Observations[1].Tag(engine.TagCountry))

	firstSheet, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	assert.Equal(t, batch.Observations, firstSheet.Observations)

	_, err = ReadXLSX(bytes.NewReader(buf.Bytes()), "Missing")
	assert.Error(t, err)
}

func TestSimulateDeterministic(t *testing.T) {
	opts := DefaultSimulateOptions()
	a, err := Simulate(opts)
	require.NoError(t, err)
	b, err := Simulate(opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	years := opts.YearEnd - opts.YearStart + 1
	assert.Len(t, a, years*len(opts.Countries)*len(opts.Commodities))

	opts.Seed = 7
	c, err := Simulate(opts)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSimulateFeedsEngine(t *testing.T) {
	rows, err := Simulate(DefaultSimulateOptions())
	require.NoError(t, err)

	b, err := engine.Summarize(engine.NewSliceDataset(rows), engine.FilterSpec{Country: "India", Commodity: "Rice"})
	require.NoError(t, err)
	assert.Equal(t, 23, b.Features.Count)
	assert.NotEqual(t, engine.TrendInsufficientData, b.Trend)
}

func TestSimulateRejectsBadOptions(t *testing.T) {
	opts := DefaultSimulateOptions()
	opts.YearEnd = opts.YearStart - 1
	_, err := Simulate(opts)
	assert.Error(t, err)

	opts = DefaultSimulateOptions()
	opts.Countries = nil
	_, err = Simulate(opts)
	assert.Error(t, err)
}
