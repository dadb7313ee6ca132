package scraper

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationPage = `<html><body>
<h3>Datos Horarios</h3>
<table>
  <tr><th>Fecha</th><th>Lluvia (mm)</th><th>Temperatura (°C)</th><th>Humedad (%)</th></tr>
  <tr><td>15/03/2026 08:00:00 a.m.</td><td>2,5</td><td>22,1</td><td>85</td></tr>
  <tr><td>15/03/2026 07:00:00 a.m.</td><td>0,0</td><td>21,4</td><td>88</td></tr>
  <tr><td>15/03/2026 06:00:00 a.m.</td><td>1,0</td><td>20,9</td><td>90</td></tr>
</table>
<div><strong>Datos Actuales</strong></div>
<table>
  <tr><td>Fecha</td><td>Lluvia desde las 7 a.m.</td><td>Lluvia del periodo anterior</td></tr>
  <tr><td>15/03/2026 08:00:00 a.m.</td><td>2,5</td><td>14,2</td></tr>
</table>
<p>Datos Diarios</p>
<table>
  <tr><th>Fecha</th><th>Lluvia (mm)</th></tr>
  <tr><td>14/03/2026</td><td>14,2</td></tr>
  <tr><td>13/03/2026</td><td>3,0</td></tr>
</table>
</body></html>`

func TestExtract_HeadingPass(t *testing.T) {
	tables := Extract(stationPage)

	require.Len(t, tables, 3)

	hourly := tables[TableHourly]
	assert.Equal(t, []string{"Fecha", "Lluvia (mm)", "Temperatura (°C)", "Humedad (%)"}, hourly.Header)
	require.Len(t, hourly.Rows, 3)
	assert.Equal(t, []string{"15/03/2026 08:00:00 a.m.", "2,5", "22,1", "85"}, hourly.Rows[0])

	current := tables[TableCurrent]
	require.Len(t, current.Rows, 1)
	assert.Equal(t, "14,2", current.Rows[0][2])

	daily := tables[TableDaily]
	want := [][]string{{"14/03/2026", "14,2"}, {"13/03/2026", "3,0"}}
	if diff := cmp.Diff(want, daily.Rows); diff != "" {
		t.Errorf("daily rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_HeadingInDifferentBranch(t *testing.T) {
	page := `<div class="card">
	  <div class="card-header"><h4>Registros HORÁRIOS de la estación</h4></div>
	  <div class="card-body"><div><table>
	    <tr><td>15/03/2026 08:00</td><td>1,5</td></tr>
	    <tr><td>15/03/2026 07:00</td><td>0,5</td></tr>
	  </table></div></div>
	</div>`

	tables := Extract(page)

	require.Contains(t, tables, TableHourly)
	assert.Len(t, tables[TableHourly].Rows, 2)
	assert.Nil(t, tables[TableHourly].Header)
}

func TestExtract_CaptionResolvesToOwnTable(t *testing.T) {
	page := `<table><caption>Totales diarios</caption>
	  <tr><td>14/03/2026</td><td>14,2</td></tr>
	</table>
	<h2>Datos horarios</h2>
	<table><tr><td>15/03/2026 08:00</td><td>1,5</td></tr></table>`

	tables := Extract(page)

	require.Contains(t, tables, TableDaily)
	assert.Equal(t, "14/03/2026", tables[TableDaily].Rows[0][0])
	assert.Equal(t, "15/03/2026 08:00", tables[TableHourly].Rows[0][0])
}

func TestExtract_LongerCandidateWins(t *testing.T) {
	short := `<h3>Datos horarios (resumen)</h3>
	<table><tr><td>15/03/2026 08:00</td><td>1</td></tr></table>`
	long := `<h3>Datos horarios</h3>
	<table>
	  <tr><td>15/03/2026 08:00</td><td>1</td></tr>
	  <tr><td>15/03/2026 07:00</td><td>2</td></tr>
	  <tr><td>15/03/2026 06:00</td><td>3</td></tr>
	</table>`

	t.Run("later longer replaces earlier", func(t *testing.T) {
		tables := Extract(short + long)
		assert.Len(t, tables[TableHourly].Rows, 3)
	})

	t.Run("later shorter does not replace", func(t *testing.T) {
		tables := Extract(long + short)
		assert.Len(t, tables[TableHourly].Rows, 3)
	})
}

func TestExtract_TitleCellResolvesToOwnTable(t *testing.T) {
	page := `<h3>Datos Horarios</h3>
	<table>
	  <tr><td>15/03/2026 08:00</td><td>1,5</td><td>22</td></tr>
	</table>
	<table>
	  <tr><th colspan="2">Datos Diarios</th></tr>
	  <tr><th>Fecha</th><th>Lluvia (mm)</th></tr>
	  <tr><td>14/03/2026</td><td>14,2</td></tr>
	  <tr><td>13/03/2026</td><td>3,0</td></tr>
	</table>`

	tables := Extract(page)

	require.Contains(t, tables, TableDaily)
	assert.Equal(t, []string{"Fecha", "Lluvia (mm)"}, tables[TableDaily].Header)
	assert.Len(t, tables[TableDaily].Rows, 2)
	assert.Len(t, tables[TableHourly].Rows, 1)
}

func TestExtract_ReplacedCandidateReturnsToFallback(t *testing.T) {
	page := `<p>Datos diarios</p>
	<table>
	  <tr><td>Fecha</td><td>Lluvia</td><td>Temperatura</td></tr>
	  <tr><td>15/03/2026 08:00</td><td>1,5</td><td>22</td></tr>
	</table>
	<p>Datos diarios</p>
	<table>
	  <tr><td>Fecha</td><td>Lluvia</td></tr>
	  <tr><td>14/03/2026</td><td>14,2</td></tr>
	  <tr><td>13/03/2026</td><td>3,0</td></tr>
	</table>`

	tables := Extract(page)

	require.Len(t, tables, 2)
	assert.Len(t, tables[TableDaily].Rows, 2)
	require.Contains(t, tables, TableHourly)
	assert.Equal(t, [][]string{{"15/03/2026 08:00", "1,5", "22"}}, tables[TableHourly].Rows)
}

func TestExtract_SkipsShortRowsAndNestedTables(t *testing.T) {
	page := `<h3>Datos horarios</h3>
	<table>
	  <tr><td colspan="2">Estación San José</td></tr>
	  <tr><td>Fecha y hora</td><td>Lluvia</td></tr>
	  <tr><td>15/03/2026 08:00</td><td>1,0</td></tr>
	  <tr><td>15/03/2026 07:00</td><td><table><tr><td>x</td><td>y</td></tr></table></td></tr>
	</table>`

	tables := Extract(page)

	rows := tables[TableHourly].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Fecha y hora", "Lluvia"}, tables[TableHourly].Header)
	for _, r := range rows {
		assert.NotEqual(t, "x", r[0])
	}
}

func TestExtract_FallbackClassifiesDailyTable(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<table><tr><th>Fecha</th><th>Lluvia acumulada (mm)</th></tr>`)
	for i := 1; i <= 30; i++ {
		b.WriteString(`<tr><td>01/03/2026</td><td>1,0</td></tr>`)
	}
	b.WriteString(`</table>`)

	tables := Extract(b.String())

	require.Contains(t, tables, TableDaily)
	assert.Len(t, tables[TableDaily].Rows, 30)
	assert.NotContains(t, tables, TableHourly)
}

func TestExtract_FallbackRejectsLongDailyLikeTable(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<table><tr><th>Fecha</th><th>Lluvia (mm)</th></tr>`)
	for i := 1; i <= 36; i++ {
		b.WriteString(`<tr><td>01/03/2026</td><td>1,0</td></tr>`)
	}
	b.WriteString(`</table>`)

	assert.Empty(t, Extract(b.String()))
}

func TestExtract_FallbackClassifiesHourlyTable(t *testing.T) {
	page := `<table>
	  <tr><th>Fecha</th><th>Lluvia</th><th>Temp.</th><th>Humedad</th></tr>
	  <tr><td>15/03/2026 08:00</td><td>1,0</td><td>22</td><td>80</td></tr>
	</table>
	<table>
	  <tr><th>Fecha</th><th>Lluvia</th></tr>
	  <tr><td>14/03/2026</td><td>12</td></tr>
	</table>`

	tables := Extract(page)

	require.Contains(t, tables, TableHourly)
	require.Contains(t, tables, TableDaily)
	assert.Equal(t, "14/03/2026", tables[TableDaily].Rows[0][0])
}

func TestExtract_FallbackSkippedWhenHourlyFound(t *testing.T) {
	page := `<h3>Datos horarios</h3>
	<table><tr><td>15/03/2026 08:00</td><td>1,0</td></tr></table>
	<table>
	  <tr><th>Fecha</th><th>Lluvia</th></tr>
	  <tr><td>14/03/2026</td><td>12</td></tr>
	</table>`

	tables := Extract(page)

	assert.Contains(t, tables, TableHourly)
	assert.NotContains(t, tables, TableDaily)
}

func TestExtract_MalformedInput(t *testing.T) {
	inputs := []string{
		"",
		"not html at all",
		"<table><tr><td>15/03/2026 08:00<td>1",
		"<h3>Datos horarios</h3>",
		"<<<>>></table></tr>",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Extract(in) })
	}

	tables := Extract("<h3>Datos horarios</h3><table><tr><td>15/03/2026 08:00<td>1")
	require.Contains(t, tables, TableHourly)
	assert.Equal(t, []string{"15/03/2026 08:00", "1"}, tables[TableHourly].Rows[0])
}

func TestFold(t *testing.T) {
	assert.Equal(t, "datos horarios", fold("  Datos   HORÁRIOS "))
	assert.Equal(t, "dia", fold("Día"))
}
