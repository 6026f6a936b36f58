package kafkax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRequestRoundTrip(t *testing.T) {
	b, err := ExportRequest{ExportID: "e1", UserID: "u1", Role: "owner", Months: 6}.Marshal()
	require.NoError(t, err)

	env, err := ParseEnvelope(b)
	require.NoError(t, err)
	assert.Equal(t, TypeReportExport, env.Type)

	req, err := ParseExportRequest(b)
	require.NoError(t, err)
	assert.Equal(t, "e1", req.ExportID)
	assert.Equal(t, 6, req.Months)
}

func TestParseExportRequestRejects(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"type":"booking_created","exportId":"e1"}`,
		`{"type":"report_export"}`,
		`{"exportId":"e1"}`,
		`{"type":"report_export","exportId":"e1","months":"six"}`,
	} {
		_, err := ParseExportRequest([]byte(body))
		assert.Error(t, err, body)
	}
}
