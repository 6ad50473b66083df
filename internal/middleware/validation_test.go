package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/pkg/httputil"
)

func bindPrescription(t *testing.T, body string) error {
	t.Helper()
	require.NoError(t, RegisterValidators())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req model.CreatePrescriptionRequest
	return c.ShouldBindJSON(&req)
}

func TestValidatorsReportJSONPaths(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{
			name:  "bad time",
			body:  `{"medicineId":1,"schedule":[{"dayOfWeek":"MONDAY","timeOfDay":"08:00"},{"dayOfWeek":"MONDAY","timeOfDay":"8am"}]}`,
			field: "schedule[1].timeOfDay",
			msg:   `invalid time of day "8am", expected HH:mm`,
		},
		{
			name:  "bad day",
			body:  `{"medicineId":1,"schedule":[{"dayOfWeek":"Someday","timeOfDay":"08:00"}]}`,
			field: "schedule[0].dayOfWeek",
			msg:   `invalid day of week "Someday"`,
		},
		{
			name:  "bad unit",
			body:  `{"medicineId":1,"dosage":{"amount":"1","unit":"BUCKET"}}`,
			field: "dosage.unit",
			msg:   `unrecognized dosage unit "BUCKET"`,
		},
		{
			name:  "bad zone",
			body:  `{"medicineId":1,"timeZone":"not a zone"}`,
			field: "timeZone",
			msg:   `invalid IANA time zone "not a zone"`,
		},
		{
			name:  "missing medicine",
			body:  `{"startDate":"2024-01-01"}`,
			field: "medicineId",
			msg:   "is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bindPrescription(t, tt.body)
			require.Error(t, err)
			appErr := httputil.BindingError(err)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Equal(t, tt.msg, appErr.Message)
		})
	}
}

func TestValidatorsAcceptWellFormedRequest(t *testing.T) {
	err := bindPrescription(t, `{
		"medicineId": 3,
		"dosage": {"amount": 2.5, "unit": "mg"},
		"startDate": "2024-01-01",
		"timeZone": "Europe/Berlin",
		"schedule": [{"dayOfWeek": "monday", "timeOfDay": "08:00"}]
	}`)
	assert.NoError(t, err)
}
