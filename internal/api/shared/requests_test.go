package shared

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type daysBody struct {
	Days int `json:"days" validate:"gte=1"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		allowEmpty  bool
		wantDays    int
		errContains string
	}{
		{name: "valid json", requestBody: `{"days": 3}`, wantDays: 3},
		{name: "trailing comma", requestBody: `{"days": 3,}`, errContains: "invalid character"},
		{name: "unknown field", requestBody: `{"days": 3, "weeks": 1}`, errContains: "unknown field"},
		{name: "trailing data", requestBody: `{"days": 3} {"days": 4}`, errContains: "unexpected data"},
		{name: "empty body", requestBody: "", errContains: "EOF"},
		{name: "empty body allowed", requestBody: "", allowEmpty: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))

			var body daysBody
			err := DecodeJSON(req, &body, tc.allowEmpty)

			if tc.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantDays, body.Days)
		})
	}
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target daysBody
	err := DecodeJSON(req, &target, true)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type selfValidating struct {
	Name string
}

func (s *selfValidating) Validate() error {
	if s.Name == "" {
		return errors.New("name required")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr bool
	}{
		{"struct tags pass", &daysBody{Days: 1}, false},
		{"struct tags fail", &daysBody{Days: 0}, true},
		{"own validator pass", &selfValidating{Name: "x"}, false},
		{"own validator fail", &selfValidating{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
