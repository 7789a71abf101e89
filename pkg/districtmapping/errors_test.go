package districtmapping

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsRedirect(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantURL string
		wantOK  bool
	}{
		{
			name:    "direct redirect error",
			err:     &RedirectError{URL: "/accounts/login/"},
			wantURL: "/accounts/login/",
			wantOK:  true,
		},
		{
			name:    "wrapped redirect error",
			err:     eris.Wrap(&RedirectError{URL: "/accounts/login/"}, "assign"),
			wantURL: "/accounts/login/",
			wantOK:  true,
		},
		{
			name:   "plain error",
			err:    eris.New("boom"),
			wantOK: false,
		},
		{
			name:   "status error",
			err:    &StatusError{Code: 502, Body: "bad gateway"},
			wantOK: false,
		},
		{
			name:   "nil",
			err:    nil,
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok := IsRedirect(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&StatusError{Code: 503, Body: "x"}).Error(), "503")
	assert.Contains(t, (&RequestError{Message: "district is locked"}).Error(), "district is locked")
	assert.Contains(t, (&RequestError{}).Error(), "request failed")
	assert.Contains(t, (&RedirectError{URL: "/login"}).Error(), "/login")
}
