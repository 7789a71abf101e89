package districtmapping

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 0)
}

func newTestClient(srv *httptest.Server, opts ...Option) Client {
	opts = append([]Option{WithCSRFToken("tok-123"), WithRateLimit(1000, 1000)}, opts...)
	return NewClient(srv.URL, "42", opts...)
}

func TestAddToDistrict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/districtmapping/plan/42/district/7/add/", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tok-123", r.Header.Get("X-CSRFToken"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2", r.PostForm.Get("geolevel"))
		assert.Equal(t, "0101|0102|0103", r.PostForm.Get("geounits"))
		assert.Equal(t, "11", r.PostForm.Get("version"))

		w.Write([]byte(`{"success":true,"updated":true,"version":12,"edited":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	res, err := c.AddToDistrict(context.Background(), 7, 2, []string{"0101", "0102", "0103"}, 11)
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, 12, res.Version)
	assert.True(t, res.Edited)
}

func TestAddToDistrict_NoUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"updated":false,"version":11}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	res, err := c.AddToDistrict(context.Background(), 7, 2, []string{"0101"}, 11)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, 11, res.Version)
}

func TestAddToDistrict_RedirectWinsOverFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"locked","redirect":"/accounts/login/"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.AddToDistrict(context.Background(), 7, 2, []string{"0101"}, 11)
	require.Error(t, err)
	url, ok := IsRedirect(err)
	require.True(t, ok)
	assert.Equal(t, "/accounts/login/", url)
}

func TestDo_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"redirect":"/accounts/login/?next=/plan/42/"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ListDistricts(context.Background(), 3)
	url, ok := IsRedirect(err)
	require.True(t, ok)
	assert.Equal(t, "/accounts/login/?next=/plan/42/", url)
}

func TestDo_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.FixUnassigned(context.Background(), 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDo_RequestFailedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"district is locked"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.CombineDistricts(context.Background(), 3, 4, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "district is locked")
}

func TestListDistricts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/districtmapping/plan/42/districts/", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("version"))
		// GET carries no CSRF token.
		assert.Empty(t, r.Header.Get("X-CSRFToken"))
		w.Write([]byte(`{
			"success": true,
			"districts": [
				{"district_id":0,"long_label":"Unassigned","version":5,"is_locked":false},
				{"district_id":1,"long_label":"District 1","version":5,"is_locked":true}
			],
			"canUndo": true,
			"available": 3
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	list, err := c.ListDistricts(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list.Districts, 2)
	assert.Equal(t, UnassignedDistrictID, list.Districts[0].ID)
	assert.True(t, list.Districts[1].Locked)
	assert.True(t, list.CanUndo)
	assert.Equal(t, 3, list.Available)
}

func TestSetDistrictLock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/districtmapping/plan/42/district/3/lock/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "true", r.PostForm.Get("lock"))
		assert.Equal(t, "8", r.PostForm.Get("version"))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	require.NoError(t, c.SetDistrictLock(context.Background(), 3, true, 8))
}

func TestSetDistrictLock_EmptyBody(t *testing.T) {
	// The lock endpoint acknowledges with a bare 200 and no payload.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	require.NoError(t, c.SetDistrictLock(context.Background(), 3, false, 8))
}

func TestNewDistrict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/districtmapping/plan/42/district/new/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "9", r.PostForm.Get("district_id"))
		assert.Equal(t, "North Shore", r.PostForm.Get("district_name"))
		w.Write([]byte(`{"success":true,"version":13}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	res, err := c.NewDistrict(context.Background(), 9, "North Shore", 2, []string{"0201"}, 12)
	require.NoError(t, err)
	assert.Equal(t, 13, res.Version)
}

func TestQuerySplits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/districtmapping/plan/42/splits/", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("geolevel"))
		assert.Equal(t, "6", r.URL.Query().Get("version"))
		w.Write([]byte(`{"success":true,"splits":[{"geounit_id":"0305","name":"Tract 305","districts":[2,4]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	splits, err := c.QuerySplits(context.Background(), 1, 6)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, "0305", splits[0].UnitID)
	assert.Equal(t, []int{2, 4}, splits[0].Districts)
}

func TestSameOrigin(t *testing.T) {
	c := NewClient("https://mapping.example.org", "1").(*httpClient)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "relative path", url: "../districts/", want: true},
		{name: "same host absolute", url: "https://mapping.example.org/districtmapping/plan/1/districts/", want: true},
		{name: "other host absolute", url: "https://cdn.example.net/report/", want: false},
		{name: "other host http", url: "http://elsewhere.org/", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.sameOrigin(tt.url))
		})
	}
}

func TestCSRFExemptForCrossOrigin(t *testing.T) {
	// A client whose base origin differs from the request target must not
	// leak the token.
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-CSRFToken")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := &httpClient{
		baseURL:   "https://mapping.example.org",
		planID:    "42",
		csrfToken: "tok-123",
		http:      srv.Client(),
		limiter:   newTestLimiter(),
	}
	_, err := c.do(context.Background(), http.MethodPost, srv.URL+"/external/", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
