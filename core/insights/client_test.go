package insights

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedRequest struct {
	Header http.Header
	Body   graphqlRequest
	Vars   map[string]interface{}
}

// newGraphQLServer answers every POST with the given status and body.
func newGraphQLServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured.Header = r.Header.Clone()

		var req struct {
			Query         string                 `json:"query"`
			Variables     map[string]interface{} `json:"variables"`
			OperationName string                 `json:"operationName"`
		}
		require.NoError(t, json.Unmarshal(raw, &req))
		captured.Body = graphqlRequest{Query: req.Query, OperationName: req.OperationName}
		captured.Vars = req.Variables

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestClient(url string) *Client {
	return NewClient(url, "secret-token", zap.NewNop())
}

func TestMeSendsHeaders(t *testing.T) {
	srv, captured := newGraphQLServer(t, http.StatusOK, `{"data":{"me":{"username":"artist","followersCount":42,"isPro":true,"urn":"soundcloud:users:7"}}}`)

	user, err := newTestClient(srv.URL).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "artist", user.Username)
	assert.Equal(t, int64(42), user.FollowersCount)
	assert.True(t, user.IsPro)

	assert.Equal(t, "OAuth secret-token", captured.Header.Get("Authorization"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, clientName, captured.Header.Get("Apollographql-Client-Name"))
	assert.Equal(t, "Me", captured.Body.OperationName)
	assert.Contains(t, captured.Body.Query, "followersCount")
}

func TestTopTracksVariables(t *testing.T) {
	srv, captured := newGraphQLServer(t, http.StatusOK, `{"data":{"topTracksByWindow":[
		{"count":120,"track":{"urn":"soundcloud:tracks:1","title":"one","artworkUrl":null,"permalink":"one","permalinkUrl":"https://soundcloud.com/a/one","createdAt":"2023-11-02T08:00:00.000Z"}}
	]}}`)

	items, err := newTestClient(srv.URL).TopTracks(context.Background(), DefaultWindow, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(120), items[0].Count)
	assert.Nil(t, items[0].Track.ArtworkURL)
	assert.Equal(t, "2023-11-02", items[0].ToTrack().CreatedAt)

	assert.Equal(t, "PLAYS", captured.Vars["metric"])
	window := captured.Vars["windowInput"].(map[string]interface{})
	assert.Equal(t, "DAYS_30", window["timewindow"])
	assert.Equal(t, float64(50), window["limit"])
}

func TestTopCountriesTrackURN(t *testing.T) {
	tests := []struct {
		name     string
		trackURN string
		wantNull bool
	}{
		{name: "account wide", trackURN: "", wantNull: true},
		{name: "single track", trackURN: "soundcloud:tracks:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, captured := newGraphQLServer(t, http.StatusOK, `{"data":{"topCountriesByWindow":[{"count":10,"country":{"name":"Germany","countryCode":"DE"}}]}}`)

			items, err := newTestClient(srv.URL).TopCountries(context.Background(), DefaultWindow, 50, tt.trackURN)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "DE", items[0].Country.CountryCode)

			v, present := captured.Vars["trackUrn"]
			assert.True(t, present, "trackUrn is always sent")
			if tt.wantNull {
				assert.Nil(t, v)
			} else {
				assert.Equal(t, tt.trackURN, v)
			}
		})
	}
}

func TestTopCitiesDecodesNestedCountry(t *testing.T) {
	srv, _ := newGraphQLServer(t, http.StatusOK, `{"data":{"topCitiesByWindow":[{"count":5,"city":{"name":"Berlin","country":{"name":"Germany","countryCode":"DE"}}}]}}`)

	items, err := newTestClient(srv.URL).TopCities(context.Background(), DefaultWindow, 50, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	stat := items[0].ToCityStat()
	assert.Equal(t, "Berlin", stat.Name)
	assert.Equal(t, "Germany", stat.Country)
	assert.Equal(t, "DE", stat.CountryCode)
	assert.Equal(t, int64(5), stat.Plays)
}

func TestRequestFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   FailureKind
		wantStatus int
		wantMsg    string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid token"}`, wantKind: FailureStatus, wantStatus: 401, wantMsg: "invalid token"},
		{name: "server error", status: http.StatusBadGateway, body: "bad gateway", wantKind: FailureStatus, wantStatus: 502, wantMsg: "bad gateway"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantKind: FailureDecode, wantStatus: 200},
		{name: "graphql errors", status: http.StatusOK, body: `{"data":null,"errors":[{"message":"window not allowed"},{"message":"second"}]}`, wantKind: FailureGraphQL, wantStatus: 200, wantMsg: "window not allowed; second"},
		{name: "null data", status: http.StatusOK, body: `{"data":null}`, wantKind: FailureDecode, wantStatus: 200, wantMsg: "no data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGraphQLServer(t, tt.status, tt.body)

			_, err := newTestClient(srv.URL).TopTracks(context.Background(), DefaultWindow, 10)
			require.Error(t, err)
			f, ok := AsFailure(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantStatus, f.Status)
			assert.Equal(t, QueryTopTracks, f.Query)
			if tt.wantMsg != "" {
				assert.Contains(t, f.Message, tt.wantMsg)
			}
		})
	}
}

func TestMeNullIsFailure(t *testing.T) {
	srv, _ := newGraphQLServer(t, http.StatusOK, `{"data":{"me":null}}`)

	_, err := newTestClient(srv.URL).Me(context.Background())
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureDecode, f.Kind)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.SetTimeout(20 * time.Millisecond)
	_, err := c.TopCities(context.Background(), DefaultWindow, 10, "")
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureTransport, f.Kind)
	assert.NotNil(t, f.Unwrap())
}

func TestReadBodyForErrorTruncates(t *testing.T) {
	long := strings.Repeat("x", 900)
	got := readBodyForError(strings.NewReader(long))
	assert.Len(t, got, 503)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFailureError(t *testing.T) {
	f := &Failure{Query: QueryTopCities, Kind: FailureStatus, Status: 500, Message: "boom"}
	assert.Equal(t, "insights TopCitiesByWindow: status failure (status 500): boom", f.Error())

	f = &Failure{Query: QueryIdentity, Kind: FailureTransport, Message: "dial"}
	assert.Equal(t, "insights Me: transport failure: dial", f.Error())
}
