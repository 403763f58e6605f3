package simulator

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveugene/pulsedash/internal/metrics"
	"github.com/saveugene/pulsedash/internal/transport"
)

func TestGeneratorRangeAndSeed(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)
	for i := 0; i < 1000; i++ {
		v := a.Next()
		assert.Equal(t, v, b.Next())
		assert.GreaterOrEqual(t, v, 55)
		assert.LessOrEqual(t, v, 105)
	}
}

func TestSessionAggregates(t *testing.T) {
	s := newSession(time.Unix(0, 0))
	s.add(0, 70)
	s.add(1, 71)
	agg := s.add(2, 71)

	assert.Equal(t, 70.0, *agg.Min)
	assert.Equal(t, 71.0, *agg.Max)
	assert.Equal(t, 70.67, *agg.Avg)
	assert.Equal(t, 1.0, *agg.Trend)
	assert.NotNil(t, agg.Stats())
}

func TestSessionSummary(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := newSession(start)
	empty, err := s.summary(start)
	require.NoError(t, err)
	assert.Nil(t, empty)

	s.add(0, 80)
	s.add(1, 90)
	sum, err := s.summary(start.Add(2500 * time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, sum)

	assert.Equal(t, "Observation", sum.ResourceType)
	assert.Equal(t, transport.LOINCHeartRate, sum.Code.Coding[0].Code)
	assert.Equal(t, 90.0, *sum.ValueQuantity.Value)
	require.Len(t, sum.Component, 3)
	assert.Equal(t, "avg", sum.Component[2].Code.Text)
	assert.Equal(t, 85.0, *sum.Component[2].ValueQuantity.Value)
	assert.Equal(t, "2024-05-01T10:00:00Z", sum.EffectivePeriod.Start)
	assert.Equal(t, "2024-05-01T10:00:02Z", sum.EffectivePeriod.End)
	assert.Equal(t, 2, sum.EffectivePeriod.DurationSeconds)
	assert.JSONEq(t, `[{"time":0,"value":80},{"time":1,"value":90}]`, sum.Extension[0].ValueString)
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerStreamsAndStoresSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := New(Options{
		Interval: 10 * time.Millisecond,
		Seed:     7,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	code, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, RunningMessage)

	code, body = get(t, ts.URL+"/api/session")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"No session data available."}`, body)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	gen := NewGenerator(7)
	for i := 0; i < 3; i++ {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := transport.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, i, msg.Time)
		v, _ := msg.Value()
		assert.Equal(t, float64(gen.Next()), v)
		assert.Equal(t, transport.HeartRateUnit, msg.Observation.ValueQuantity.Unit)
		require.NotNil(t, msg.Aggregates.Stats())
	}

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return srv.LastSession() != nil }, 2*time.Second, 10*time.Millisecond)

	code, body = get(t, ts.URL+"/api/session")
	assert.Equal(t, http.StatusOK, code)
	var obs transport.Observation
	require.NoError(t, json.Unmarshal([]byte(body), &obs))
	assert.Equal(t, "Observation", obs.ResourceType)
	assert.Len(t, obs.Component, 3)

	code, body = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "pulsedash_sim_clients")
}

func TestServerUnknownPath(t *testing.T) {
	ts := httptest.NewServer(New(Options{}).Handler())
	defer ts.Close()
	code, _ := get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}
