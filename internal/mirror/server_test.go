package mirror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onspop/pkg/models"
)

const versionPath = "/datasets/pop-est/editions/time-series/versions/2"

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestServer_OptionsPaging(t *testing.T) {
	h := NewServer(DemoFixture(), nil).Handler()

	var page models.OptionList
	require.Equal(t, http.StatusOK, get(t, h, versionPath+"/dimensions/time/options?limit=2&offset=1", &page))
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 1, page.Offset)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2022", page.Items[0].Code())

	require.Equal(t, http.StatusOK, get(t, h, versionPath+"/dimensions/time/options?offset=10", &page))
	assert.Empty(t, page.Items)
}

func TestServer_NotFound(t *testing.T) {
	h := NewServer(DemoFixture(), nil).Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/datasets/nope/editions", nil))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/datasets/pop-est/editions/time-series/versions/9", nil))
	assert.Equal(t, http.StatusNotFound, get(t, h, versionPath+"/dimensions/colour/options", nil))
}

func TestServer_ObservationsMatchFilters(t *testing.T) {
	h := NewServer(DemoFixture(), nil).Handler()

	var list models.ObservationList
	require.Equal(t, http.StatusOK, get(t, h, versionPath+"/observations?geography=E07000046&sex=7&age=1&time=2022", &list))
	require.Len(t, list.Observations, 1)
	assert.Equal(t, models.Flex("12"), list.Observations[0].Observation)

	require.Equal(t, http.StatusOK, get(t, h, versionPath+"/observations?geography=E07000046&sex=1&age=1&time=2022", &list))
	assert.Empty(t, list.Observations)
}

func TestServer_FailAndHits(t *testing.T) {
	srv := NewServer(DemoFixture(), nil)
	h := srv.Handler()

	srv.Fail(RouteEditions, http.StatusInternalServerError)
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/datasets/pop-est/editions", nil))

	srv.Fail(RouteEditions, 0)
	assert.Equal(t, http.StatusOK, get(t, h, "/datasets/pop-est/editions", nil))
	assert.Equal(t, 2, srv.Hits(RouteEditions))
	assert.Equal(t, 0, srv.Hits(RouteSearch))
}

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "mirror.json"))
	require.NoError(t, err)

	v := f.Version("mid-year-pop-est", "mid-2022", "4")
	require.NotNil(t, v)
	assert.Equal(t, "4", v.Version.Text)

	age := v.Dimension("single-year-of-age")
	require.NotNil(t, age)
	assert.Equal(t, "total", age.Options[0].Code())
	assert.Equal(t, models.Flex("68800"), v.Observations[0].Observation)

	_, err = LoadFixture(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)
}
