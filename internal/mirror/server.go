package mirror

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onspop/pkg/models"
)

// Route names, as reported by gin's FullPath, used for hit counts and
// injected failures.
const (
	RouteSearch       = "/search"
	RouteDatasets     = "/datasets"
	RouteEditions     = "/datasets/:id/editions"
	RouteVersions     = "/datasets/:id/editions/:edition/versions"
	RouteVersion      = "/datasets/:id/editions/:edition/versions/:version"
	RouteOptions      = "/datasets/:id/editions/:edition/versions/:version/dimensions/:dimension/options"
	RouteObservations = "/datasets/:id/editions/:edition/versions/:version/observations"
)

const defaultLimit = 20

// Server serves a Fixture over the same paths as the ONS dataset API.
type Server struct {
	Fixture *Fixture
	Logger  *zap.Logger

	mu    sync.Mutex
	hits  map[string]int
	fails map[string]int
}

func NewServer(f *Fixture, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Fixture: f,
		Logger:  logger.Named("mirror"),
		hits:    make(map[string]int),
		fails:   make(map[string]int),
	}
}

// Fail makes every request to route answer with status until cleared
// with status 0.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fails, route)
		return
	}
	s.fails[route] = status
}

// Hits reports how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.track)

	router.GET(RouteSearch, s.search)
	router.GET(RouteDatasets, s.datasets)
	router.GET(RouteEditions, s.editions)
	router.GET(RouteVersions, s.versions)
	router.GET(RouteVersion, s.version)
	router.GET(RouteOptions, s.options)
	router.GET(RouteObservations, s.observations)
	return router
}

func (s *Server) track(c *gin.Context) {
	route := c.FullPath()

	s.mu.Lock()
	s.hits[route]++
	status := s.fails[route]
	s.mu.Unlock()

	s.Logger.Debug("request", zap.String("route", route), zap.String("query", c.Request.URL.RawQuery))
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"error": "injected failure"})
		return
	}
	c.Next()
}

func (s *Server) search(c *gin.Context) {
	items := s.Fixture.Search
	limit := parseInt(c.Query("limit"), defaultLimit)
	if len(items) > limit {
		items = items[:limit]
	}
	c.JSON(http.StatusOK, models.SearchResponse{
		Page:  models.Page{Count: len(items), Limit: limit, TotalCount: len(s.Fixture.Search)},
		Items: items,
	})
}

func (s *Server) datasets(c *gin.Context) {
	limit := parseInt(c.Query("limit"), defaultLimit)
	out := make([]models.Dataset, 0, len(s.Fixture.Datasets))
	for _, d := range s.Fixture.Datasets {
		if len(out) >= limit {
			break
		}
		out = append(out, models.Dataset{ID: d.ID, Title: d.Title, Description: d.Description})
	}
	c.JSON(http.StatusOK, models.DatasetList{
		Page:  models.Page{Count: len(out), Limit: limit, TotalCount: len(s.Fixture.Datasets)},
		Items: out,
	})
}

func (s *Server) editions(c *gin.Context) {
	ds := s.Fixture.dataset(c.Param("id"))
	if ds == nil {
		notFound(c, "dataset not found")
		return
	}
	out := make([]models.Edition, 0, len(ds.Editions))
	for _, e := range ds.Editions {
		out = append(out, models.Edition{Edition: e.Edition, LastUpdated: e.LastUpdated})
	}
	c.JSON(http.StatusOK, models.EditionList{
		Page:  models.Page{Count: len(out), Limit: len(out), TotalCount: len(out)},
		Items: out,
	})
}

func (s *Server) versions(c *gin.Context) {
	ed := s.lookupEdition(c)
	if ed == nil {
		return
	}
	out := make([]models.Version, 0, len(ed.Versions))
	for _, v := range ed.Versions {
		out = append(out, models.Version{Version: v.Version, Edition: ed.Edition, ReleaseDate: v.ReleaseDate})
	}
	c.JSON(http.StatusOK, models.VersionList{
		Page:  models.Page{Count: len(out), Limit: len(out), TotalCount: len(out)},
		Items: out,
	})
}

func (s *Server) version(c *gin.Context) {
	ed := s.lookupEdition(c)
	if ed == nil {
		return
	}
	v := ed.version(c.Param("version"))
	if v == nil {
		notFound(c, "version not found")
		return
	}
	dims := make([]models.Dimension, 0, len(v.Dimensions))
	for _, d := range v.Dimensions {
		dims = append(dims, models.Dimension{ID: d.ID, Name: d.Name, Label: d.Label})
	}
	c.JSON(http.StatusOK, models.Version{
		Version:     v.Version,
		Edition:     ed.Edition,
		ReleaseDate: v.ReleaseDate,
		Dimensions:  dims,
	})
}

func (s *Server) options(c *gin.Context) {
	v := s.lookupVersion(c)
	if v == nil {
		return
	}
	dim := v.dimension(c.Param("dimension"))
	if dim == nil {
		notFound(c, "dimension not found")
		return
	}

	limit := parseInt(c.Query("limit"), defaultLimit)
	offset := parseInt(c.Query("offset"), 0)
	total := len(dim.Options)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	items := dim.Options[offset:end]

	c.JSON(http.StatusOK, models.OptionList{
		Page:  models.Page{Count: len(items), Offset: offset, Limit: limit, TotalCount: total},
		Items: items,
	})
}

func (s *Server) observations(c *gin.Context) {
	v := s.lookupVersion(c)
	if v == nil {
		return
	}

	query := make(map[string]string)
	for k, vals := range c.Request.URL.Query() {
		if len(vals) > 0 {
			query[k] = vals[0]
		}
	}

	out := models.ObservationList{Observations: []models.Observation{}}
	for _, o := range v.Observations {
		if !o.matches(query) {
			continue
		}
		obs := models.Observation{Observation: o.Observation, Value: o.Value}
		if o.TimeLabel != "" {
			obs.Dimensions = map[string]models.ObservationDimension{
				"time": {ID: query["time"], Label: o.TimeLabel},
			}
		}
		out.Observations = append(out.Observations, obs)
		break
	}
	out.TotalObservations = len(out.Observations)
	c.JSON(http.StatusOK, out)
}

func (s *Server) lookupEdition(c *gin.Context) *EditionFixture {
	ds := s.Fixture.dataset(c.Param("id"))
	if ds == nil {
		notFound(c, "dataset not found")
		return nil
	}
	ed := ds.edition(c.Param("edition"))
	if ed == nil {
		notFound(c, "edition not found")
		return nil
	}
	return ed
}

func (s *Server) lookupVersion(c *gin.Context) *VersionFixture {
	ed := s.lookupEdition(c)
	if ed == nil {
		return nil
	}
	v := ed.version(c.Param("version"))
	if v == nil {
		notFound(c, "version not found")
		return nil
	}
	return v
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
