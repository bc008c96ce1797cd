package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/scoring"
	"github.com/amishk599/jobdigest/internal/settings"
)

const (
	defaultJobLimit = 50
	defaultRunLimit = 100
	maxLimit        = 500
)

func (s *Server) listSources(c *gin.Context) {
	sources, err := s.repo.ListSources(c.Request.Context())
	if err != nil {
		s.fail(c, "list sources", err)
		return
	}
	out := make([]sourceDTO, 0, len(sources))
	for _, src := range sources {
		out = append(out, toSourceDTO(src))
	}
	c.JSON(http.StatusOK, out)
}

type sourcePatch struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) patchSource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body sourcePatch
	if err := c.ShouldBindJSON(&body); err != nil || body.Enabled == nil {
		badRequest(c, `body must be {"enabled": true|false}`)
		return
	}
	src, err := s.repo.SetSourceEnabled(c.Request.Context(), id, *body.Enabled)
	if errors.Is(err, model.ErrNotFound) {
		notFound(c, "source")
		return
	}
	if err != nil {
		s.fail(c, "update source", err)
		return
	}
	c.JSON(http.StatusOK, toSourceDTO(*src))
}

func (s *Server) listRuns(c *gin.Context) {
	limit, ok := queryLimit(c, defaultRunLimit)
	if !ok {
		return
	}
	runs, err := s.repo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, "list runs", err)
		return
	}
	out := make([]runDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunDTO(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listJobs(c *gin.Context) {
	q := model.JobQuery{Text: strings.TrimSpace(c.Query("q"))}

	var ok bool
	if q.Limit, ok = queryLimit(c, defaultJobLimit); !ok {
		return
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "offset must be a non-negative integer")
			return
		}
		q.Offset = n
	}
	if v := c.Query("source_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			badRequest(c, "source_id must be a positive integer")
			return
		}
		q.SourceID = n
	}
	if v := c.Query("decision"); v != "" {
		d, err := model.ParseDecision(v)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		q.Decision = d
	}
	for key, dst := range map[string]**time.Time{"since": &q.Since, "until": &q.Until} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, key+" must be an RFC 3339 timestamp")
			return
		}
		t = t.UTC()
		*dst = &t
	}

	jobs, err := s.repo.ListJobs(c.Request.Context(), q)
	if err != nil {
		s.fail(c, "list jobs", err)
		return
	}
	out := make([]jobDTO, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobDTO(j))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getJob(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	job, err := s.repo.GetJob(c.Request.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		notFound(c, "job")
		return
	}
	if err != nil {
		s.fail(c, "get job", err)
		return
	}
	c.JSON(http.StatusOK, toJobDTO(*job))
}

func (s *Server) getScoring(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Rubric(c.Request.Context()))
}

func (s *Server) putScoring(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "reading body failed")
		return
	}
	rubric, err := scoring.ParseRubric(data)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if !s.store(c, settings.KeyScoring, rubric) {
		return
	}
	c.JSON(http.StatusOK, rubric)
}

func (s *Server) getNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Notifications(c.Request.Context()))
}

// putNotifications rejects any field the lenient reader would have replaced
// with a default.
func (s *Server) putNotifications(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "reading body failed")
		return
	}
	n, warnings := settings.ParseNotifications(data)
	if len(warnings) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification settings", "details": warnings})
		return
	}
	if !s.store(c, settings.KeyNotifications, n) {
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) store(c *gin.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail(c, "encode "+key, err)
		return false
	}
	if err := s.repo.PutSetting(c.Request.Context(), key, data); err != nil {
		s.fail(c, "save "+key, err)
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxLimit {
		badRequest(c, "limit must be between 1 and 500")
		return 0, false
	}
	return n, true
}
