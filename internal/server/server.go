package server

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/dist1-extractor/constants"
	"github.com/joseph-ayodele/dist1-extractor/internal/async"
	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
	"github.com/joseph-ayodele/dist1-extractor/internal/pipeline"
	"github.com/joseph-ayodele/dist1-extractor/internal/repository"
)

//go:embed templates/index.html
var templatesFS embed.FS

var createRunSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"folder"},
	"properties": map[string]any{
		"folder": map[string]any{"type": "string", "minLength": 1},
		"lang":   map[string]any{"type": "string", "enum": []any{pipeline.LangEN, pipeline.LangJA}},
	},
}

type createRunRequest struct {
	Folder string `json:"folder"`
	Lang   string `json:"lang"`
}

// RunView is the JSON shape of GET /runs/:id.
type RunView struct {
	entity.Run
	Done         bool                 `json:"done"`
	Measurements []entity.Measurement `json:"measurements,omitempty"`
}

// Server is the browser front end: a form page plus a small JSON API over
// the single-worker run queue.
type Server struct {
	queue   async.Queue
	tracker *async.Tracker
	history repository.RunRepository
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

// NewServer wires the HTTP handlers. history may be nil.
func NewServer(queue async.Queue, tracker *async.Tracker, history repository.RunRepository, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := common.CompileSchema("create_run.json", createRunSchema)
	if err != nil {
		return nil, err
	}
	return &Server{queue: queue, tracker: tracker, history: history, schema: schema, logger: logger}, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.indexHandler)
	r.GET("/healthz", healthzHandler)
	r.POST("/runs", s.createRunHandler)
	r.GET("/runs/:id", s.getRunHandler)
	return r, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) indexHandler(c *gin.Context) {
	lang := pipeline.NormalizeLang(c.Query("lang"))
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Lang":   lang,
		"T":      pipeline.Texts(lang),
		"Folder": c.Query("folder"),
	})
}

func healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createRunHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.abort(c, common.NewAppError("INVALID_BODY", "cannot read request body", common.ErrInvalidInput))
		return
	}
	if err := common.ValidateJSON(s.schema, body); err != nil {
		s.abort(c, err)
		return
	}
	var req createRunRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.abort(c, common.NewAppError("INVALID_JSON", "request body is not valid JSON", common.ErrInvalidInput))
		return
	}
	req.Folder = strings.TrimSpace(req.Folder)
	if req.Lang == "" {
		req.Lang = pipeline.LangEN
	}

	v := common.NewValidator().
		Field("folder", req.Folder, common.Required, common.ExistingDir).
		Field("lang", req.Lang, common.OneOf(pipeline.LangEN, pipeline.LangJA))
	if err := v.Error(); err != nil {
		s.abort(c, err)
		return
	}

	job := async.Job{RunID: uuid.New(), Folder: req.Folder, Lang: req.Lang, SubmittedAt: time.Now()}
	if err := s.queue.Enqueue(c.Request.Context(), job); err != nil {
		s.abort(c, err)
		return
	}
	s.logger.Info("run accepted", "run_id", job.RunID, "folder", job.Folder, "lang", job.Lang)
	c.JSON(http.StatusAccepted, gin.H{"run_id": job.RunID})
}

func (s *Server) getRunHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.abort(c, common.NewAppError("INVALID_ID", "run id must be a UUID", common.ErrInvalidInput))
		return
	}

	if run, ok := s.tracker.Get(id); ok {
		c.JSON(http.StatusOK, s.view(c, run))
		return
	}
	if s.history != nil {
		run, err := s.history.GetRun(c.Request.Context(), id)
		if err == nil {
			c.JSON(http.StatusOK, s.view(c, *run))
			return
		}
		if !errors.Is(err, common.ErrNotFound) {
			s.abort(c, err)
			return
		}
	}
	s.abort(c, common.NewAppError("NOT_FOUND", "run "+id.String()+" not found", common.ErrNotFound))
}

func (s *Server) view(c *gin.Context, run entity.Run) RunView {
	v := RunView{Run: run, Done: constants.RunState(run.State).Terminal()}
	if v.Done && s.history != nil {
		ms, err := s.history.ListMeasurements(c.Request.Context(), run.ID)
		if err != nil {
			s.logger.Warn("list measurements failed", "run_id", run.ID, "error", err)
		}
		v.Measurements = ms
	}
	return v
}

func (s *Server) abort(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": common.ErrorCode(err)})
}
