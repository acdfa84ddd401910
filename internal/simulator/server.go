// Package simulator is an in-memory double of the cascade analytics server.
// It serves the same wire surface the client consumes, with toy model fits,
// so suites and tests can run without a live cluster.
package simulator

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"gocascade/adapters/cascade/wire"
	"gocascade/adapters/tabular"
	"gocascade/domain/core"
	"gocascade/domain/frame"
)

// Version is reported by the cloud endpoint
const Version = "0.9.0-sim"

// Server serves the v3 wire surface from in-memory state
type Server struct {
	store  *store
	engine *gin.Engine
}

// New creates a simulator server
func New() *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{store: newStore(), engine: engine}
	s.routes()
	return s
}

// Handler exposes the server as an http.Handler for httptest and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the listener fails
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) routes() {
	v3 := s.engine.Group("/v3")
	v3.GET("/cloud", s.handleCloud)
	v3.POST("/frames/import", s.handleImport)
	v3.POST("/frames", s.handleUpload)
	v3.GET("/frames/:key", s.handleGetFrame)
	v3.GET("/frames/:key/columns/:col/stats/:stat", s.handleColumnStat)
	v3.DELETE("/frames/:key", s.handleDeleteFrame)
	v3.POST("/models/gbm", s.handleTrainGBM)
	v3.POST("/models/glm", s.handleTrainGLM)
	v3.GET("/models/:key", s.handleGetModel)
	v3.POST("/models/:key/predict", s.handlePredict)
	v3.DELETE("/models/:key", s.handleDeleteModel)
}

func writeError(c *gin.Context, status int, category wire.ErrorCategory, format string, args ...interface{}) {
	c.JSON(status, wire.ErrorEnvelope{Error: wire.ErrorBody{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}})
}

func (s *Server) handleCloud(c *gin.Context) {
	c.JSON(http.StatusOK, wire.CloudResponse{
		Name:    "cascade-simulator",
		Version: Version,
		Healthy: true,
	})
}

func (s *Server) handleImport(c *gin.Context) {
	var req wire.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "malformed import request: %v", err)
		return
	}
	if req.Path == "" {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "path is required")
		return
	}

	table, err := tabular.NewReader(req.Path).Read()
	if err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "import failed: %v", err)
		return
	}

	key := "frame_" + core.NewID().String()
	stored := &storedFrame{
		descriptor: descriptorFromColumns(key, table.Name, table.Rows, table.Columns),
		columns:    table.Columns,
	}
	s.store.putFrame(stored)
	c.JSON(http.StatusOK, stored.descriptor)
}

func (s *Server) handleUpload(c *gin.Context) {
	var req wire.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "malformed upload request: %v", err)
		return
	}
	if req.Name == "" {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "frame name is required")
		return
	}
	if len(req.Columns) == 0 {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "at least one column is required")
		return
	}

	cols, rows, err := columnsFromUpload(req.Columns)
	if err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "%v", err)
		return
	}

	key := "frame_" + core.NewID().String()
	stored := &storedFrame{
		descriptor: descriptorFromColumns(key, req.Name, rows, cols),
		columns:    cols,
	}
	s.store.putFrame(stored)
	c.JSON(http.StatusOK, stored.descriptor)
}

func (s *Server) handleGetFrame(c *gin.Context) {
	stored, ok := s.store.getFrame(c.Param("key"))
	if !ok {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "frame %s not found", c.Param("key"))
		return
	}
	c.JSON(http.StatusOK, stored.descriptor)
}

func (s *Server) handleColumnStat(c *gin.Context) {
	stored, ok := s.store.getFrame(c.Param("key"))
	if !ok {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "frame %s not found", c.Param("key"))
		return
	}

	col, ok := stored.column(c.Param("col"))
	if !ok {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "column %s not found in frame %s", c.Param("col"), c.Param("key"))
		return
	}

	stat, err := frame.ParseStat(c.Param("stat"))
	if err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "%v", err)
		return
	}

	if col.Type == frame.TypeCategorical {
		writeError(c, http.StatusBadRequest, wire.CategoryColumnType,
			"%s is not defined over categorical column %s", stat, col.Name)
		return
	}

	value, err := computeStat(stat, col.Values)
	if err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "%v", err)
		return
	}

	c.JSON(http.StatusOK, wire.StatResponse{
		Frame:  c.Param("key"),
		Column: col.Name,
		Stat:   stat.String(),
		Value:  value,
	})
}

func (s *Server) handleDeleteFrame(c *gin.Context) {
	if !s.store.deleteFrame(c.Param("key")) {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "frame %s not found", c.Param("key"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleTrainGBM(c *gin.Context) {
	var req wire.TrainGBMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "malformed train request: %v", err)
		return
	}
	if req.Response == "" {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "response column is required")
		return
	}
	// Cross-validation folds and a held-out validation frame are mutually
	// exclusive, exactly as on the real service.
	if req.NFolds >= 2 && req.ValidationFrame != "" {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters,
			"cannot specify both nfolds (%d) and a validation frame", req.NFolds)
		return
	}
	if req.ValidationFrame != "" {
		if _, ok := s.store.getFrame(req.ValidationFrame); !ok {
			writeError(c, http.StatusNotFound, wire.CategoryNotFound, "validation frame %s not found", req.ValidationFrame)
			return
		}
	}

	stored, features, response, ok := s.resolveTraining(c, req.Frame, req.Response, req.Features)
	if !ok {
		return
	}

	m, err := fitGBM(features, response, req)
	if err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "gbm: %v", err)
		return
	}

	m.descriptor.Key = "gbm_" + core.NewID().String()
	m.descriptor.Algo = "gbm"
	m.descriptor.Frame = stored.descriptor.Key
	s.store.putModel(m)
	c.JSON(http.StatusOK, m.descriptor)
}

func (s *Server) handleTrainGLM(c *gin.Context) {
	var req wire.TrainGLMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "malformed train request: %v", err)
		return
	}
	if req.Response == "" {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "response column is required")
		return
	}
	if req.Alpha < 0 || req.Alpha > 1 {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "alpha must be in [0, 1], got %g", req.Alpha)
		return
	}
	if req.Lambda < 0 {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "lambda must be non-negative, got %g", req.Lambda)
		return
	}
	switch wireFamily(req.Family) {
	case "binomial", "gaussian":
	default:
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "unsupported family %q", req.Family)
		return
	}

	stored, features, response, ok := s.resolveTraining(c, req.Frame, req.Response, req.Features)
	if !ok {
		return
	}

	m, err := fitGLM(features, response, req)
	if err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "glm: %v", err)
		return
	}

	m.descriptor.Key = "glm_" + core.NewID().String()
	m.descriptor.Algo = "glm"
	m.descriptor.Frame = stored.descriptor.Key
	s.store.putModel(m)
	c.JSON(http.StatusOK, m.descriptor)
}

// resolveTraining looks up the training frame and its response and feature
// columns, writing the error response itself on failure. Empty features
// default to every numeric column except the response.
func (s *Server) resolveTraining(c *gin.Context, frameKey, response string, featureNames []string) (*storedFrame, []tabular.Column, tabular.Column, bool) {
	stored, ok := s.store.getFrame(frameKey)
	if !ok {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "frame %s not found", frameKey)
		return nil, nil, tabular.Column{}, false
	}

	responseCol, ok := stored.column(response)
	if !ok {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters,
			"response column %s not found in frame %s", response, frameKey)
		return nil, nil, tabular.Column{}, false
	}

	if len(featureNames) == 0 {
		for _, col := range stored.columns {
			if col.Name != response && col.Type == frame.TypeNumeric {
				featureNames = append(featureNames, col.Name)
			}
		}
	}

	var features []tabular.Column
	for _, name := range featureNames {
		col, ok := stored.column(name)
		if !ok {
			writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters,
				"feature column %s not found in frame %s", name, frameKey)
			return nil, nil, tabular.Column{}, false
		}
		features = append(features, col)
	}
	if len(features) == 0 {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "no usable feature columns")
		return nil, nil, tabular.Column{}, false
	}

	return stored, features, responseCol, true
}

func (s *Server) handleGetModel(c *gin.Context) {
	m, ok := s.store.getModel(c.Param("key"))
	if !ok {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "model %s not found", c.Param("key"))
		return
	}
	c.JSON(http.StatusOK, m.descriptor)
}

func (s *Server) handlePredict(c *gin.Context) {
	m, ok := s.store.getModel(c.Param("key"))
	if !ok {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "model %s not found", c.Param("key"))
		return
	}

	var req wire.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, wire.CategoryInvalidParameters, "malformed predict request: %v", err)
		return
	}

	stored, ok := s.store.getFrame(req.Frame)
	if !ok {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "frame %s not found", req.Frame)
		return
	}

	preds, mean := s.scoreFrame(m, stored)

	predKey := "frame_" + core.NewID().String()
	predCol := tabular.Column{Name: "predict", Type: frame.TypeNumeric, Values: preds}
	predFrame := &storedFrame{
		descriptor: descriptorFromColumns(predKey, "predictions_"+m.descriptor.Key, len(preds), []tabular.Column{predCol}),
		columns:    []tabular.Column{predCol},
	}
	s.store.putFrame(predFrame)

	c.JSON(http.StatusOK, wire.PredictResponse{
		Frame:  predFrame.descriptor,
		Column: "predict",
		Mean:   mean,
	})
}

func (s *Server) scoreFrame(m *storedModel, stored *storedFrame) ([]float64, float64) {
	rows := stored.descriptor.Rows
	preds := make([]float64, rows)
	sum, count := 0.0, 0

	for i := 0; i < rows; i++ {
		row := make(map[string]float64, len(m.features))
		for _, name := range m.features {
			if col, ok := stored.column(name); ok && col.Values != nil && i < len(col.Values) {
				row[name] = col.Values[i]
			}
		}
		preds[i] = m.score(row)
		if !math.IsNaN(preds[i]) {
			sum += preds[i]
			count++
		}
	}
	mean := 0.0
	if count > 0 {
		mean = sum / float64(count)
	}
	return preds, mean
}

func (s *Server) handleDeleteModel(c *gin.Context) {
	if !s.store.deleteModel(c.Param("key")) {
		writeError(c, http.StatusNotFound, wire.CategoryNotFound, "model %s not found", c.Param("key"))
		return
	}
	c.Status(http.StatusNoContent)
}

// columnsFromUpload validates and converts uploaded columns, returning the
// row count shared by all of them.
func columnsFromUpload(cols []wire.UploadColumn) ([]tabular.Column, int, error) {
	out := make([]tabular.Column, 0, len(cols))
	rows := -1
	for _, col := range cols {
		if col.Name == "" {
			return nil, 0, fmt.Errorf("column name is required")
		}

		var converted tabular.Column
		var n int
		switch frame.ColumnType(col.Type) {
		case frame.TypeNumeric:
			converted = tabular.Column{Name: col.Name, Type: frame.TypeNumeric}
			for _, v := range col.Data {
				if v == nil {
					converted.Values = append(converted.Values, math.NaN())
					converted.Missing++
					continue
				}
				converted.Values = append(converted.Values, *v)
			}
			n = len(converted.Values)
		case frame.TypeCategorical:
			converted = tabular.Column{Name: col.Name, Type: frame.TypeCategorical, Labels: col.Labels}
			for _, l := range col.Labels {
				if l == "" {
					converted.Missing++
				}
			}
			n = len(converted.Labels)
		default:
			return nil, 0, fmt.Errorf("column %s has unknown type %q", col.Name, col.Type)
		}

		if rows == -1 {
			rows = n
		} else if n != rows {
			return nil, 0, fmt.Errorf("column %s has %d rows, expected %d", col.Name, n, rows)
		}
		out = append(out, converted)
	}
	return out, rows, nil
}
