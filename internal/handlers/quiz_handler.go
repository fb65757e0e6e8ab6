package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/quiz-engine/internal/engine"
	"github.com/SAP-F-2025/quiz-engine/internal/export"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// QuizSession is the engine surface the HTTP adapter drives
type QuizSession interface {
	Load(ctx context.Context, src engine.Source) error
	Select(ctx context.Context, questionID, optionID models.ID) error
	Evaluate(ctx context.Context, questionID models.ID, silent bool) (engine.Evaluation, error)
	Advance(ctx context.Context) error
	Retreat(ctx context.Context) error
	GoTo(ctx context.Context, position int) error
	Finish(ctx context.Context) error
	Reset(ctx context.Context) error
	ToggleReview(ctx context.Context) (bool, error)
	Current() (engine.QuestionView, error)
	State() (engine.Snapshot, error)
	Summary() (engine.Summary, error)
}

// ===== REQUEST STRUCTURES =====

// LoadQuizRequest carries an inline document or a source reference. An empty request loads
// the configured default source.
type LoadQuizRequest struct {
	Source   string               `json:"source"`
	Document *models.QuizDocument `json:"document"`
}

type SelectOptionRequest struct {
	QuestionID models.ID `json:"question_id" validate:"required"`
	OptionID   models.ID `json:"option_id" validate:"required"`
}

type EvaluateRequest struct {
	QuestionID models.ID `json:"question_id" validate:"required"`
	Silent     bool      `json:"silent"`
}

type GoToRequest struct {
	Position *int `json:"position" validate:"required"`
}

// EvaluateResponse pairs a check result with the state after it
type EvaluateResponse struct {
	Evaluation engine.Evaluation `json:"evaluation"`
	State      engine.Snapshot   `json:"state"`
}

type QuizHandler struct {
	BaseHandler
	session       QuizSession
	validator     *validator.Validator
	defaultSource string
}

func NewQuizHandler(
	session QuizSession,
	validator *validator.Validator,
	logger utils.Logger,
	defaultSource string,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:   NewBaseHandler(logger),
		session:       session,
		validator:     validator,
		defaultSource: defaultSource,
	}
}

// Load loads a quiz document and restores saved progress
// @Summary Load quiz
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body LoadQuizRequest false "Document or source"
// @Success 200 {object} engine.Snapshot
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /quiz/load [post]
func (h *QuizHandler) Load(c *gin.Context) {
	var req LoadQuizRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	src := engine.RefSource(req.Source)
	switch {
	case req.Document != nil:
		src = engine.DocumentSource(req.Document)
	case req.Source == "":
		src = engine.RefSource(h.defaultSource)
	}

	if err := h.session.Load(c.Request.Context(), src); err != nil {
		h.handleEngineError(c, err)
		return
	}

	h.LogInfo(c, "Quiz loaded", "source", src.Ref)
	h.respondWithState(c)
}

// GetState returns the session state
// @Summary Get session state
// @Tags quiz
// @Produce json
// @Success 200 {object} engine.Snapshot
// @Failure 409 {object} ErrorResponse
// @Router /quiz [get]
func (h *QuizHandler) GetState(c *gin.Context) {
	h.respondWithState(c)
}

// GetCurrent returns the question at the current position
// @Summary Get current question
// @Tags quiz
// @Produce json
// @Success 200 {object} engine.QuestionView
// @Failure 409 {object} ErrorResponse
// @Router /quiz/current [get]
func (h *QuizHandler) GetCurrent(c *gin.Context) {
	view, err := h.session.Current()
	if err != nil {
		h.handleEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Select records an option choice
// @Summary Select option
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body SelectOptionRequest true "Selection"
// @Success 200 {object} engine.Snapshot
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quiz/select [post]
func (h *QuizHandler) Select(c *gin.Context) {
	var req SelectOptionRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	if err := h.session.Select(c.Request.Context(), req.QuestionID, req.OptionID); err != nil {
		h.handleEngineError(c, err)
		return
	}
	h.respondWithState(c)
}

// Evaluate checks the answer of a question
// @Summary Check answer
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body EvaluateRequest true "Question to check"
// @Success 200 {object} EvaluateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quiz/evaluate [post]
func (h *QuizHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	eval, err := h.session.Evaluate(c.Request.Context(), req.QuestionID, req.Silent)
	if err != nil {
		h.handleEngineError(c, err)
		return
	}
	state, err := h.session.State()
	if err != nil {
		h.handleEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, EvaluateResponse{Evaluation: eval, State: state})
}

func (h *QuizHandler) Advance(c *gin.Context) {
	h.mutate(c, h.session.Advance)
}

func (h *QuizHandler) Retreat(c *gin.Context) {
	h.mutate(c, h.session.Retreat)
}

// GoTo jumps to a position, clamped into range
// @Summary Jump to question
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body GoToRequest true "Position"
// @Success 200 {object} engine.Snapshot
// @Router /quiz/goto [post]
func (h *QuizHandler) GoTo(c *gin.Context) {
	var req GoToRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	h.mutate(c, func(ctx context.Context) error {
		return h.session.GoTo(ctx, *req.Position)
	})
}

func (h *QuizHandler) Finish(c *gin.Context) {
	h.mutate(c, h.session.Finish)
}

func (h *QuizHandler) Reset(c *gin.Context) {
	h.mutate(c, h.session.Reset)
}

// ToggleReview flips review mode
// @Summary Toggle review mode
// @Tags quiz
// @Produce json
// @Success 200 {object} engine.Snapshot
// @Router /quiz/review [post]
func (h *QuizHandler) ToggleReview(c *gin.Context) {
	h.mutate(c, func(ctx context.Context) error {
		_, err := h.session.ToggleReview(ctx)
		return err
	})
}

// GetSummary returns the completion summary
// @Summary Get summary
// @Tags quiz
// @Produce json
// @Success 200 {object} engine.Summary
// @Failure 409 {object} ErrorResponse
// @Router /quiz/summary [get]
func (h *QuizHandler) GetSummary(c *gin.Context) {
	summary, err := h.session.Summary()
	if err != nil {
		h.handleEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportSummary downloads the completion summary as an Excel workbook
// @Summary Export summary
// @Tags quiz
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 409 {object} ErrorResponse
// @Router /quiz/summary.xlsx [get]
func (h *QuizHandler) ExportSummary(c *gin.Context) {
	summary, err := h.session.Summary()
	if err != nil {
		h.handleEngineError(c, err)
		return
	}

	data, err := export.SummaryWorkbook(summary)
	if err != nil {
		h.handleEngineError(c, err)
		return
	}

	filename := "quiz-summary.xlsx"
	if summary.QuizID != "" {
		filename = fmt.Sprintf("quiz-summary-%s.xlsx", summary.QuizID)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *QuizHandler) mutate(c *gin.Context, op func(ctx context.Context) error) {
	if err := op(c.Request.Context()); err != nil {
		h.handleEngineError(c, err)
		return
	}
	h.respondWithState(c)
}

func (h *QuizHandler) respondWithState(c *gin.Context) {
	state, err := h.session.State()
	if err != nil {
		h.handleEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *QuizHandler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validator.ToValidationErrors(err),
		})
		return false
	}
	return true
}
