package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/core/domain"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/pkg/logger"
	. "todolist/pkg/tracing"
)

type TodoHandler struct {
	svc       port.TodoService
	renderer  port.Renderer
	validator port.Validator
	Logger    *logger.Logger
}

func NewTodoHandler(svc port.TodoService, renderer port.Renderer, validator port.Validator, log *logger.Logger) *TodoHandler {
	if log == nil {
		log = logger.NewNop()
	}

	return &TodoHandler{
		svc:       svc,
		renderer:  renderer,
		validator: validator,
		Logger:    log,
	}
}

func (t *TodoHandler) List(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.List", []attribute.KeyValue{
		attribute.String("handler.operation", "List"),
	})
	defer span.End()

	entries, err := t.svc.List(ctx)

	if err != nil {
		AddSpanError(span, err)
		status := SendDomainError(c, err)
		t.Logger.ErrorWithTrace(ctx, "Failed to list todos", zap.Error(err), zap.Int("status", status))
		return
	}

	page, err := t.renderer.RenderList(ctx, entries)

	if err != nil {
		AddSpanError(span, err)
		status := SendDomainError(c, domain.RenderError(err))
		t.Logger.ErrorWithTrace(ctx, "Failed to render todos", zap.Error(err), zap.Int("status", status))
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(entries)))

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (t *TodoHandler) Add(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.Add", []attribute.KeyValue{
		attribute.String("handler.operation", "Add"),
	})
	defer span.End()

	var params request.AddTodoRequest

	if err := c.ShouldBindWith(&params, binding.Form); err != nil {
		SendBadRequestError(c, "request", "Invalid form body")
		return
	}

	if err := t.validator.ValidateStruct(params); err != nil {
		SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", t.validator.FormatValidationErrors(err))
		return
	}

	if err := t.svc.Add(ctx, *params.Text); err != nil {
		AddSpanError(span, err)
		status := SendDomainError(c, err)
		t.Logger.ErrorWithTrace(ctx, "Failed to add todo", zap.Error(err), zap.Int("status", status))
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (t *TodoHandler) Delete(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.Delete", []attribute.KeyValue{
		attribute.String("handler.operation", "Delete"),
	})
	defer span.End()

	var params request.DeleteTodoRequest

	if err := c.ShouldBindWith(&params, binding.Form); err != nil {
		SendBadRequestError(c, "request", "Invalid form body")
		return
	}

	if err := t.validator.ValidateStruct(params); err != nil {
		SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", t.validator.FormatValidationErrors(err))
		return
	}

	id, err := params.EntryID()

	if err != nil {
		SendDomainError(c, domain.ClientInputError(err))
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", id))

	if err := t.svc.Delete(ctx, id); err != nil {
		AddSpanError(span, err)
		status := SendDomainError(c, err)
		t.Logger.ErrorWithTrace(ctx, "Failed to delete todo", zap.Error(err), zap.Int64("id", id), zap.Int("status", status))
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// ApiList serves the same rows as List as JSON.
func (t *TodoHandler) ApiList(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.ApiList", []attribute.KeyValue{
		attribute.String("handler.operation", "ApiList"),
	})
	defer span.End()

	entries, err := t.svc.List(ctx)

	if err != nil {
		AddSpanError(span, err)
		status := SendDomainError(c, err)
		t.Logger.ErrorWithTrace(ctx, "Failed to list todos", zap.Error(err), zap.Int("status", status))
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponses(entries))
}
