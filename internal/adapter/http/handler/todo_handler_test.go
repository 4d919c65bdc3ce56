package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	. "todolist/pkg/test"

	"todolist/internal/adapter/database/sqlite"
	"todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/adapter/http/validation"
	"todolist/internal/adapter/http/view"
	"todolist/internal/core/domain"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/telemetry"

	factory "todolist/pkg/test/factory"
)

type TodoHandlerSuite struct {
	suite.Suite
	DB       *sqlite.DB
	TodoRepo port.TodoRepository
	Router   *gin.Engine
}

var ctx = context.Background()

func (s *TodoHandlerSuite) SetupTest() {
	s.DB = InitTestDB(s.T())
	probe := telemetry.NewNoOpProbe()

	s.TodoRepo = repository.NewTodoRepository(s.DB, probe)

	todoHandler := NewTodoHandler(
		service.NewTodoService(s.TodoRepo, probe),
		view.NewTemplRenderer(),
		validation.NewStructValidator(),
		nil,
	)

	s.Router = setupTodoTestRouter(todoHandler, NewHealthHandler(s.DB, nil))
}

func TestTodoHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoHandlerSuite))
}

func setupTodoTestRouter(todoHandler *TodoHandler, healthHandler *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(gin.Recovery())

	router.GET("/", todoHandler.List)
	router.POST("/add", todoHandler.Add)
	router.POST("/delete", todoHandler.Delete)
	router.GET("/api/todos", todoHandler.ApiList)

	if healthHandler != nil {
		router.GET("/health", healthHandler.Health)
	}

	return router
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPage(router *gin.Engine) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/", nil)
	return serve(router, req)
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(router, req)
}

func decodeError(w *httptest.ResponseRecorder) response.ErrorResponse {
	var body response.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func (s *TodoHandlerSuite) TestListEmpty() {
	w := getPage(s.Router)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Header().Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
	Expect(w.Body.String()).To(ContainSubstring(`action="/add"`))
	Expect(w.Body.String()).ToNot(ContainSubstring(`action="/delete"`))
}

func (s *TodoHandlerSuite) TestBuyMilk() {
	w := postForm(s.Router, "/add", url.Values{"text": {"Buy milk"}})

	Expect(w.Code).To(Equal(http.StatusSeeOther))
	Expect(w.Header().Get("Location")).To(Equal("/"))

	w = getPage(s.Router)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(ContainSubstring("Buy milk"))
	Expect(w.Body.String()).To(ContainSubstring(`<input type="hidden" name="id" value="1">`))

	w = postForm(s.Router, "/delete", url.Values{"id": {"1"}})

	Expect(w.Code).To(Equal(http.StatusSeeOther))
	Expect(w.Header().Get("Location")).To(Equal("/"))

	w = getPage(s.Router)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).ToNot(ContainSubstring("Buy milk"))
	Expect(CountRows(s.T(), s.DB, "todo")).To(Equal(0))
}

func (s *TodoHandlerSuite) TestAddMissingText() {
	w := postForm(s.Router, "/add", url.Values{"other": {"x"}})

	Expect(w.Code).To(Equal(http.StatusBadRequest))

	body := decodeError(w)
	Expect(body.Error.Code).To(Equal("VALIDATION_ERROR"))
	Expect(body.Error.Errors).To(HaveLen(1))
	Expect(body.Error.Errors[0].Field).To(Equal("text"))

	Expect(CountRows(s.T(), s.DB, "todo")).To(Equal(0))
}

func (s *TodoHandlerSuite) TestAddEmptyText() {
	w := postForm(s.Router, "/add", url.Values{"text": {""}})

	Expect(w.Code).To(Equal(http.StatusSeeOther))

	entries, err := s.TodoRepo.List(ctx)
	Expect(err).To(BeNil())
	Expect(entries).To(HaveLen(1))
	Expect(entries[0].Text).To(Equal(""))
}

func (s *TodoHandlerSuite) TestAddEscapesMarkupOnList() {
	postForm(s.Router, "/add", url.Values{"text": {"<b>bold</b>"}})

	w := getPage(s.Router)

	Expect(w.Body.String()).To(ContainSubstring("&lt;b&gt;bold&lt;/b&gt;"))
	Expect(w.Body.String()).ToNot(ContainSubstring("<b>bold</b>"))
}

func (s *TodoHandlerSuite) TestDeleteMalformedLeavesStoreUnchanged() {
	entry := factory.NewTodo[domain.TodoEntry]()
	Expect(s.TodoRepo.Insert(ctx, entry.Text)).To(Succeed())

	forms := []url.Values{
		{},
		{"id": {""}},
		{"id": {"abc"}},
		{"id": {"1.5"}},
		{"id": {"1; DROP TABLE todo"}},
	}

	for _, form := range forms {
		w := postForm(s.Router, "/delete", form)

		Expect(w.Code).To(Equal(http.StatusBadRequest), "form %v", form)
		Expect(decodeError(w).Error.Code).To(Equal("VALIDATION_ERROR"))
	}

	entries, err := s.TodoRepo.List(ctx)
	Expect(err).To(BeNil())
	Expect(entries).To(HaveLen(1))
	Expect(entries[0].Text).To(Equal(entry.Text))
}

func (s *TodoHandlerSuite) TestDeleteUnknownIdIsIdempotent() {
	Expect(s.TodoRepo.Insert(ctx, "keep me")).To(Succeed())

	for i := 0; i < 2; i++ {
		w := postForm(s.Router, "/delete", url.Values{"id": {"999"}})

		Expect(w.Code).To(Equal(http.StatusSeeOther))
	}

	Expect(CountRows(s.T(), s.DB, "todo")).To(Equal(1))
}

func (s *TodoHandlerSuite) TestConcurrentAdds() {
	const n = 20

	var wg sync.WaitGroup
	codes := make([]int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			w := postForm(s.Router, "/add", url.Values{"text": {fmt.Sprintf("task %d", i)}})
			codes[i] = w.Code
		}(i)
	}

	wg.Wait()

	for _, code := range codes {
		Expect(code).To(Equal(http.StatusSeeOther))
	}

	entries, err := s.TodoRepo.List(ctx)
	Expect(err).To(BeNil())
	Expect(entries).To(HaveLen(n))

	ids := map[int64]bool{}
	for _, entry := range entries {
		ids[entry.ID] = true
	}

	Expect(ids).To(HaveLen(n))
}

func (s *TodoHandlerSuite) TestApiList() {
	Expect(s.TodoRepo.Insert(ctx, "first")).To(Succeed())
	Expect(s.TodoRepo.Insert(ctx, "second")).To(Succeed())

	req, _ := http.NewRequest("GET", "/api/todos", nil)
	w := serve(s.Router, req)

	Expect(w.Code).To(Equal(http.StatusOK))

	var body struct {
		Data []response.TodoResponse `json:"data"`
	}
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
	Expect(body.Data).To(Equal([]response.TodoResponse{
		{ID: 1, Text: "first"},
		{ID: 2, Text: "second"},
	}))
}

func (s *TodoHandlerSuite) TestApiListEmptyIsArray() {
	req, _ := http.NewRequest("GET", "/api/todos", nil)
	w := serve(s.Router, req)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(Equal(`{"data":[]}`))
}

func (s *TodoHandlerSuite) TestHealth() {
	req, _ := http.NewRequest("GET", "/health", nil)
	w := serve(s.Router, req)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(ContainSubstring(`"ok"`))
}

func (s *TodoHandlerSuite) TestListAfterPoolClosed() {
	s.DB.Close()

	w := getPage(s.Router)

	Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(decodeError(w).Error.Code).To(Equal("POOL_UNAVAILABLE"))

	req, _ := http.NewRequest("GET", "/health", nil)
	w = serve(s.Router, req)

	Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
}

type stubService struct {
	entries []domain.TodoEntry
	err     error
	calls   int
}

func (s *stubService) List(ctx context.Context) ([]domain.TodoEntry, error) {
	s.calls++
	return s.entries, s.err
}

func (s *stubService) Add(ctx context.Context, text string) error {
	s.calls++
	return s.err
}

func (s *stubService) Delete(ctx context.Context, id int64) error {
	s.calls++
	return s.err
}

type failingRenderer struct{}

func (failingRenderer) RenderList(ctx context.Context, entries []domain.TodoEntry) ([]byte, error) {
	return nil, errors.New("template exploded")
}

func newStubRouter(svc port.TodoService, renderer port.Renderer) *gin.Engine {
	return setupTodoTestRouter(NewTodoHandler(svc, renderer, validation.NewStructValidator(), nil), nil)
}

func TestTodoHandler_QueryErrorsAreInternal(t *testing.T) {
	RegisterTestingT(t)

	svc := &stubService{err: domain.QueryError("insert", errors.New("disk I/O error"))}
	router := newStubRouter(svc, view.NewTemplRenderer())

	Expect(getPage(router).Code).To(Equal(http.StatusInternalServerError))
	Expect(postForm(router, "/add", url.Values{"text": {"x"}}).Code).To(Equal(http.StatusInternalServerError))
	Expect(postForm(router, "/delete", url.Values{"id": {"1"}}).Code).To(Equal(http.StatusInternalServerError))
	Expect(svc.calls).To(Equal(3))
}

func TestTodoHandler_PoolErrorsAreUnavailable(t *testing.T) {
	RegisterTestingT(t)

	svc := &stubService{err: domain.PoolError(context.DeadlineExceeded)}
	router := newStubRouter(svc, view.NewTemplRenderer())

	w := postForm(router, "/add", url.Values{"text": {"x"}})

	Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(decodeError(w).Error.Code).To(Equal("POOL_UNAVAILABLE"))
}

func TestTodoHandler_RenderFailure(t *testing.T) {
	RegisterTestingT(t)

	svc := &stubService{entries: []domain.TodoEntry{{ID: 1, Text: "x"}}}
	router := newStubRouter(svc, failingRenderer{})

	w := getPage(router)

	Expect(w.Code).To(Equal(http.StatusInternalServerError))
	Expect(w.Body.String()).ToNot(ContainSubstring("<html"))
	Expect(decodeError(w).Error.Code).To(Equal("INTERNAL_ERROR"))
}

func TestTodoHandler_InvalidInputNeverReachesService(t *testing.T) {
	RegisterTestingT(t)

	svc := &stubService{}
	router := newStubRouter(svc, view.NewTemplRenderer())

	Expect(postForm(router, "/add", url.Values{}).Code).To(Equal(http.StatusBadRequest))
	Expect(postForm(router, "/delete", url.Values{"id": {"x"}}).Code).To(Equal(http.StatusBadRequest))
	Expect(svc.calls).To(Equal(0))
}
