package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/metrics"
	"github.com/interview-prep/judge/internal/scheduler"
	"github.com/interview-prep/judge/internal/stages/packager"
	"github.com/interview-prep/judge/internal/storage"
	"github.com/interview-prep/judge/pkg/constants"
	pkgErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/messages"
	"github.com/interview-prep/judge/pkg/solution"
)

const requestIDHeader = "X-Request-ID"

type Dependencies struct {
	Scheduler   scheduler.Scheduler
	Problems    storage.ProblemRepository
	Submissions storage.SubmissionStore
	Packager    packager.Packager
	Validator   *JWTValidator
	Metrics     *metrics.Metrics
}

type Server struct {
	router      *mux.Router
	scheduler   scheduler.Scheduler
	problems    storage.ProblemRepository
	submissions storage.SubmissionStore
	packager    packager.Packager
	validator   *JWTValidator
	metrics     *metrics.Metrics
	logger      *zap.SugaredLogger
}

func NewServer(deps Dependencies) *Server {
	s := &Server{
		scheduler:   deps.Scheduler,
		problems:    deps.Problems,
		submissions: deps.Submissions,
		packager:    deps.Packager,
		validator:   deps.Validator,
		metrics:     deps.Metrics,
		logger:      logger.NewNamedLogger("http"),
	}
	if s.validator == nil {
		s.validator = NewJWTValidator("")
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/workers", s.workers).Methods(http.MethodGet)

	r.HandleFunc("/problems", s.requireAdmin(s.uploadProblem)).Methods(http.MethodPost)
	r.HandleFunc("/problems/{id}", s.getProblem).Methods(http.MethodGet)
	r.HandleFunc("/problems/{id}/run", s.run).Methods(http.MethodPost)
	r.HandleFunc("/problems/{id}/submit", s.requireUser(s.submit)).Methods(http.MethodPost)
	r.HandleFunc("/submissions", s.requireUser(s.listSubmissions)).Methods(http.MethodGet)
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves addr until ctx is cancelled, then drains in-flight
// requests for at most constants.HTTPShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: constants.HTTPReadHeaderTimeout,
		IdleTimeout:       constants.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.HTTPShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type sourceBody struct {
	SourceCode string `json:"sourceCode"`
}

// publicProblem omits hidden test cases.
type publicProblem struct {
	ID                  string                      `json:"id"`
	Title               string                      `json:"title"`
	StarterCode         string                      `json:"starterCode"`
	VisibleTestCases    []solution.TestCase         `json:"visibleTestCases"`
	HiddenTestCaseCount int                         `json:"hiddenTestCaseCount"`
	AcceptanceCriteria  solution.AcceptanceCriteria `json:"acceptanceCriteria"`
	Submissions         int64                       `json:"submissions"`
	AcceptedSubmissions int64                       `json:"acceptedSubmissions"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) workers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.GetWorkersStatus())
}

func (s *Server) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := s.problems.GetProblem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeJudgeError(w, err, "")
		return
	}

	starter := problem.StarterCode
	if starter == "" {
		starter = constants.DefaultStarterCode
	}
	writeJSON(w, http.StatusOK, publicProblem{
		ID:                  problem.ID,
		Title:               problem.Title,
		StarterCode:         starter,
		VisibleTestCases:    problem.VisibleTestCases,
		HiddenTestCaseCount: len(problem.HiddenTestCases),
		AcceptanceCriteria:  problem.AcceptanceCriteria,
		Submissions:         problem.Submissions,
		AcceptedSubmissions: problem.AcceptedSubmissions,
	})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	msgID := requestID(r)
	body, ok := s.decodeSource(w, r)
	if !ok {
		return
	}

	resp, err := s.scheduler.Run(r.Context(), msgID, messages.RunRequest{
		ProblemID:  mux.Vars(r)["id"],
		SourceCode: body.SourceCode,
	})
	if err != nil {
		s.writeJudgeError(w, err, msgID)
		return
	}
	w.Header().Set(requestIDHeader, msgID)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	msgID := requestID(r)
	body, ok := s.decodeSource(w, r)
	if !ok {
		return
	}
	claims, _ := claimsFromContext(r.Context())

	resp, err := s.scheduler.Submit(r.Context(), msgID, messages.SubmitRequest{
		ProblemID:  mux.Vars(r)["id"],
		SourceCode: body.SourceCode,
		UserID:     claims.Sub,
	})
	if err != nil {
		s.writeJudgeError(w, err, msgID)
		return
	}
	w.Header().Set(requestIDHeader, msgID)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	query := r.URL.Query()

	limit := constants.DefaultSubmissionListLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, constants.MaxSubmissionListLimit)
	}

	records, err := s.submissions.ListSubmissions(r.Context(), claims.Sub, query.Get("problemId"), limit)
	if err != nil {
		s.writeJudgeError(w, err, "")
		return
	}
	if records == nil {
		records = []solution.SubmissionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// uploadProblem accepts a tar problem package and stores its descriptor.
func (s *Server) uploadProblem(w http.ResponseWriter, r *http.Request) {
	msgID := requestID(r)
	body := http.MaxBytesReader(w, r.Body, constants.MaxProblemPackageBytes)

	problem, err := s.packager.LoadArchive(body, msgID)
	if err != nil {
		s.writeJudgeError(w, err, msgID)
		return
	}
	if err := s.problems.SaveProblem(r.Context(), problem); err != nil {
		s.writeJudgeError(w, err, msgID)
		return
	}

	s.logger.Infof("Stored problem %s [MsgID: %s]", problem.ID, msgID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": problem.ID})
}

func (s *Server) decodeSource(w http.ResponseWriter, r *http.Request) (sourceBody, bool) {
	var body sourceBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxSourceBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return body, false
	}
	return body, true
}

// writeJudgeError maps infrastructure errors to status codes. Verdicts never
// reach this path, they are part of a 200 response.
func (s *Server) writeJudgeError(w http.ResponseWriter, err error, msgID string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pkgErr.ErrProblemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pkgErr.ErrFailedToGetFreeWorker),
		errors.Is(err, pkgErr.ErrToolchainUnavailable),
		errors.Is(err, pkgErr.ErrJudgeAborted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, pkgErr.ErrMissingUser):
		status = http.StatusUnauthorized
	case errors.Is(err, pkgErr.ErrInvalidProblemPackage),
		errors.Is(err, pkgErr.ErrUnknownAcceptanceCriteria):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		s.logger.Errorf("Request failed: %s [MsgID: %s]", err, msgID)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
