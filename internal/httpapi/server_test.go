package httpapi_test

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/interview-prep/judge/internal/httpapi"
	"github.com/interview-prep/judge/internal/metrics"
	"github.com/interview-prep/judge/internal/stages/packager"
	"github.com/interview-prep/judge/internal/storage"
	"github.com/interview-prep/judge/pkg/constants"
	pkgErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/messages"
	"github.com/interview-prep/judge/pkg/solution"
	"github.com/interview-prep/judge/tests/mocks"
)

const secret = "test-secret"

type fixture struct {
	server      *httpapi.Server
	scheduler   *mocks.MockScheduler
	problems    storage.ProblemRepository
	submissions storage.SubmissionStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		scheduler: mocks.NewMockScheduler(ctrl),
		problems: storage.NewMemoryProblemRepository(solution.Problem{
			ID:                 "two-sum",
			Title:              "Two Sum",
			VisibleTestCases:   []solution.TestCase{{Input: "2 3", ExpectedOutputs: []string{"5"}}},
			HiddenTestCases:    []solution.TestCase{{Input: "secret input", ExpectedOutputs: []string{"secret output"}}},
			AcceptanceCriteria: solution.ExactMatch,
		}),
		submissions: storage.NewMemorySubmissionStore(),
	}
	f.server = httpapi.NewServer(httpapi.Dependencies{
		Scheduler:   f.scheduler,
		Problems:    f.problems,
		Submissions: f.submissions,
		Packager:    packager.NewPackager(t.TempDir()),
		Validator:   httpapi.NewJWTValidator(secret),
		Metrics:     metrics.New(),
	})
	return f
}

func token(t *testing.T, sub string, role int, expiresIn time.Duration) string {
	t.Helper()
	claims := httpapi.Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (f *fixture) do(method, path, bearer string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func sourceJSON(src string) []byte {
	b, _ := json.Marshal(map[string]string{"sourceCode": src})
	return b
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRun_ForwardsToScheduler(t *testing.T) {
	f := newFixture(t)
	allPassed := true
	f.scheduler.EXPECT().Run(gomock.Any(), gomock.Any(), messages.RunRequest{ProblemID: "two-sum", SourceCode: "int main(){}"}).
		Return(&messages.RunResponse{Success: true, AllPassed: &allPassed, Message: constants.JudgeMessageAllPassed}, nil)

	rec := f.do(http.MethodPost, "/problems/two-sum/run", "", sourceJSON("int main(){}"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	var resp messages.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, *resp.AllPassed)
}

func TestRun_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{pkgErr.ErrProblemNotFound, http.StatusNotFound},
		{pkgErr.ErrFailedToGetFreeWorker, http.StatusServiceUnavailable},
		{fmt.Errorf("compile: %w", pkgErr.ErrToolchainUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.scheduler.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

			rec := f.do(http.MethodPost, "/problems/two-sum/run", "", sourceJSON("x"))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRun_ServerErrorsHideDetails(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.New("pq: connection refused to 10.0.0.5:5432"), http.StatusInternalServerError},
		{fmt.Errorf("%w: /opt/gcc/bin/g++: permission denied", pkgErr.ErrToolchainUnavailable), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			f := newFixture(t)
			f.scheduler.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

			rec := f.do(http.MethodPost, "/problems/two-sum/run", "", sourceJSON("x"))
			assert.Equal(t, tc.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusText(tc.status), body["error"])
			assert.NotContains(t, rec.Body.String(), "pq:")
			assert.NotContains(t, rec.Body.String(), "/opt/gcc")
		})
	}
}

func TestRun_InvalidBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/problems/two-sum/run", "", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_RequiresToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/problems/two-sum/submit", "", sourceJSON("x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/problems/two-sum/submit", "garbage", sourceJSON("x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired := token(t, "alice", httpapi.RoleUser, -time.Minute)
	rec = f.do(http.MethodPost, "/problems/two-sum/submit", expired, sourceJSON("x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), httpapi.ErrExpiredToken.Error())
}

func TestSubmit_UsesTokenSubject(t *testing.T) {
	f := newFixture(t)
	passed, total := 1, 2
	f.scheduler.EXPECT().Submit(gomock.Any(), gomock.Any(), messages.SubmitRequest{
		ProblemID: "two-sum", SourceCode: "src", UserID: "alice",
	}).Return(&messages.SubmitResponse{
		Status:          solution.WrongAnswer,
		PassedTestCases: &passed,
		TotalTestCases:  &total,
		Message:         constants.JudgeMessageHiddenFailed,
	}, nil)

	rec := f.do(http.MethodPost, "/problems/two-sum/submit", token(t, "alice", httpapi.RoleUser, time.Hour), sourceJSON("src"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp messages.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, solution.WrongAnswer, resp.Status)
	assert.Nil(t, resp.TestCase)
}

func TestGetProblem_HidesHiddenCases(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/problems/two-sum", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 1, got["hiddenTestCaseCount"])
	assert.Equal(t, constants.DefaultStarterCode, got["starterCode"])

	rec = f.do(http.MethodGet, "/problems/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSubmissions_OnlyCallerRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, user := range []string{"alice", "bob", "alice"} {
		require.NoError(t, f.submissions.CreateSubmission(ctx, &solution.SubmissionRecord{
			ID: fmt.Sprintf("s%d", i), UserID: user, ProblemID: "two-sum",
			Status: solution.Accepted, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec := f.do(http.MethodGet, "/submissions?problemId=two-sum", token(t, "alice", httpapi.RoleUser, time.Hour), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []solution.SubmissionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "s2", records[0].ID)
	assert.Equal(t, "s0", records[1].ID)

	rec = f.do(http.MethodGet, "/submissions?limit=zero", token(t, "alice", httpapi.RoleUser, time.Hour), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/submissions", token(t, "carol", httpapi.RoleUser, time.Hour), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestWorkers(t *testing.T) {
	f := newFixture(t)
	f.scheduler.EXPECT().GetWorkersStatus().Return(messages.ResponseWorkerStatusPayload{
		BusyWorkers:  0,
		TotalWorkers: 1,
		WorkerStatus: []messages.WorkerStatus{{WorkerID: 0, Status: constants.WorkerStatusIdle}},
	})

	rec := f.do(http.MethodGet, "/workers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"idle"`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func problemArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestUploadProblem(t *testing.T) {
	f := newFixture(t)
	archive := problemArchive(t, map[string]string{
		"problem.json":          `{"id":"echo","title":"Echo"}`,
		"visible/inputs/1.in":   "hi",
		"visible/outputs/1.out": "hi",
	})

	rec := f.do(http.MethodPost, "/problems", token(t, "alice", httpapi.RoleUser, time.Hour), archive)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/problems", token(t, "admin", httpapi.RoleAdmin, time.Hour), archive)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"echo"}`, rec.Body.String())

	p, err := f.problems.GetProblem(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, "Echo", p.Title)

	bad := problemArchive(t, map[string]string{"problem.json": `{"id":"x"}`})
	rec = f.do(http.MethodPost, "/problems", token(t, "admin", httpapi.RoleAdmin, time.Hour), bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateToken_RejectsOtherAlgorithmsAndEmptySecret(t *testing.T) {
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, httpapi.Claims{Sub: "mallory"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = httpapi.NewJWTValidator(secret).ValidateToken(none)
	assert.ErrorIs(t, err, httpapi.ErrInvalidToken)

	_, err = httpapi.NewJWTValidator("").ValidateToken(token(t, "alice", httpapi.RoleUser, time.Hour))
	assert.ErrorIs(t, err, httpapi.ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, httpapi.Claims{})
	signed, err := noSub.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = httpapi.NewJWTValidator(secret).ValidateToken(signed)
	assert.ErrorIs(t, err, httpapi.ErrInvalidClaims)
}
