package packager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/storage"
	pkgErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/solution"
	"github.com/interview-prep/judge/utils"
)

// Package layout, relative to the package root:
//
//	problem.json            id, title, starterCode, acceptanceCriteria
//	visible/inputs/1.in     stdin of visible case 1
//	visible/outputs/1.out   expected output of visible case 1
//	visible/outputs/1.2.out second accepted answer of visible case 1
//	hidden/...              same layout for hidden cases
const (
	manifestFile  = "problem.json"
	visibleDir    = "visible"
	hiddenDir     = "hidden"
	inputsDir     = "inputs"
	outputsDir    = "outputs"
	inputFileExt  = ".in"
	outputFileExt = ".out"
)

type Packager interface {
	// LoadProblem reads an unpacked problem package.
	LoadProblem(dir string) (*solution.Problem, error)
	// LoadArchive unpacks a tar stream into a scratch directory and reads it.
	LoadArchive(r io.Reader, msgID string) (*solution.Problem, error)
	// SeedRepository saves every package found directly under root.
	SeedRepository(ctx context.Context, root string, repo storage.ProblemRepository) (int, error)
}

type manifest struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	StarterCode        string `json:"starterCode"`
	AcceptanceCriteria string `json:"acceptanceCriteria"`
}

type packager struct {
	workspaceDir string
	logger       *zap.SugaredLogger
}

func NewPackager(workspaceDir string) Packager {
	if workspaceDir == "" {
		workspaceDir = os.TempDir()
	}
	return &packager{
		workspaceDir: workspaceDir,
		logger:       logger.NewNamedLogger("packager"),
	}
}

func (p *packager) LoadProblem(dir string) (*solution.Problem, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgErr.ErrInvalidProblemPackage, err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgErr.ErrInvalidProblemPackage, manifestFile, err)
	}
	if m.ID == "" {
		m.ID = filepath.Base(dir)
	}

	criteria, err := solution.ParseAcceptanceCriteria(m.AcceptanceCriteria)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", m.ID, err)
	}

	visible, err := p.readTestCases(filepath.Join(dir, visibleDir))
	if err != nil {
		return nil, fmt.Errorf("problem %s visible cases: %w", m.ID, err)
	}
	hidden, err := p.readTestCases(filepath.Join(dir, hiddenDir))
	if err != nil {
		return nil, fmt.Errorf("problem %s hidden cases: %w", m.ID, err)
	}
	if len(visible)+len(hidden) == 0 {
		return nil, fmt.Errorf("%w: problem %s has no test cases", pkgErr.ErrInvalidProblemPackage, m.ID)
	}

	return &solution.Problem{
		ID:                 m.ID,
		Title:              m.Title,
		StarterCode:        m.StarterCode,
		VisibleTestCases:   visible,
		HiddenTestCases:    hidden,
		AcceptanceCriteria: criteria,
	}, nil
}

func (p *packager) LoadArchive(r io.Reader, msgID string) (*solution.Problem, error) {
	scratch, err := os.MkdirTemp(p.workspaceDir, "package-")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := utils.RemoveIO(scratch, true, false); err != nil {
			p.logger.Warnf("Failed to remove %s: %s [MsgID: %s]", scratch, err, msgID)
		}
	}()

	if err := utils.ExtractTarArchive(r, scratch); err != nil {
		return nil, fmt.Errorf("%w: %v", pkgErr.ErrInvalidProblemPackage, err)
	}

	p.logger.Infof("Extracted problem package into %s [MsgID: %s]", scratch, msgID)
	return p.LoadProblem(scratch)
}

func (p *packager) SeedRepository(ctx context.Context, root string, repo storage.ProblemRepository) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}

	var (
		loaded int
		errs   []error
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		problem, err := p.LoadProblem(filepath.Join(root, entry.Name()))
		if err != nil {
			p.logger.Errorf("Skipping package %s: %s", entry.Name(), err)
			errs = append(errs, err)
			continue
		}
		if err := repo.SaveProblem(ctx, problem); err != nil {
			return loaded, err
		}
		p.logger.Infof("Loaded problem %s (%d visible, %d hidden)",
			problem.ID, len(problem.VisibleTestCases), len(problem.HiddenTestCases))
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// readTestCases pairs N.in with N.out and any N.<k>.out alternatives. A
// missing case directory means the package has no cases of that kind.
func (p *packager) readTestCases(caseDir string) ([]solution.TestCase, error) {
	inputs, err := os.ReadDir(filepath.Join(caseDir, inputsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	type numbered struct {
		order int
		tc    solution.TestCase
	}
	var cases []numbered
	for _, in := range inputs {
		name := in.Name()
		if in.IsDir() || !strings.HasSuffix(name, inputFileExt) {
			continue
		}
		stem := strings.TrimSuffix(name, inputFileExt)
		order, err := strconv.Atoi(stem)
		if err != nil {
			return nil, fmt.Errorf("%w: input %s is not numbered", pkgErr.ErrInvalidProblemPackage, name)
		}

		input, err := os.ReadFile(filepath.Join(caseDir, inputsDir, name))
		if err != nil {
			return nil, err
		}
		expected, err := readExpectedOutputs(filepath.Join(caseDir, outputsDir), stem)
		if err != nil {
			return nil, err
		}
		cases = append(cases, numbered{order: order, tc: solution.TestCase{
			Input:           strings.TrimRight(string(input), "\r\n"),
			ExpectedOutputs: expected,
		}})
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].order < cases[j].order })
	result := make([]solution.TestCase, len(cases))
	for i, c := range cases {
		result[i] = c.tc
	}
	return result, nil
}

func readExpectedOutputs(outputDir, stem string) ([]string, error) {
	primary, err := os.ReadFile(filepath.Join(outputDir, stem+outputFileExt))
	if err != nil {
		return nil, fmt.Errorf("%w: missing output for case %s", pkgErr.ErrInvalidProblemPackage, stem)
	}
	expected := []string{strings.TrimSpace(string(primary))}

	alternatives, err := filepath.Glob(filepath.Join(outputDir, stem+".*"+outputFileExt))
	if err != nil {
		return nil, err
	}
	sort.Slice(alternatives, func(i, j int) bool {
		return alternativeIndex(alternatives[i]) < alternativeIndex(alternatives[j])
	})
	for _, alt := range alternatives {
		data, err := os.ReadFile(alt)
		if err != nil {
			return nil, err
		}
		expected = append(expected, strings.TrimSpace(string(data)))
	}
	return expected, nil
}

func alternativeIndex(path string) int {
	parts := strings.Split(strings.TrimSuffix(filepath.Base(path), outputFileExt), ".")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return n
}
