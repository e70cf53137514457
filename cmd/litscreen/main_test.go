package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/litscreen"
	"github.com/poiesic/litscreen/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type testCLI struct {
	t      *testing.T
	db     string
	oracle *mock.MockOracle
}

func newTestCLI(t *testing.T, replies ...string) *testCLI {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return &testCLI{
		t:      t,
		db:     filepath.Join(t.TempDir(), "corpus"),
		oracle: mock.NewMockOracle(replies...),
	}
}

func (tc *testCLI) run(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp(litscreen.WithProvider(mock.NewMockProviderWithServices(nil, tc.oracle)))
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.RunContext(context.Background(), append([]string{"litscreen", "--db", tc.db, "--log-level", "error"}, args...))
	return out.String(), err
}

func (tc *testCLI) mustRun(args ...string) string {
	out, err := tc.run(args...)
	require.NoError(tc.t, err)
	return out
}

func TestInvalidLogLevel(t *testing.T) {
	tc := newTestCLI(t)
	_, err := tc.run("--log-level", "loud", "status")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestAddAndStatus(t *testing.T) {
	tc := newTestCLI(t)

	_, err := tc.run("add")
	assert.Error(t, err, "title is required")

	out := tc.mustRun("add", "--title", "Prostate Cancer Screening Guidelines", "--abstract", "PSA screening", "--source", "PubMed")
	assert.Contains(t, out, "added")
	assert.Contains(t, out, "pending")

	out = tc.mustRun("status")
	assert.Contains(t, out, "Documents: 1")
	assert.Regexp(t, `pending\s+1`, out)
}

func TestEmbedAndReset(t *testing.T) {
	tc := newTestCLI(t)
	tc.mustRun("add", "--title", "With abstract", "--abstract", "prostate cancer screening")
	tc.mustRun("add", "--title", "Without abstract")

	out := tc.mustRun("embed")
	assert.Contains(t, out, "1 embedded, 1 failed")

	out = tc.mustRun("embed")
	assert.Contains(t, out, "No pending documents")

	_, err := tc.run("reset")
	assert.Error(t, err)
	_, err = tc.run("reset", "--failed", "--all")
	assert.Error(t, err)

	out = tc.mustRun("reset", "--failed")
	assert.Contains(t, out, "Reset 1 documents")
	out = tc.mustRun("status")
	assert.Regexp(t, `pending\s+1`, out)
	assert.Regexp(t, `completed\s+1`, out)
}

func TestSearch(t *testing.T) {
	tc := newTestCLI(t, `{"result": {"initial_query": "psa", "refined_query": "prostate cancer screening",
		"key_concepts": ["PSA", "screening"], "refinement_reason": "expanded"}}`)
	tc.mustRun("add", "--title", "Prostate Cancer Screening Guidelines", "--theme", "Screening")
	tc.mustRun("add", "--title", "Online learning in nursing", "--theme", "Education")

	out := tc.mustRun("search", "--mode", "lexical", "psa")
	assert.Contains(t, out, "Refined query: prostate cancer screening")
	assert.Contains(t, out, "Key concepts: PSA, screening")
	assert.Contains(t, out, "Prostate Cancer Screening Guidelines")
	assert.NotContains(t, out, "Online learning in nursing")

	out = tc.mustRun("search", "--raw", "online learning")
	assert.NotContains(t, out, "Refined query")
	assert.Contains(t, out, "Online learning in nursing")
	assert.Equal(t, 1, tc.oracle.CallCount(), "raw search skips refinement")

	_, err := tc.run("search", "--mode", "fuzzy", "x")
	assert.Error(t, err)
	_, err = tc.run("search")
	assert.Error(t, err)
}

func TestClassifyAndPatterns(t *testing.T) {
	tc := newTestCLI(t,
		`{"classification": "EXCLUDE: Treatment/ management/ diagnosis", "keywords": ["radiotherapy"], "reason": "treatment"}`,
		`{"classification": "INCLUDE", "keywords": [], "reason": "screening"}`,
		`{"exclusion_patterns": [{"pattern": "Treatment focus", "keywords": ["radiotherapy"], "evidence": "a.txt"}], "inclusion_patterns": []}`,
	)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("radiotherapy trial"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("PSA screening"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.pdf"), []byte("%PDF"), 0644))

	_, err := tc.run("classify", "--dir", dir)
	assert.Error(t, err, "mode is required")
	_, err = tc.run("classify", "--mode", "both", "--dir", dir)
	assert.Error(t, err)

	out := tc.mustRun("classify", "--mode", "exclusion", "--dir", dir)
	assert.Contains(t, out, "a.txt: EXCLUDE: Treatment/ management/ diagnosis")
	assert.Contains(t, out, "b.md: INCLUDE")
	assert.NotContains(t, out, "c.pdf")

	out = tc.mustRun("patterns")
	assert.Contains(t, out, "Treatment focus")
	assert.Contains(t, out, "keywords: radiotherapy")
}

func TestTextFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.TXT", "a.md", "c.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))

	files, err := textFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.TXT")}, files)
}
