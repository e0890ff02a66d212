package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBatch = `postings:
  - name: NYCBrokerHousingSample1
    required: &required
      title: 1 Br Charmer in Chelsea
      description: posting body goes here
      category: fee
      area: atl
      reply_email:
        value: bulkuser@bulkposterz.net
        privacy: P
        outside_contact_ok: 1
  - name: NYCBrokerHousingSample2
    required: *required
`

const duplicateBatch = `postings:
  - name: twin
    required: &required
      title: 1 Br Charmer in Chelsea
      description: posting body goes here
      category: fee
      area: atl
      reply_email:
        value: bulkuser@bulkposterz.net
        privacy: P
        outside_contact_ok: 1
  - name: twin
    required: *required
`

// remote fakes both endpoints with the recorded sample responses.
type remote struct {
	server   *httptest.Server
	validate atomic.Int32
	post     atomic.Int32
}

func newRemote(t *testing.T) *remote {
	t.Helper()
	validation := readResponse(t, "validation_response.xml")
	posting := readResponse(t, "posting_response.xml")

	r := &remote{}
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", func(w http.ResponseWriter, req *http.Request) {
		r.validate.Add(1)
		w.Write(validation)
	})
	mux.HandleFunc("/post", func(w http.ResponseWriter, req *http.Request) {
		r.post.Add(1)
		w.Write(posting)
	})
	r.server = httptest.NewServer(mux)
	t.Cleanup(r.server.Close)
	return r
}

func readResponse(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "internal", "xmlreader", "testdata", name))
	require.NoError(t, err)
	return data
}

// workspace holds a config file pointing at serverURL and an output dir.
type workspace struct {
	dir       string
	config    string
	outputDir string
}

func newWorkspace(t *testing.T, serverURL string) workspace {
	t.Helper()
	if serverURL == "" {
		serverURL = "http://127.0.0.1:1"
	}

	dir := t.TempDir()
	ws := workspace{
		dir:       dir,
		config:    filepath.Join(dir, "config.yaml"),
		outputDir: filepath.Join(dir, "output"),
	}

	content := "endpoints:\n" +
		"  validate: " + serverURL + "/validate\n" +
		"  post: " + serverURL + "/post\n" +
		"account:\n" +
		"  username: bulkuser@bulkposterz.net\n" +
		"  account_id: \"14\"\n" +
		"  password: secret\n" +
		"log_level: error\n" +
		"output_dir: " + ws.outputDir + "\n"
	require.NoError(t, os.WriteFile(ws.config, []byte(content), 0o644))

	return ws
}

func (ws workspace) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(ws.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (ws workspace) outputs(t *testing.T, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(ws.outputDir, pattern))
	require.NoError(t, err)
	return matches
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose, metricsFile = "", false, ""
	noErrorLog, dryRun = false, false
	renderOut, renderWithPassword = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	ws := newWorkspace(t, "")
	valid := ws.write(t, "valid.yaml", validBatch)
	invalid := filepath.Join("..", "internal", "loader", "testdata", "batch.json")

	out, err := execute(t, "validate", "--config", ws.config, valid, invalid)
	require.Error(t, err)

	assert.Contains(t, out, "✓ valid.yaml: 2 posting(s) valid")
	assert.Contains(t, out, "✗ batch.json")
	assert.Contains(t, out, "Unknown element: 'aaa'")
	assert.Contains(t, out, "Invalid:         1")
	assert.Len(t, ws.outputs(t, "batch_errors_*.txt"), 1)
	assert.Empty(t, ws.outputs(t, "valid_errors_*.txt"))
}

func TestValidateCommandReportsLoadFailures(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := execute(t, "validate", "--config", ws.config, "--no-error-log", filepath.Join(ws.dir, "absent.json"))
	require.Error(t, err)
	assert.Contains(t, out, "failed to load")
	assert.Empty(t, ws.outputs(t, "*"))
}

func TestValidateCommandSucceeds(t *testing.T) {
	ws := newWorkspace(t, "")
	valid := ws.write(t, "valid.yaml", validBatch)
	metrics := filepath.Join(ws.dir, "metrics.prom")

	out, err := execute(t, "validate", "--config", ws.config, "--metrics-file", metrics, valid)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid:           1")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bulkposter_postings_validated_total")
}

func TestRenderCommand(t *testing.T) {
	ws := newWorkspace(t, "")
	batch := ws.write(t, "valid.yaml", validBatch)
	target := filepath.Join(ws.dir, "doc.xml")

	_, err := execute(t, "render", "--config", ws.config, "--out", target, batch)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, `rdf:about="NYCBrokerHousingSample1"`)
	assert.Contains(t, doc, `username="bulkuser@bulkposterz.net"`)
	assert.NotContains(t, doc, "secret")

	out, err := execute(t, "render", "--config", ws.config, "--with-password", batch)
	require.NoError(t, err)
	assert.Contains(t, out, `password="secret"`)
}

func TestCheckCommand(t *testing.T) {
	r := newRemote(t)
	ws := newWorkspace(t, r.server.URL)
	batch := ws.write(t, "housing.yaml", validBatch)

	out, err := execute(t, "check", "--config", ws.config, batch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), r.validate.Load())
	assert.Equal(t, int32(0), r.post.Load())
	assert.Contains(t, out, "NYCBrokerHousingSample1: [0] Validated")
	assert.Len(t, ws.outputs(t, "housing_validate_summary_*.txt"), 1)
}

func TestPostCommand(t *testing.T) {
	r := newRemote(t)
	ws := newWorkspace(t, r.server.URL)
	batch := ws.write(t, "housing.yaml", validBatch)

	out, err := execute(t, "post", "--config", ws.config, batch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), r.validate.Load())
	assert.Equal(t, int32(1), r.post.Load())
	assert.Contains(t, out, "NYCBrokerHousingSample1: [0] Posted")
	assert.Contains(t, out, "posting id: 1234567891")

	archived := ws.outputs(t, "housing_post_*.xml")
	require.Len(t, archived, 1)
	data, err := os.ReadFile(archived[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `rdf:about="NYCBrokerHousingSample2"`)

	assert.Len(t, ws.outputs(t, "housing_post_summary_*.txt"), 1)
	assert.Empty(t, ws.outputs(t, "housing_errors_*.txt"))
}

func TestPostCommandDryRun(t *testing.T) {
	r := newRemote(t)
	ws := newWorkspace(t, r.server.URL)
	batch := ws.write(t, "housing.yaml", validBatch)

	_, err := execute(t, "post", "--config", ws.config, "--dry-run", batch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), r.validate.Load())
	assert.Equal(t, int32(0), r.post.Load())
	assert.Empty(t, ws.outputs(t, "housing_post_*.xml"))
}

func TestPostCommandStopsOnLocalErrors(t *testing.T) {
	r := newRemote(t)
	ws := newWorkspace(t, r.server.URL)
	batch := ws.write(t, "twins.yaml", duplicateBatch)

	out, err := execute(t, "post", "--config", ws.config, batch)
	require.Error(t, err)

	assert.Equal(t, int32(0), r.validate.Load())
	assert.Equal(t, int32(0), r.post.Load())
	assert.Contains(t, out, "Invalid non-unique postings: 'twin'")
	assert.Len(t, ws.outputs(t, "twins_errors_*.txt"), 1)
}

func TestPostCommandStopsOnRemoteValidationFailure(t *testing.T) {
	var posted atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/post" {
			posted.Add(1)
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("bad credentials"))
	}))
	t.Cleanup(server.Close)

	ws := newWorkspace(t, server.URL)
	batch := ws.write(t, "housing.yaml", validBatch)

	out, err := execute(t, "post", "--config", ws.config, batch)
	require.Error(t, err)

	assert.Equal(t, int32(0), posted.Load())
	assert.Contains(t, out, "Validation/Submission failed (Forbidden): 'bad credentials'")
}

func TestPostCommandRespectsLock(t *testing.T) {
	r := newRemote(t)
	ws := newWorkspace(t, r.server.URL)
	batch := ws.write(t, "housing.yaml", validBatch)

	require.NoError(t, os.MkdirAll(ws.outputDir, 0o755))
	held := flock.New(filepath.Join(ws.outputDir, ".bulkposter.lock"))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	_, err = execute(t, "post", "--config", ws.config, batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another post run")
	assert.Equal(t, int32(0), r.validate.Load())
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    "+Version)
}
