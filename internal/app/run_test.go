package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildweld/fetchgraph/internal/fetch"
)

var testSHA = strings.Repeat("ab", 32)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func runBatch(t *testing.T, cfg Config) ([]*fetch.TaskRecord, *App, error) {
	t.Helper()

	cfg.LogLevel = "error"
	conf, err := NewConfig(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	a, err := NewApp(&out, io.Discard, conf)
	require.NoError(t, err)

	runErr := a.Run(context.Background(), conf)
	if runErr != nil || conf.OutPath != "" {
		return nil, a, runErr
	}

	var tasks []*fetch.TaskRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &tasks))
	return tasks, a, nil
}

func TestRun_StaticJob(t *testing.T) {
	t.Parallel()

	jobs := t.TempDir()
	writeFile(t, jobs, "zlib.hcl", `
fetch "zlib" {
  description = "zlib source archive"
  static_url {
    url    = "https://example.org/zlib-1.2.tar.zst"
    sha256 = "`+testSHA+`"
    size   = 123456
  }
}
`)

	tasks, a, err := runBatch(t, Config{JobsPath: jobs, Level: "3"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "fetch-zlib", task.Label)
	assert.Equal(t, fetch.ExpiresPermanent, task.ExpiresAfter)
	assert.Equal(t, "https://example.org/zlib-1.2.tar.zst", task.Command[len(task.Command)-2])
	assert.Equal(t, "/builds/worker/artifacts/zlib-1.2.tar.zst", task.Command[len(task.Command)-1])

	require.NotNil(t, task.Cache)
	assert.Equal(t, []string{testSHA, "123456", "zlib-1.2.tar.zst"}, task.Cache.Digest)

	regs := a.Optimizer().Registrations()
	require.Len(t, regs, 1)
	assert.Equal(t, "zlib", regs[0].Name)
}

func TestRun_ManifestExpansion(t *testing.T) {
	t.Parallel()

	jobs := t.TempDir()
	writeFile(t, jobs, "template.hcl", `
fetch "sources" {
  description = "expanded from the signing manifest"
  static_url {}
}
`)

	manifests := t.TempDir()
	writeFile(t, manifests, "manifests.hcl", `
manifest {
  url      = "https://example.org/a.tar.zst"
  sha256   = "`+strings.Repeat("aa", 32)+`"
  filesize = 1
}

manifest {
  url      = "https://example.org/b.tar.zst"
  sha256   = "`+strings.Repeat("bb", 32)+`"
  filesize = 2
}
`)

	tasks, _, err := runBatch(t, Config{JobsPath: jobs, ManifestsPath: manifests})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "a.tar.zst", filepath.Base(tasks[0].Command[len(tasks[0].Command)-1]))
	assert.Equal(t, "b.tar.zst", filepath.Base(tasks[1].Command[len(tasks[1].Command)-1]))
}

func TestRun_GPGKeyFromStore(t *testing.T) {
	t.Parallel()

	keys := t.TempDir()
	writeFile(t, keys, "release.pub", "PUBLIC KEY")

	jobs := t.TempDir()
	writeFile(t, jobs, "signed.hcl", `
fetch "signed" {
  description = "signed archive"
  static_url {
    url    = "https://example.org/signed.tar.zst"
    sha256 = "`+testSHA+`"
    size   = 1

    gpg_signature {
      sig_url  = "{url}.asc"
      key_path = "release.pub"
    }
  }
}
`)

	tasks, _, err := runBatch(t, Config{JobsPath: jobs, KeysPath: keys})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "PUBLIC KEY", tasks[0].Env["FETCH_GPG_KEY"])
	assert.Contains(t, tasks[0].Command, "--gpg-sig-url")
	assert.Contains(t, tasks[0].Command, "https://example.org/signed.tar.zst.asc")
}

func TestRun_SigningRoutesAtTrustedLevel(t *testing.T) {
	t.Parallel()

	jobs := t.TempDir()
	writeFile(t, jobs, "template.hcl", `
fetch "sources" {
  description = "expanded from the signing manifest"
  static_url {}
}
`)

	manifests := t.TempDir()
	writeFile(t, manifests, "manifests.hcl", `
manifest {
  name     = "zlib"
  url      = "https://example.org/zlib-1.2.tar.zst"
  sha256   = "`+testSHA+`"
  filesize = 123456
}
`)

	cfg := Config{
		JobsPath:      jobs,
		ManifestsPath: manifests,
		Level:         "3",
		TrustDomain:   "adhoc",
		Project:       "signing",
		BuildDate:     time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	}
	tasks, _, err := runBatch(t, cfg)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{
		"index.adhoc.v2.signing.zlib.2024.03.07.latest",
		"index.adhoc.v2.signing.zlib.latest",
	}, tasks[0].Routes)

	cfg.Level = "1"
	tasks, _, err = runBatch(t, cfg)
	require.NoError(t, err)
	assert.Empty(t, tasks[0].Routes)
}

func TestRun_StaticJobGetsNoSigningRoutes(t *testing.T) {
	t.Parallel()

	// A job declared with a literal url never came from the signing
	// manifest, so even a fully trusted build must not put it on the
	// signing index.
	jobs := t.TempDir()
	writeFile(t, jobs, "zlib.hcl", `
fetch "zlib" {
  description = "zlib source archive"
  static_url {
    url    = "https://example.org/zlib-1.2.tar.zst"
    sha256 = "`+testSHA+`"
    size   = 123456
  }
}
`)

	tasks, _, err := runBatch(t, Config{
		JobsPath:    jobs,
		Level:       "3",
		TrustDomain: "adhoc",
		Project:     "signing",
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Empty(t, tasks[0].Routes)
}

func TestRun_FastModeSkipsOptimizer(t *testing.T) {
	t.Parallel()

	jobs := t.TempDir()
	writeFile(t, jobs, "zlib.hcl", `
fetch "zlib" {
  description = "zlib source archive"
  static_url {
    url    = "https://example.org/zlib-1.2.tar.zst"
    sha256 = "`+testSHA+`"
    size   = 123456
  }
}
`)

	tasks, a, err := runBatch(t, Config{JobsPath: jobs, Fast: true})
	require.NoError(t, err)
	assert.Nil(t, tasks[0].Cache)
	assert.Empty(t, a.Optimizer().Registrations())
}

func TestRun_FailingJobDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	jobs := t.TempDir()
	writeFile(t, jobs, "a_bad.hcl", `
fetch "bad" {
  description = "missing everything"
  static_url {
    url = "https://example.org/bad.zip"
  }
}
`)
	writeFile(t, jobs, "b_good.hcl", `
fetch "good" {
  description = "fine"
  static_url {
    url    = "https://example.org/good.tar.zst"
    sha256 = "`+testSHA+`"
    size   = 1
  }
}
`)

	_, _, err := runBatch(t, Config{JobsPath: jobs})
	require.Error(t, err)

	// Both jobs were attempted; only the broken one failed.
	assert.Contains(t, err.Error(), "1 of 2 jobs failed")
	assert.Contains(t, err.Error(), `job "bad"`)
	assert.NotContains(t, err.Error(), `job "good"`)
}

func TestRun_EmitsToFile(t *testing.T) {
	t.Parallel()

	jobs := t.TempDir()
	writeFile(t, jobs, "zlib.hcl", `
fetch "zlib" {
  description = "zlib source archive"
  static_url {
    url    = "https://example.org/zlib-1.2.tar.zst"
    sha256 = "`+testSHA+`"
    size   = 123456
  }
}
`)

	outPath := filepath.Join(t.TempDir(), "tasks.json")
	_, _, err := runBatch(t, Config{JobsPath: jobs, OutPath: outPath})
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var tasks []*fetch.TaskRecord
	require.NoError(t, json.Unmarshal(data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "fetch-zlib", tasks[0].Label)
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	require.Error(t, err)

	_, err = NewConfig(Config{JobsPath: "jobs", Level: "9"})
	require.Error(t, err)

	cfg, err := NewConfig(Config{JobsPath: "jobs"})
	require.NoError(t, err)
	assert.Equal(t, "1", cfg.Level)
	assert.Equal(t, "fetch", cfg.Kind)
	assert.Equal(t, ".", cfg.KeysPath)
	assert.False(t, cfg.BuildDate.IsZero())
}
