package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildweld/fetchgraph/internal/optimizer"
)

func compiled(t *testing.T) *CompiledCommand {
	t.Helper()
	cmd, err := NewCompiler(fakeKeys{}).Compile(descriptor())
	require.NoError(t, err)
	return cmd
}

func TestAssemble_TrustedLevelKeepsArtifactsForever(t *testing.T) {
	t.Parallel()

	task := NewAssembler(optimizer.NewRecorder()).
		Assemble(descriptor(), compiled(t), Params{Level: "3", Kind: "fetch"})

	assert.Equal(t, ExpiresPermanent, task.ExpiresAfter)
}

func TestAssemble_LowerLevelsExpire(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"1", "2"} {
		task := NewAssembler(optimizer.NewRecorder()).
			Assemble(descriptor(), compiled(t), Params{Level: level, Kind: "fetch"})
		assert.Equal(t, ExpiresBounded, task.ExpiresAfter, "level %s", level)
	}
}

func TestAssemble_Envelope(t *testing.T) {
	t.Parallel()

	rec := optimizer.NewRecorder()
	cmd := compiled(t)
	task := NewAssembler(rec).Assemble(descriptor(), cmd, Params{Level: "1", Kind: "fetch"})

	assert.Equal(t, "fetch-zlib", task.Label)
	assert.Equal(t, "zlib", task.Name)
	assert.Equal(t, "zlib source archive", task.Description)
	assert.Equal(t, cmd.Args, task.Command)
	assert.Empty(t, task.RunOnProjects)

	assert.True(t, task.Worker.ChainOfTrust)
	assert.Equal(t, "fetch", task.Worker.DockerImage)
	assert.Equal(t, 900, task.Worker.MaxRunTime)

	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, Artifact{
		Type: "directory",
		Name: "adhoc",
		Path: "/builds/worker/artifacts",
	}, task.Artifacts[0])

	assert.Equal(t, "releng/adhoc/zlib-1.2.tar.zst", task.Attributes["fetch-artifact"])
}

func TestAssemble_CacheRegistration(t *testing.T) {
	t.Parallel()

	rec := optimizer.NewRecorder()
	cmd := compiled(t)
	task := NewAssembler(rec).Assemble(descriptor(), cmd, Params{Level: "3", Kind: "fetch"})

	require.NotNil(t, task.Cache)
	assert.Equal(t, CacheType, task.Cache.Type)
	// Cache name is the label minus the kind prefix.
	assert.Equal(t, "zlib", task.Cache.Name)
	assert.Equal(t, DigestData(cmd), task.Cache.Digest)

	regs := rec.Registrations()
	require.Len(t, regs, 1)
	assert.Equal(t, CacheType, regs[0].Type)
	assert.Equal(t, "zlib", regs[0].Name)
	assert.Equal(t, DigestData(cmd), regs[0].Digest)
}

func TestAssemble_FastModeSkipsOptimizer(t *testing.T) {
	t.Parallel()

	rec := optimizer.NewRecorder()
	task := NewAssembler(rec).
		Assemble(descriptor(), compiled(t), Params{Level: "3", Kind: "fetch", Fast: true})

	assert.Nil(t, task.Cache)
	assert.Empty(t, rec.Registrations())
}
