package config

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

const sampleFile = `
network: dev-net
timeout: 45
services:
  - name: db
    image: postgres:16
    ports: {5432: 15432}
    env:
      POSTGRES_PASSWORD: ${PG_PASSWORD}
      POSTGRES_DB: app
    ready: {endpoint: "tcp://localhost:15432"}
  - name: api
    image: example/api:latest
    depends_on: [db]
    always_start_new: true
    ready: {endpoint: "http://localhost:8080", path: /healthz}
    init:
      endpoint: http://localhost:8080
      path: /seed
      body: '{"users": 3}'
      headers:
        Authorization: Bearer ${SEED_TOKEN}
`

func mockEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := osLookupEnv
	t.Cleanup(func() { osLookupEnv = original })
	osLookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	mockEnv(t, map[string]string{"PG_PASSWORD": "secret", "SEED_TOKEN": "tok"})

	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	assert.Equal(t, "dev-net", f.Network)
	assert.Equal(t, 45, f.Timeout)
	require.Len(t, f.Services, 2)

	db := f.Services[0]
	assert.Equal(t, "db", db.Name)
	assert.Equal(t, map[int]int{5432: 15432}, db.Ports)
	assert.Equal(t, map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "app"}, db.Env)
	assert.Nil(t, db.Init)

	api := f.Services[1]
	assert.Equal(t, []string{"db"}, api.DependsOn)
	assert.True(t, api.AlwaysStartNew)
	require.NotNil(t, api.Ready)
	assert.Equal(t, "/healthz", api.Ready.Path)
	require.NotNil(t, api.Init)
	assert.Equal(t, "Bearer tok", api.Init.Headers["Authorization"])
	assert.Equal(t, `{"users": 3}`, api.Init.Body)
}

func TestParse_MalformedFieldsAreInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		service string
	}{
		{
			name:    "ports as list",
			service: "db",
			yaml: `
services:
  - name: db
    image: postgres
    ports: [5432]
`,
		},
		{
			name:    "env as list",
			service: "api",
			yaml: `
services:
  - name: api
    image: api
    env: [A=1]
`,
		},
		{
			name:    "entry is not a mapping",
			service: "",
			yaml: `
services:
  - db
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, models.ErrInvalidDefinition)

			var loadErr *models.LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.service, loadErr.Service)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("services: [\n"))
	assert.Error(t, err)
}

func TestParse_NegativeTimeout(t *testing.T) {
	_, err := Parse([]byte("timeout: -1\nservices: []\n"))
	assert.Error(t, err)
}

func TestDefinitions(t *testing.T) {
	mockEnv(t, nil)
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	defs, err := f.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "db", defs[0].Name)
	assert.Equal(t, "postgres:16", defs[0].Image)
	assert.NotNil(t, defs[0].IsReady)
	assert.Nil(t, defs[0].PostStartInit)

	assert.Equal(t, []string{"db"}, defs[1].DependsOn)
	assert.True(t, defs[1].AlwaysStartNew)
	assert.NotNil(t, defs[1].PostStartInit)
}

func TestDefinitions_ReadyCheckDialsEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	sc := ServiceConfig{
		Name:  "db",
		Image: "postgres",
		Ready: &ReadyConfig{Endpoint: "tcp://" + ln.Addr().String()},
	}
	def, err := sc.Definition()
	require.NoError(t, err)
	assert.True(t, def.IsReady(context.Background()))
}

func TestDefinitions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		sc   ServiceConfig
	}{
		{name: "missing image", sc: ServiceConfig{Name: "db"}},
		{name: "bad ready endpoint", sc: ServiceConfig{Name: "db", Image: "pg", Ready: &ReadyConfig{Endpoint: "ftp://x"}}},
		{name: "bad init endpoint", sc: ServiceConfig{Name: "db", Image: "pg", Init: &InitConfig{Endpoint: "nope"}}},
		{name: "port out of range", sc: ServiceConfig{Name: "db", Image: "pg", Ports: map[int]int{0: 80}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{Services: []ServiceConfig{tt.sc}}
			_, err := f.Definitions()
			assert.ErrorIs(t, err, models.ErrInvalidDefinition)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Len(t, f.Services, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	tempDir := t.TempDir()
	original := osGetwd
	defer func() { osGetwd = original }()
	osGetwd = func() (string, error) { return tempDir, nil }

	p, err := ResolvePath("explicit.yaml")
	require.NoError(t, err)
	assert.Equal(t, "explicit.yaml", p)

	_, err = ResolvePath("")
	assert.Error(t, err)

	projectPath := filepath.Join(tempDir, projectConfigDir, DefaultConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(projectPath), 0755))
	require.NoError(t, os.WriteFile(projectPath, []byte("services: []\n"), 0644))

	p, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, projectPath, p)

	rootPath := filepath.Join(tempDir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(rootPath, []byte("services: []\n"), 0644))

	p, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, rootPath, p)
}

func TestRunOptions(t *testing.T) {
	f := &File{Network: "dev-net", Timeout: 45}

	opts := f.RunOptions(Overrides{})
	assert.Equal(t, "dev-net", opts.NetworkName)
	assert.Equal(t, 45*time.Second, opts.ReadinessTimeout)
	assert.Equal(t, models.DefaultPollInterval, opts.PollInterval)

	opts = f.RunOptions(Overrides{NetworkName: "cli-net", Timeout: 10 * time.Second, ForceRecreate: true})
	assert.Equal(t, "cli-net", opts.NetworkName)
	assert.Equal(t, 10*time.Second, opts.ReadinessTimeout)
	assert.True(t, opts.ForceRecreate)

	opts = (&File{}).RunOptions(Overrides{})
	assert.Equal(t, models.DefaultNetworkName, opts.NetworkName)
	assert.Equal(t, models.DefaultReadinessTimeout, opts.ReadinessTimeout)
	assert.NotEqual(t, opts.RunID.String(), f.RunOptions(Overrides{}).RunID.String())
}
