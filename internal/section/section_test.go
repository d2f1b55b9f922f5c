package section

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/aimap/internal/artisan"
	"github.com/nao1215/aimap/internal/config"
	"github.com/nao1215/aimap/internal/database"
	"github.com/nao1215/aimap/internal/log"
	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/pipeline"
	"github.com/nao1215/aimap/internal/project"
)

const databaseConfig = `<?php

return [
    'default' => env('DB_CONNECTION', 'first'),
    'connections' => [
        'second' => ['driver' => 'pgsql', 'host' => '10.0.0.2'],
        'first' => ['driver' => 'mysql', 'host' => '10.0.0.1'],
        'third' => ['driver' => 'sqlite', 'database' => database_path('database.sqlite')],
    ],
];
`

// fakeConnector succeeds only for the named connection and counts attempts.
type fakeConnector struct {
	working  string
	attempts []string
}

func (f *fakeConnector) Connect(_ context.Context, c database.Connection) (database.Catalog, error) {
	f.attempts = append(f.attempts, c.Name)
	if c.Name != f.working {
		return nil, errors.New("connection refused")
	}
	return stubCatalog{}, nil
}

type stubCatalog struct{}

func (stubCatalog) Tables(context.Context) ([]string, error) { return []string{"users"}, nil }
func (stubCatalog) Columns(context.Context, string) ([]model.Column, error) {
	return []model.Column{
		{Name: "id", TypeName: "integer", Type: "integer", AutoIncrement: true},
		{Name: "email", TypeName: "varchar", Type: "varchar(255)", Nullable: true},
	}, nil
}
func (stubCatalog) Indexes(context.Context, string) ([]model.Index, error) {
	return []model.Index{{Name: "primary", Columns: []string{"id"}, Unique: true, Primary: true}}, nil
}
func (stubCatalog) ForeignKeys(context.Context, string) ([]model.ForeignKey, error) {
	return []model.ForeignKey{}, nil
}
func (stubCatalog) Close() error { return nil }

type fakeRunner struct {
	result artisan.Result
}

func (f fakeRunner) Run(context.Context, string, string, ...string) artisan.Result {
	return f.result
}

type fakeRegistry struct {
	panels []model.Panel
	err    error
}

func (f fakeRegistry) Panels(context.Context) ([]model.Panel, error) {
	return f.panels, f.err
}

type fakeListeners struct {
	listing *model.OrderedMap
	err     error
}

func (f fakeListeners) Listing(context.Context) (*model.OrderedMap, error) {
	return f.listing, f.err
}

const routeJSON = `[{"domain":null,"method":"GET|HEAD","uri":"/","name":null,"action":"Closure","middleware":["web"]},` +
	`{"domain":null,"method":"GET|HEAD","uri":"posts","name":"posts.index","action":"App\\Http\\Controllers\\PostController@index","middleware":["web"]}]`

// newEnv writes files into a fresh project and returns an Env with fakes
// for every external collaborator, plus the captured log output.
func newEnv(t *testing.T, files map[string]string) (*Env, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	var logs bytes.Buffer
	logger := log.NewSecureLogger(&logs, false)
	p, err := project.Open(dir, project.WithLogger(logger))
	require.NoError(t, err)

	return &Env{
		Project:     p,
		Logger:      logger,
		Connector:   &fakeConnector{working: "third"},
		Runner:      fakeRunner{result: artisan.Result{Stdout: routeJSON}},
		PHPBinary:   "php",
		Directories: slices.Clone(config.DefaultDirectories),
		ModelsDir:   config.DefaultModelsDir,
		Panels:      fakeRegistry{panels: []model.Panel{}},
		Listeners:   fakeListeners{listing: model.NewOrderedMap()},
	}, &logs
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(v))
	return strings.TrimSpace(buf.String())
}

func run(t *testing.T, env *Env, enabled func(config.Section) bool) *model.ProjectMap {
	t.Helper()
	m := model.NewProjectMap("Laravel", "unknown")
	p := pipeline.New(pipeline.WithContinueOnError(true), pipeline.WithLogger(env.Logger))
	p.AddSteps(Steps(env, enabled)...)
	require.NoError(t, p.Execute(context.Background(), m))
	return m
}

func TestKeysFollowEnabledSections(t *testing.T) {
	t.Parallel()

	all := []string{
		model.KeyProjectName, model.KeyLaravelVersion,
		KeyEnvironment, KeyDatabaseSchema, KeyDirectoryStructure, KeyModels, KeyRoutes,
		KeyComposerDependencies, KeyFilament, KeyScheduledCommands, KeyEventListeners,
	}

	t.Run("everything enabled", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{"artisan": "<?php"})
		m := run(t, env, func(config.Section) bool { return true })
		if diff := cmp.Diff(all, m.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("disabled sections are absent", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Disable(config.SectionDB)
		cfg.Disable(config.SectionFilament)
		cfg.Disable(config.SectionEvents)

		env, _ := newEnv(t, nil)
		m := run(t, env, cfg.Enabled)

		want := []string{
			model.KeyProjectName, model.KeyLaravelVersion,
			KeyEnvironment, KeyDirectoryStructure, KeyModels, KeyRoutes,
			KeyComposerDependencies, KeyScheduledCommands,
		}
		if diff := cmp.Diff(want, m.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
		for _, k := range []string{KeyDatabaseSchema, KeyFilament, KeyEventListeners} {
			if _, ok := m.Section(k); ok {
				t.Errorf("expected %s to be absent", k)
			}
		}
	})
}

func TestSchema(t *testing.T) {
	t.Parallel()

	t.Run("only the third connection works", func(t *testing.T) {
		t.Parallel()

		env, logs := newEnv(t, map[string]string{"config/database.php": databaseConfig})
		connector := &fakeConnector{working: "third"}
		env.Connector = connector

		got, err := Schema{env: env}.Produce(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"first", "second", "third"}, connector.attempts)
		assert.Equal(t, 2, strings.Count(logs.String(), "could not connect to database"))

		tables := got.(*model.OrderedMap)
		assert.Equal(t, []string{"users"}, tables.Keys())
		users, _ := tables.Get("users")
		assert.Len(t, users.(model.TableSchema).Columns, 2)
	})

	t.Run("compact is derived from the verbose columns", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{"config/database.php": databaseConfig})
		env.Compact = true

		got, err := Schema{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, `{"users":["id: integer","email: varchar (nullable)"]}`, toJSON(t, got))
	})

	t.Run("no reachable connection yields an empty mapping", func(t *testing.T) {
		t.Parallel()

		env, logs := newEnv(t, map[string]string{"config/database.php": databaseConfig})
		env.Connector = &fakeConnector{}

		got, err := Schema{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "{}", toJSON(t, got))
		assert.Contains(t, logs.String(), "failed to connect to any configured database")
	})
}

func TestTree(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t, map[string]string{
		"app/Models/User.php":                                "<?php",
		"app/Http/Controllers/Controller.php":                "<?php",
		"routes/web.php":                                     "<?php",
		"database/migrations/0001_01_01_000000_users.php":    "<?php",
		"database/seeders/DatabaseSeeder.php":                "<?php",
		"resources/views/welcome.blade.php":                  "",
		"resources/views/vendor/mail/html/message.blade.php": "",
	})
	env.Exclude = []string{"resources/*/vendor"}

	got, err := Tree{env: env}.Produce(context.Background())
	require.NoError(t, err)
	tree := got.(*model.OrderedMap)

	keys := tree.Keys()
	slices.Sort(keys)
	assert.Equal(t, []string{"app", "database/migrations", "resources/views", "routes"}, keys)

	migrations, _ := tree.Get("database/migrations")
	assert.Equal(t, []string{"0001_01_01_000000_users.php"}, migrations.(*model.OrderedMap).Keys())

	views, _ := tree.Get("resources/views")
	assert.Equal(t, []string{"welcome.blade.php"}, views.(*model.OrderedMap).Keys())

	app, _ := tree.Get("app")
	appKeys := app.(*model.OrderedMap).Keys()
	slices.Sort(appKeys)
	assert.Equal(t, []string{"Http", "Models"}, appKeys)

	models, _ := app.(*model.OrderedMap).Get("Models")
	user, _ := models.(*model.OrderedMap).Get("User.php")
	assert.Equal(t, 0, user.(*model.OrderedMap).Len(), "files are empty mappings")
}

func TestNFCNames(t *testing.T) {
	t.Parallel()

	tree := model.NewOrderedMap()
	insert(tree, []string{"Caf\u00e9.php"})
	insert(tree, []string{"Cafe\u0301.php"})
	assert.Equal(t, []string{"Caf\u00e9.php"}, tree.Keys())
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	const manifest = `{"name":"acme/app","require":{"pkgA":"^1.0"},"require-dev":{}}`
	const lock = `{"packages":[{"name":"pkgA","version":"v1.4.2"}],"packages-dev":[{"name":"phpunit/phpunit","version":"11.0.1"}]}`

	t.Run("verbose without lock has no installed versions", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{"composer.json": manifest})
		got, err := Dependencies{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, `{"require":{"pkgA":"^1.0"},"require-dev":{}}`, toJSON(t, got))
	})

	t.Run("verbose with lock", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{"composer.json": manifest, "composer.lock": lock})
		got, err := Dependencies{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t,
			`{"require":{"pkgA":"^1.0"},"require-dev":{},"installed_versions":{"pkgA":"v1.4.2","phpunit/phpunit":"11.0.1"}}`,
			toJSON(t, got))
	})

	t.Run("compact ignores the lock", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{"composer.json": manifest, "composer.lock": lock})
		env.Compact = true
		got, err := Dependencies{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, `{"require":{"pkgA":"^1.0"},"require-dev":{}}`, toJSON(t, got))
	})

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, nil)
		got, err := Dependencies{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "{}", toJSON(t, got))
	})
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	t.Run("kernel and console routes", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{
			"app/Console/Kernel.php": `<?php
class Kernel extends ConsoleKernel
{
    protected function schedule(Schedule $schedule): void
    {
        $schedule->command('emails:send')->daily()
            ->at('13:00');
        $schedule->command('inspire')->hourly();
    }
}
`,
			"routes/console.php": "<?php\r\nSchedule::command('backup:run')->weekly()\r\n    ->mondays();\r\n",
		})

		got, err := Schedule{env: env}.Produce(context.Background())
		require.NoError(t, err)
		want := []string{
			"$schedule->command('emails:send')->daily()            ->at('13:00');",
			"$schedule->command('inspire')->hourly();",
			"Schedule::command('backup:run')->weekly()    ->mondays();",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("commands mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no files", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, nil)
		got, err := Schedule{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{}, got)
	})
}

func TestFilament(t *testing.T) {
	t.Parallel()

	installed := map[string]string{"composer.json": `{"require":{"filament/filament":"^3.2"}}`}
	panel := model.Panel{
		ID:        "admin",
		Path:      "admin",
		Resources: []string{`App\Filament\Resources\UserResource`},
		Pages:     []string{`Filament\Pages\Dashboard`},
		Widgets:   []string{},
	}

	t.Run("absent integration is null", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{"composer.json": `{"require":{}}`})
		env.Panels = fakeRegistry{panels: []model.Panel{panel}}
		got, err := Filament{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("enumeration error is null", func(t *testing.T) {
		t.Parallel()

		env, logs := newEnv(t, installed)
		env.Panels = fakeRegistry{err: errors.New("syntax error")}
		got, err := Filament{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Contains(t, logs.String(), "could not analyze Filament structure")
	})

	t.Run("installed without panels is an empty list", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, installed)
		env.Panels = fakeRegistry{}
		got, err := Filament{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, `{"panels":[]}`, toJSON(t, got))
	})

	t.Run("compact uses short names", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, installed)
		env.Compact = true
		env.Panels = fakeRegistry{panels: []model.Panel{panel}}
		got, err := Filament{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t,
			`{"panels":[{"id":"admin","path":"admin","resources":["UserResource"],"pages":["Dashboard"],"widgets":[]}]}`,
			toJSON(t, got))
	})
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	t.Run("compact lines", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, map[string]string{"artisan": "<?php"})
		env.Compact = true
		got, err := Routes{env: env}.Produce(context.Background())
		require.NoError(t, err)
		want := []string{
			"[GET|HEAD] / -> Closure (Name: N/A)",
			"[GET|HEAD] posts -> PostController@index (Name: posts.index)",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("routes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failure yields empty list", func(t *testing.T) {
		t.Parallel()

		env, logs := newEnv(t, map[string]string{"artisan": "<?php"})
		env.Runner = fakeRunner{result: artisan.Result{ExitCode: 255, Stderr: "Fatal error"}}
		got, err := Routes{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "[]", toJSON(t, got))
		assert.Contains(t, logs.String(), "could not get routes")
	})
}

func TestEnvironment(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t, map[string]string{
		".env": "APP_ENV=staging\nAPP_DEBUG=true\nCACHE_STORE=redis\n",
		"config/app.php": `<?php
return [
    'env' => env('APP_ENV', 'production'),
    'debug' => (bool) env('APP_DEBUG', false),
    'timezone' => 'Asia/Tokyo',
    'locale' => 'ja',
];
`,
	})

	got, err := Environment{env: env}.Produce(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		`{"environment":"staging","debug_mode":true,"timezone":"Asia/Tokyo","locale":"ja",`+
			`"cache_driver":"redis","queue_connection":"database","session_driver":"database","mail_mailer":"log"}`,
		toJSON(t, got))
}

func TestEvents(t *testing.T) {
	t.Parallel()

	t.Run("failure yields empty list", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, nil)
		env.Listeners = fakeListeners{err: errors.New("boom")}
		got, err := Events{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "[]", toJSON(t, got))
	})

	t.Run("empty listen array is an empty object", func(t *testing.T) {
		t.Parallel()

		env, _ := newEnv(t, nil)
		env.Listeners = fakeListeners{listing: model.NewOrderedMap()}
		got, err := Events{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "{}", toJSON(t, got))
	})

	t.Run("listing is passed through", func(t *testing.T) {
		t.Parallel()

		listing := model.NewOrderedMap()
		listing.Set(`App\Events\OrderShipped`, []any{`App\Listeners\SendShipmentNotification`})
		env, _ := newEnv(t, nil)
		env.Listeners = fakeListeners{listing: listing}
		got, err := Events{env: env}.Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, `{"App\\Events\\OrderShipped":["App\\Listeners\\SendShipmentNotification"]}`, toJSON(t, got))
	})
}
