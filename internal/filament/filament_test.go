package filament

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/php"
	"github.com/nao1215/aimap/internal/project"
)

const adminProvider = `<?php

namespace App\Providers\Filament;

use App\Filament\Widgets\Stats;
use Filament\Http\Middleware\Authenticate;
use Filament\Pages;
use Filament\Panel;
use Filament\PanelProvider;
use Filament\Widgets;

class AdminPanelProvider extends PanelProvider
{
    public function panel(Panel $panel): Panel
    {
        return $panel
            ->default()
            ->id('admin')
            ->path('admin')
            ->login()
            ->discoverResources(in: app_path('Filament/Resources'), for: 'App\\Filament\\Resources')
            ->discoverPages(in: app_path('Filament/Pages'), for: 'App\\Filament\\Pages')
            ->pages([
                Pages\Dashboard::class,
            ])
            ->widgets([
                Widgets\AccountWidget::class,
                Stats::class,
            ])
            ->discoverWidgets(in: app_path('Filament/Widgets'), for: 'App\\Filament\\Widgets')
            ->authMiddleware([
                Authenticate::class,
            ]);
    }
}
`

var projectFiles = map[string]string{
	"composer.json":                               `{"require":{"php":"^8.2","filament/filament":"^3.2"}}`,
	"app/Providers/AppServiceProvider.php":        "<?php\nnamespace App\\Providers;\nclass AppServiceProvider extends \\Illuminate\\Support\\ServiceProvider {}\n",
	"app/Providers/Filament/AdminPanelProvider.php": adminProvider,
	"app/Filament/Resources/UserResource.php": `<?php
namespace App\Filament\Resources;
use Filament\Resources\Resource;
class UserResource extends Resource {}
`,
	"app/Filament/Resources/UserResource/Pages/ListUsers.php": `<?php
namespace App\Filament\Resources\UserResource\Pages;
use Filament\Resources\Pages\ListRecords;
class ListUsers extends ListRecords {}
`,
	"app/Filament/Resources/BaseResource.php": `<?php
namespace App\Filament\Resources;
abstract class BaseResource extends \Filament\Resources\Resource {}
`,
	"app/Filament/Resources/Shop/OrderResource.php": `<?php
namespace App\Filament\Resources\Shop;
use App\Filament\Resources\BaseResource;
class OrderResource extends BaseResource {}
`,
	"app/Filament/Pages/Settings.php": `<?php
namespace App\Filament\Pages;
class Settings extends \Filament\Pages\Page {}
`,
	"app/Filament/Widgets/Stats.php": `<?php
namespace App\Filament\Widgets;
use Filament\Widgets\StatsOverviewWidget;
class Stats extends StatsOverviewWidget {}
`,
	"app/Filament/Widgets/Helper.php": `<?php
namespace App\Filament\Widgets;
class Helper {}
`,
}

func writeProject(t *testing.T, files map[string]string) *project.Project {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	p, err := project.Open(dir)
	if err != nil {
		t.Fatalf("failed to open project: %v", err)
	}
	return p
}

func TestSourceRegistryPanels(t *testing.T) {
	t.Parallel()

	p := writeProject(t, projectFiles)
	if !Installed(p) {
		t.Fatal("expected the package to be detected from composer.json")
	}

	panels, err := NewSourceRegistry(p).Panels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.Panel{{
		ID:   "admin",
		Path: "admin",
		Resources: []string{
			`App\Filament\Resources\Shop\OrderResource`,
			`App\Filament\Resources\UserResource`,
		},
		Pages: []string{
			`App\Filament\Pages\Settings`,
			`Filament\Pages\Dashboard`,
		},
		Widgets: []string{
			`Filament\Widgets\AccountWidget`,
			`App\Filament\Widgets\Stats`,
		},
	}}
	if diff := cmp.Diff(want, panels); diff != "" {
		t.Errorf("panels mismatch (-want +got):\n%s", diff)
	}

	compact := panels[0].Compact()
	if diff := cmp.Diff([]string{"OrderResource", "UserResource"}, compact.Resources); diff != "" {
		t.Errorf("compact resources mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceRegistryNoProviders(t *testing.T) {
	t.Parallel()

	p := writeProject(t, map[string]string{"composer.json": `{"require":{}}`})
	if Installed(p) {
		t.Error("expected the package to be absent")
	}

	panels, err := NewSourceRegistry(p).Panels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if panels == nil || len(panels) != 0 {
		t.Errorf("expected an empty panel list, got %v", panels)
	}
}

func TestSourceRegistryErrors(t *testing.T) {
	t.Parallel()

	t.Run("broken provider", func(t *testing.T) {
		t.Parallel()

		p := writeProject(t, map[string]string{
			"app/Providers/AdminPanelProvider.php": "<?php\nclass AdminPanelProvider extends \\Filament\\PanelProvider {\n public function panel( {\n",
		})
		_, err := NewSourceRegistry(p).Panels(context.Background())
		if !errors.Is(err, ErrProviderSyntax) {
			t.Errorf("expected ErrProviderSyntax, got %v", err)
		}
	})

	t.Run("panel without id", func(t *testing.T) {
		t.Parallel()

		p := writeProject(t, map[string]string{
			"app/Providers/AdminPanelProvider.php": `<?php
namespace App\Providers;
use Filament\Panel;
class AdminPanelProvider extends \Filament\PanelProvider
{
    public function panel(Panel $panel): Panel
    {
        return $panel->path('admin');
    }
}
`,
		})
		_, err := NewSourceRegistry(p).Panels(context.Background())
		if !errors.Is(err, ErrNoPanelID) {
			t.Errorf("expected ErrNoPanelID, got %v", err)
		}
	})

	t.Run("discover without namespace", func(t *testing.T) {
		t.Parallel()

		p := writeProject(t, map[string]string{
			"app/Providers/AdminPanelProvider.php": `<?php
namespace App\Providers;
use Filament\Panel;
class AdminPanelProvider extends \Filament\PanelProvider
{
    public function panel(Panel $panel): Panel
    {
        return $panel->id('admin')->discoverResources(in: app_path('Filament/Resources'));
    }
}
`,
		})
		_, err := NewSourceRegistry(p).Panels(context.Background())
		if !errors.Is(err, ErrDiscoverArgs) {
			t.Errorf("expected ErrDiscoverArgs, got %v", err)
		}
	})
}

func TestOnBuilder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		object string
		want   bool
	}{
		{object: "$panel", want: true},
		{object: "$panel->default()->id('admin')", want: true},
		{object: "$panel?->id('x')", want: true},
		{object: "$this", want: false},
		{object: "SpatieLaravelTranslatablePlugin::make()", want: false},
		{object: "", want: false},
	}
	for _, tt := range tests {
		if got := onBuilder(tt.object); got != tt.want {
			t.Errorf("onBuilder(%q): expected %v, got %v", tt.object, tt.want, got)
		}
	}
}

func TestDiscoverArgs(t *testing.T) {
	t.Parallel()

	in, ns, ok := discoverArgs([]php.Arg{{Value: "/app/Filament/Pages"}, {Value: `\App\Filament\Pages`}})
	if !ok || in != "/app/Filament/Pages" || ns != `App\Filament\Pages` {
		t.Errorf("unexpected positional result %q %q %v", in, ns, ok)
	}

	in, ns, ok = discoverArgs([]php.Arg{{Name: "for", Value: `App\Widgets`}, {Name: "in", Value: "/w"}})
	if !ok || in != "/w" || ns != `App\Widgets` {
		t.Errorf("unexpected named result %q %q %v", in, ns, ok)
	}
}
