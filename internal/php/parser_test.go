package php

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const userModel = `<?php

namespace App\Models;

use Illuminate\Database\Eloquent\Factories\HasFactory;
use Illuminate\Foundation\Auth\User as Authenticatable;
use Illuminate\Database\Eloquent\Relations\{HasMany, BelongsTo};

class User extends Authenticatable
{
    use HasFactory;

    protected $table = 'members';

    protected $fillable = [
        'name',
        'email',
    ];

    protected $hidden = ['password', 'remember_token'];

    protected $casts = [
        'email_verified_at' => 'datetime',
        'is_admin' => 'boolean',
    ];

    public function posts(): HasMany
    {
        return $this->hasMany(Post::class);
    }

    public function team(): BelongsTo
    {
        return $this->belongsTo(\App\Models\Team::class, 'team_id');
    }

    public static function booted(): void
    {
    }

    protected function scopeActive($query)
    {
        return $query->where('active', true);
    }
}
`

// TestParseClassOutline verifies the outline of a typical model file.
func TestParseClassOutline(t *testing.T) {
	t.Parallel()

	f, err := NewParser().Parse(context.Background(), []byte(userModel))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Err(); err != nil {
		t.Fatalf("unexpected syntax error: %v", err)
	}

	if f.Namespace != `App\Models` {
		t.Errorf("expected namespace App\\Models, got %q", f.Namespace)
	}

	c := f.Class()
	if c == nil {
		t.Fatal("expected a class")
	}
	if c.Name != `App\Models\User` {
		t.Errorf("expected App\\Models\\User, got %q", c.Name)
	}
	if c.Extends != `Illuminate\Foundation\Auth\User` {
		t.Errorf("expected aliased parent to resolve, got %q", c.Extends)
	}
	if c.ShortName() != "User" {
		t.Errorf("expected short name User, got %q", c.ShortName())
	}

	t.Run("scalar property", func(t *testing.T) {
		t.Parallel()
		p, ok := c.Property("table")
		if !ok {
			t.Fatal("expected table property")
		}
		if p.Default != "members" {
			t.Errorf("expected members, got %#v", p.Default)
		}
		if p.Visibility != "protected" {
			t.Errorf("expected protected, got %q", p.Visibility)
		}
	})

	t.Run("list property", func(t *testing.T) {
		t.Parallel()
		p, ok := c.Property("fillable")
		if !ok {
			t.Fatal("expected fillable property")
		}
		arr, ok := p.Default.(*Array)
		if !ok {
			t.Fatalf("expected *Array, got %T", p.Default)
		}
		if diff := cmp.Diff([]string{"name", "email"}, arr.Strings()); diff != "" {
			t.Errorf("fillable mismatch (-want +got):\n%s", diff)
		}
		if !arr.IsList() {
			t.Error("expected a list")
		}
	})

	t.Run("keyed property keeps order", func(t *testing.T) {
		t.Parallel()
		p, _ := c.Property("casts")
		arr, ok := p.Default.(*Array)
		if !ok {
			t.Fatalf("expected *Array, got %T", p.Default)
		}
		m := arr.Map()
		if diff := cmp.Diff([]string{"email_verified_at", "is_admin"}, m.Keys()); diff != "" {
			t.Errorf("casts keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("relation methods", func(t *testing.T) {
		t.Parallel()
		posts, ok := c.Method("posts")
		if !ok {
			t.Fatal("expected posts method")
		}
		if posts.ReturnType != `Illuminate\Database\Eloquent\Relations\HasMany` {
			t.Errorf("expected grouped import to resolve, got %q", posts.ReturnType)
		}
		if posts.Params != 0 || posts.Static || posts.Visibility != "public" {
			t.Errorf("unexpected signature: %+v", posts)
		}
		if len(posts.Calls) != 1 || posts.Calls[0].Name != "hasMany" || posts.Calls[0].Object != "$this" {
			t.Fatalf("expected one $this->hasMany call, got %+v", posts.Calls)
		}
		if got := posts.Calls[0].Args[0].Value; got != ClassName(`App\Models\Post`) {
			t.Errorf("expected App\\Models\\Post, got %#v", got)
		}

		team, _ := c.Method("team")
		if got := team.Calls[0].Args[0].Value; got != ClassName(`App\Models\Team`) {
			t.Errorf("expected fully qualified name to stay, got %#v", got)
		}
	})

	t.Run("modifiers", func(t *testing.T) {
		t.Parallel()
		booted, _ := c.Method("booted")
		if !booted.Static {
			t.Error("expected booted to be static")
		}
		scope, _ := c.Method("scopeActive")
		if scope.Visibility != "protected" || scope.Params != 1 {
			t.Errorf("unexpected scope signature: %+v", scope)
		}
	})
}

// TestParseFluentChain verifies chained calls are reported in source order.
func TestParseFluentChain(t *testing.T) {
	t.Parallel()

	src := `<?php
namespace App\Providers\Filament;

use Filament\Panel;
use Filament\PanelProvider;
use Filament\Pages;

class AdminPanelProvider extends PanelProvider
{
    public function panel(Panel $panel): Panel
    {
        return $panel
            ->default()
            ->id('admin')
            ->path('admin')
            ->discoverResources(in: app_path('Filament/Resources'), for: 'App\\Filament\\Resources')
            ->pages([
                Pages\Dashboard::class,
            ]);
    }
}
`
	f, err := NewParser(WithBasePath("/srv/app")).Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := f.Class().Method("panel")
	if !ok {
		t.Fatal("expected panel method")
	}

	var names []string
	for _, c := range m.Calls {
		names = append(names, c.Name)
	}
	want := []string{"default", "id", "path", "discoverResources", "pages"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}

	discover := m.Calls[3]
	if len(discover.Args) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(discover.Args))
	}
	if discover.Args[0].Name != "in" || discover.Args[1].Name != "for" {
		t.Errorf("expected named arguments in/for, got %q/%q", discover.Args[0].Name, discover.Args[1].Name)
	}
	if got := discover.Args[0].Value; got != filepath.Join("/srv/app", "app", "Filament/Resources") {
		t.Errorf("unexpected app_path result %#v", got)
	}
	if got := discover.Args[1].Value; got != `App\Filament\Resources` {
		t.Errorf("unexpected namespace %#v", got)
	}

	pages, ok := m.Calls[4].Args[0].Value.(*Array)
	if !ok {
		t.Fatalf("expected array argument, got %T", m.Calls[4].Args[0].Value)
	}
	if diff := cmp.Diff([]string{`Filament\Pages\Dashboard`}, pages.Strings()); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
}

// TestParseConfigReturn verifies config files are folded with env lookups.
func TestParseConfigReturn(t *testing.T) {
	t.Parallel()

	src := `<?php

return [
    'name' => env('APP_NAME', 'Laravel'),
    'debug' => (bool) env('APP_DEBUG', false),
    'timezone' => 'UTC',
    'port' => env('DB_PORT', '3306'),
    'prefix' => env('CACHE_PREFIX', 'laravel') . '_cache_',
    'fallback' => env('MISSING') ?? 'file',
    'limits' => [10, -1, 0x1F],
];
`
	env := map[string]any{"APP_NAME": "Shop", "APP_DEBUG": true}
	lookup := func(name string) (any, bool) {
		v, ok := env[name]
		return v, ok
	}

	f, err := NewParser(WithEnv(lookup)).Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.HasReturn {
		t.Fatal("expected a top-level return")
	}
	arr, ok := f.Return.(*Array)
	if !ok {
		t.Fatalf("expected *Array, got %T", f.Return)
	}

	tests := []struct {
		key  string
		want any
	}{
		{key: "name", want: "Shop"},
		{key: "debug", want: true},
		{key: "timezone", want: "UTC"},
		{key: "port", want: "3306"},
		{key: "prefix", want: "laravel_cache_"},
		{key: "fallback", want: "file"},
	}
	for _, tt := range tests {
		got, ok := arr.Get(tt.key)
		if !ok {
			t.Errorf("expected key %q", tt.key)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %#v, got %#v", tt.key, tt.want, got)
		}
	}

	limits, _ := arr.Get("limits")
	list, ok := ToJSON(limits).([]any)
	if !ok {
		t.Fatalf("expected list, got %T", ToJSON(limits))
	}
	if diff := cmp.Diff([]any{int64(10), int64(-1), int64(31)}, list); diff != "" {
		t.Errorf("limits mismatch (-want +got):\n%s", diff)
	}
}

// TestParseAbstractClass verifies class modifiers are detected.
func TestParseAbstractClass(t *testing.T) {
	t.Parallel()

	src := `<?php
namespace App\Models;

use Illuminate\Database\Eloquent\Model;

abstract class BaseModel extends Model
{
}
`
	f, err := NewParser().Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := f.Class()
	if c == nil || !c.Abstract {
		t.Fatalf("expected abstract class, got %+v", c)
	}
	if c.Extends != `Illuminate\Database\Eloquent\Model` {
		t.Errorf("unexpected parent %q", c.Extends)
	}
}

// TestParseSyntaxError verifies broken files are flagged but still parsed.
func TestParseSyntaxError(t *testing.T) {
	t.Parallel()

	f, err := NewParser().Parse(context.Background(), []byte("<?php\nclass Broken {\n  public function (\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(f.Err(), ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", f.Err())
	}
}
