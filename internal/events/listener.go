package events

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/php"
	"github.com/nao1215/aimap/internal/project"
)

// ProviderFile is the event service provider, relative to the project root.
const ProviderFile = "app/Providers/EventServiceProvider.php"

var (
	// ErrNoProvider is returned when the project has no event service
	// provider.
	ErrNoProvider = errors.New("event service provider not found")

	// ErrNoListenProperty is returned when the provider declares no
	// $listen array.
	ErrNoListenProperty = errors.New("event service provider has no $listen array")
)

// ListenerProvider exposes the declared event to listener mapping.
type ListenerProvider interface {
	// Listing maps each event class to its listeners in declaration order.
	Listing(ctx context.Context) (*model.OrderedMap, error)
}

// SourceProvider reads the $listen property of the application's
// EventServiceProvider from source.
type SourceProvider struct {
	project *project.Project
}

// NewSourceProvider returns a ListenerProvider for p.
func NewSourceProvider(p *project.Project) *SourceProvider {
	return &SourceProvider{project: p}
}

// Listing implements ListenerProvider.
func (s *SourceProvider) Listing(ctx context.Context) (*model.OrderedMap, error) {
	path := s.project.Path(ProviderFile)
	f, err := s.project.Parser().ParseFile(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoProvider, path)
		}
		return nil, err
	}

	var class *php.Class
	for _, c := range f.Classes {
		if strings.EqualFold(c.ShortName(), "EventServiceProvider") {
			class = c
			break
		}
	}
	if class == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, path)
	}

	prop, ok := class.Property("listen")
	if !ok || !prop.HasDefault {
		return nil, ErrNoListenProperty
	}
	arr, ok := prop.Default.(*php.Array)
	if !ok {
		return nil, ErrNoListenProperty
	}
	return Listing(arr), nil
}

// Listing converts an evaluated $listen array. Listener entries keep their
// evaluated shape: class names become strings, [class, method] pairs stay
// lists.
func Listing(listen *php.Array) *model.OrderedMap {
	out := model.NewOrderedMap()
	listen.Map().Each(func(event string, value any) bool {
		if value == nil {
			value = []any{}
		}
		out.Set(event, value)
		return true
	})
	return out
}
