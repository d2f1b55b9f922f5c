package section

import (
	"context"

	"github.com/nao1215/aimap/internal/model"
	"github.com/nao1215/aimap/internal/php"
)

// environmentKeys maps each reported key to its configuration key.
var environmentKeys = []struct {
	name   string
	config string
}{
	{"environment", "app.env"},
	{"debug_mode", "app.debug"},
	{"timezone", "app.timezone"},
	{"locale", "app.locale"},
	{"cache_driver", "cache.default"},
	{"queue_connection", "queue.default"},
	{"session_driver", "session.driver"},
	{"mail_mailer", "mail.default"},
}

// Environment reports the configured environment and driver selections.
type Environment struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Environment) Key() string { return KeyEnvironment }

// Produce implements pipeline.Producer. Unset values are null.
func (e Environment) Produce(ctx context.Context) (any, error) {
	out := model.NewOrderedMap()
	for _, k := range environmentKeys {
		v, _ := e.env.Project.Config(ctx, k.config)
		out.Set(k.name, php.ToJSON(v))
	}
	return out, nil
}
