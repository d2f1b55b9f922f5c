package section

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/karrick/godirwalk"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/aimap/internal/model"
)

// Tree reports the nested directory structure of the configured roots.
type Tree struct {
	env *Env
}

// Key implements pipeline.Producer.
func (Tree) Key() string { return KeyDirectoryStructure }

// Produce implements pipeline.Producer. Entries keep the order the
// filesystem returns them in; missing roots are skipped.
func (t Tree) Produce(ctx context.Context) (any, error) {
	out := model.NewOrderedMap()
	for _, root := range t.env.Directories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := strings.Trim(filepath.ToSlash(filepath.Clean(root)), "/")
		if rel == "" || rel == "." {
			continue
		}
		abs := t.env.Project.Path(filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}

		node, err := t.walk(abs, rel)
		if err != nil {
			t.env.Logger.Warn("could not read directory", "path", rel, "error", err)
			continue
		}
		out.Set(rel, node)
	}
	return out, nil
}

// walk builds the tree below abs. prefix is the slash path of abs relative
// to the project root, used to match exclude globs.
func (t Tree) walk(abs, prefix string) (*model.OrderedMap, error) {
	tree := model.NewOrderedMap()
	err := godirwalk.Walk(abs, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == abs {
				return nil
			}
			rel, err := filepath.Rel(abs, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if t.excluded(prefix + "/" + rel) {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			insert(tree, strings.Split(rel, "/"))
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			t.env.Logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return godirwalk.SkipNode
		},
	})
	return tree, err
}

func (t Tree) excluded(rel string) bool {
	for _, pattern := range t.env.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// insert adds the path to the tree, creating intermediate nodes. Names are
// NFC normalised so decomposed file names match what an editor shows.
func insert(tree *model.OrderedMap, parts []string) {
	node := tree
	for _, part := range parts {
		name := norm.NFC.String(part)
		child, ok := node.Get(name)
		next, isMap := child.(*model.OrderedMap)
		if !ok || !isMap {
			next = model.NewOrderedMap()
			node.Set(name, next)
		}
		node = next
	}
}
