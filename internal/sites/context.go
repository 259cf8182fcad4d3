package sites

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/widya-lms/widya-core/internal/vfs"
)

var (
	// ErrDuplicateCourse indicates two course entries share a URL prefix.
	ErrDuplicateCourse = errors.New("duplicate course url prefix")
	// ErrMalformedCourseEntry indicates a raw course entry could not be parsed.
	ErrMalformedCourseEntry = errors.New("malformed course entry")
)

// Context binds one course instance to its namespace and content store.
// The binding is made at construction and never changes afterwards.
type Context struct {
	urlPrefix  string
	homeFolder string
	namespace  string
	fs         *vfs.FileSystem
	readOnly   bool
}

func (c *Context) URLPrefix() string  { return c.urlPrefix }
func (c *Context) HomeFolder() string { return c.homeFolder }
func (c *Context) Namespace() string  { return c.namespace }
func (c *Context) FS() *vfs.FileSystem { return c.fs }
func (c *Context) IsReadOnly() bool   { return c.readOnly }

// Dependencies carries the shared backends course contexts are built over.
type Dependencies struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Cache    vfs.CacheConfig
	DataRoot string
	Logger   zerolog.Logger
	// CacheObserverFor supplies a per-namespace cache observer; nil means
	// no observation.
	CacheObserverFor func(namespace string) vfs.Observer
}

// Registry holds every configured course context.
type Registry struct {
	contexts []*Context
}

// NewRegistry parses a raw course configuration string of the form
//
//	course:/first::ns_first, course:/second::ns_second, course:/:/
//
// Each entry is course:<url_prefix>:<home_folder>:<namespace>. An entry with
// a home folder is served read-only from the local snapshot under DataRoot;
// an entry without one gets the mutable datastore-backed store, fronted by
// the cache when enabled. Duplicate URL prefixes are rejected.
func NewRegistry(raw string, deps Dependencies) (*Registry, error) {
	registry := &Registry{}
	seen := map[string]bool{}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		context, err := parseEntry(entry, deps)
		if err != nil {
			return nil, err
		}
		if seen[context.urlPrefix] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCourse, context.urlPrefix)
		}
		seen[context.urlPrefix] = true
		registry.contexts = append(registry.contexts, context)
	}

	// Longest prefix first so resolution can take the first match.
	sort.SliceStable(registry.contexts, func(i, j int) bool {
		return len(registry.contexts[i].urlPrefix) > len(registry.contexts[j].urlPrefix)
	})

	return registry, nil
}

// All returns every configured course context.
func (r *Registry) All() []*Context { return r.contexts }

// GetCourseForPath resolves a request path to its course context via
// longest-prefix match, or nil when no course claims the path.
func (r *Registry) GetCourseForPath(path string) *Context {
	for _, context := range r.contexts {
		prefix := context.urlPrefix
		if path == prefix || strings.HasPrefix(path, prefix) &&
			(strings.HasSuffix(prefix, "/") || len(path) == len(prefix) || path[len(prefix)] == '/') {
			return context
		}
	}
	return nil
}

// GetCourseForPrefix resolves a course context by its exact URL prefix.
func (r *Registry) GetCourseForPrefix(prefix string) *Context {
	for _, context := range r.contexts {
		if context.urlPrefix == prefix {
			return context
		}
	}
	return nil
}

func parseEntry(entry string, deps Dependencies) (*Context, error) {
	parts := strings.Split(entry, ":")
	if len(parts) < 2 || parts[0] != "course" || !strings.HasPrefix(parts[1], "/") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedCourseEntry, entry)
	}

	urlPrefix := parts[1]
	homeFolder := ""
	namespace := ""
	if len(parts) > 2 {
		homeFolder = parts[2]
	}
	if len(parts) > 3 {
		namespace = parts[3]
	}

	if homeFolder != "" {
		root := filepath.Join(deps.DataRoot, filepath.FromSlash(strings.TrimPrefix(homeFolder, "/")))
		return &Context{
			urlPrefix:  urlPrefix,
			homeFolder: homeFolder,
			namespace:  namespace,
			fs:         vfs.NewFileSystem(vfs.NewLocalStore(root)),
			readOnly:   true,
		}, nil
	}

	cacheConfig := deps.Cache
	if cacheConfig.Observer == nil && deps.CacheObserverFor != nil {
		cacheConfig.Observer = deps.CacheObserverFor(namespace)
	}
	store := vfs.NewCachedStore(
		vfs.NewDatastoreBackedStore(deps.DB, namespace),
		namespace, deps.Redis, cacheConfig, deps.Logger)

	return &Context{
		urlPrefix: urlPrefix,
		namespace: namespace,
		fs:        vfs.NewFileSystem(store),
	}, nil
}
