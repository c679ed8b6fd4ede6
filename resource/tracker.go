package resource

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
)

//Tracker detects template and definition changes under a watched location
type Tracker struct {
	watchURL       string
	assets         Assets
	mutex          sync.Mutex
	checkFrequency time.Duration
	nextCheck      time.Time
	filter         func(URL string) bool
}

func (m *Tracker) isCheckDue(now time.Time) bool {
	if m.nextCheck.IsZero() || now.After(m.nextCheck) {
		m.nextCheck = now.Add(m.checkFrequency)
		return true
	}
	return false
}

func (m *Tracker) hasChanges(assets Assets) bool {
	if len(assets) != len(m.assets) {
		return true
	}
	for URL, object := range assets {
		prev, ok := m.assets[URL]
		if !ok || !prev.ModTime().Equal(object.ModTime()) {
			return true
		}
	}
	return false
}

//Watch checks watched location until context is done, callback is called once per check with all changes
func (m *Tracker) Watch(ctx context.Context, fs afs.Service, callback func(changes map[string]Operation), onError func(err error)) {
	go m.watch(ctx, fs, callback, onError)
}

func (m *Tracker) watch(ctx context.Context, fs afs.Service, callback func(changes map[string]Operation), onError func(err error)) {
	ticker := time.NewTicker(m.checkFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		changes := map[string]Operation{}
		err := m.Notify(ctx, fs, func(URL string, operation Operation) {
			changes[URL] = operation
		})
		if err != nil {
			onError(err)
			continue
		}
		if len(changes) > 0 {
			callback(changes)
		}
	}
}

//Notify calls callback for every asset added, modified or deleted since the previous check, the first check reports all assets as added
func (m *Tracker) Notify(ctx context.Context, fs afs.Service, callback func(URL string, operation Operation)) error {
	if m.watchURL == "" {
		return nil
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.isCheckDue(time.Now()) {
		return nil
	}
	objects, err := fs.List(ctx, m.watchURL, option.NewRecursive(true))
	if err != nil {
		return errors.Wrapf(err, "failed to list %v", m.watchURL)
	}
	assets := NewAssets(objects, m.filter)
	if !m.hasChanges(assets) {
		return nil
	}
	m.assets.Added(assets, func(object storage.Object) {
		callback(object.URL(), Added)
	})
	m.assets.Modified(assets, func(object storage.Object) {
		callback(object.URL(), Modified)
	})
	m.assets.Deleted(assets, func(object storage.Object) {
		callback(object.URL(), Deleted)
	})
	return nil
}

//DefinitionFilter accepts YAML and JSON documents
func DefinitionFilter(URL string) bool {
	switch strings.ToLower(path.Ext(URL)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

//New creates a tracker, filter is optional
func New(watchURL string, checkFrequency time.Duration, filter func(URL string) bool) *Tracker {
	if checkFrequency == 0 {
		checkFrequency = time.Minute
	}
	return &Tracker{
		checkFrequency: checkFrequency,
		watchURL:       watchURL,
		assets:         make(Assets),
		filter:         filter,
	}
}
