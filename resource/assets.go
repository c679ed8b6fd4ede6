package resource

import "github.com/viant/afs/storage"

//Assets represents tracked storage objects keyed by URL
type Assets map[string]storage.Object

//Deleted calls a callback with assets missing in the next snapshot
func (a Assets) Deleted(next Assets, fn func(object storage.Object)) {
	for URL, object := range a {
		if _, ok := next[URL]; !ok {
			fn(object)
			delete(a, URL)
		}
	}
}

//Modified calls a callback with assets whose modification time changed
func (a Assets) Modified(next Assets, fn func(object storage.Object)) {
	for URL, object := range next {
		if prev, ok := a[URL]; ok && !prev.ModTime().Equal(object.ModTime()) {
			fn(object)
			a[URL] = object
		}
	}
}

//Added calls a callback with assets missing in the current snapshot
func (a Assets) Added(next Assets, fn func(object storage.Object)) {
	for URL, object := range next {
		if _, ok := a[URL]; !ok {
			fn(object)
			a[URL] = object
		}
	}
}

//NewAssets creates assets from listed objects, directories and objects rejected by filter are skipped
func NewAssets(objects []storage.Object, filter func(URL string) bool) Assets {
	var result = make(Assets)
	for i, object := range objects {
		if object.IsDir() {
			continue
		}
		if filter != nil && !filter(object.URL()) {
			continue
		}
		result[object.URL()] = objects[i]
	}
	return result
}
