// Package watchlist ships the reference migration chain used by the
// vermigrate CLI and its documentation: the schema evolution of a small
// "watchlist" document listing stream rooms to follow.
//
// Schema history:
//
//	v1: {"version": 1, "rooms": ["https://example.com/1", ...]}
//	v2: room entries become objects: {"url": ..., "listening": true}
//	v3: a top-level "interval" (seconds) is introduced, default 30
//	v4: "rooms" is renamed to "live_rooms"
//
// Every step has a backward twin, so documents can be downgraded too. The
// steps operate on the map[string]any shape produced by JSON/YAML decoding
// and never touch the version field; the caller owns that.
package watchlist

import (
	"fmt"

	"github.com/vermigrate/vermigrate/src/pkg/migrate"
)

// DefaultInterval is the refresh interval (seconds) introduced in v3.
const DefaultInterval = 30

// RegisterSteps registers the watchlist chain 1→2→3→4 (and its backward
// twin) on m.
func RegisterSteps(m *migrate.Migrator) {
	m.Register(1, 2, roomsToObjects, roomsToStrings)
	m.Register(2, 3, addInterval, dropInterval)
	m.Register(3, 4, renameRooms, restoreRooms)
}

func document(obj any) (map[string]any, error) {
	doc, ok := obj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("watchlist step expects map[string]any, got %T", obj)
	}
	return doc, nil
}

func roomList(doc map[string]any, key string) ([]any, error) {
	raw, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("watchlist document has no %q list", key)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("watchlist %q is %T, want a list", key, raw)
	}
	return list, nil
}

// 1 → 2: plain URL strings become room objects.
func roomsToObjects(obj any) (any, error) {
	doc, err := document(obj)
	if err != nil {
		return nil, err
	}
	rooms, err := roomList(doc, "rooms")
	if err != nil {
		return nil, err
	}
	converted := make([]any, 0, len(rooms))
	for _, r := range rooms {
		url, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("v1 room entry is %T, want string", r)
		}
		converted = append(converted, map[string]any{
			"url":       url,
			"listening": true,
		})
	}
	doc["rooms"] = converted
	return doc, nil
}

// 2 → 1: room objects collapse back to their URLs.
func roomsToStrings(obj any) (any, error) {
	doc, err := document(obj)
	if err != nil {
		return nil, err
	}
	rooms, err := roomList(doc, "rooms")
	if err != nil {
		return nil, err
	}
	converted := make([]any, 0, len(rooms))
	for _, r := range rooms {
		room, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("v2 room entry is %T, want object", r)
		}
		url, ok := room["url"].(string)
		if !ok {
			return nil, fmt.Errorf("v2 room entry has no url")
		}
		converted = append(converted, url)
	}
	doc["rooms"] = converted
	return doc, nil
}

// 2 → 3: introduce the top-level refresh interval.
func addInterval(obj any) (any, error) {
	doc, err := document(obj)
	if err != nil {
		return nil, err
	}
	if _, ok := doc["interval"]; !ok {
		doc["interval"] = DefaultInterval
	}
	return doc, nil
}

// 3 → 2: the interval does not exist before v3.
func dropInterval(obj any) (any, error) {
	doc, err := document(obj)
	if err != nil {
		return nil, err
	}
	delete(doc, "interval")
	return doc, nil
}

// 3 → 4: "rooms" becomes "live_rooms".
func renameRooms(obj any) (any, error) {
	doc, err := document(obj)
	if err != nil {
		return nil, err
	}
	rooms, err := roomList(doc, "rooms")
	if err != nil {
		return nil, err
	}
	doc["live_rooms"] = rooms
	delete(doc, "rooms")
	return doc, nil
}

// 4 → 3: undo the rename.
func restoreRooms(obj any) (any, error) {
	doc, err := document(obj)
	if err != nil {
		return nil, err
	}
	rooms, err := roomList(doc, "live_rooms")
	if err != nil {
		return nil, err
	}
	doc["rooms"] = rooms
	delete(doc, "live_rooms")
	return doc, nil
}
